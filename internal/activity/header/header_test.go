package header

import "testing"

func TestNameBytesRoundTrip(t *testing.T) {
	got := NameString(NameBytes("worker-1"))
	if got != "worker-1" {
		t.Fatalf("NameString(NameBytes(%q)) = %q", "worker-1", got)
	}
}

func TestNameBytesTruncatesLongNames(t *testing.T) {
	long := "this-name-is-definitely-longer-than-the-fixed-buffer-size"
	buf := NameBytes(long)

	if buf[NameSize-1] != 0 {
		t.Fatalf("expected NUL terminator within the fixed buffer")
	}
	got := NameString(buf)
	if len(got) != NameSize-1 {
		t.Fatalf("NameString length = %d, want %d", len(got), NameSize-1)
	}
	if got != long[:NameSize-1] {
		t.Fatalf("NameString() = %q, want prefix %q", got, long[:NameSize-1])
	}
}

func TestNameStringTolerantOfMissingTerminator(t *testing.T) {
	var buf [NameSize]byte
	for i := range buf {
		buf[i] = 'x'
	}
	got := NameString(buf)
	if got != string(buf[:]) {
		t.Fatalf("expected full buffer back when no NUL is present")
	}
}

func TestSchemaVersionAndKnownVersion(t *testing.T) {
	if !KnownVersion(Cookie) {
		t.Fatal("Cookie itself must be a known version")
	}
	if SchemaVersion(Cookie) != 1 {
		t.Fatalf("SchemaVersion(Cookie) = %d, want 1", SchemaVersion(Cookie))
	}
	if KnownVersion(Cookie ^ 1) {
		t.Fatal("flipping the schema bit must not still be a known version")
	}
}
