package record

import "testing"

func TestActivityTypeCategoryAction(t *testing.T) {
	typ := CategoryGeneric | 7

	if got := typ.Category(); got != CategoryGeneric {
		t.Fatalf("Category() = %v, want %v", got, CategoryGeneric)
	}
	if got := typ.Action(); got != 7 {
		t.Fatalf("Action() = %v, want 7", got)
	}
}

func TestActivityTypeSameCategory(t *testing.T) {
	a := CategoryTaskRun | 1
	b := CategoryTaskRun | 2
	c := CategoryLockAcquire

	if !a.SameCategory(b) {
		t.Fatal("expected same category for two CategoryTaskRun types")
	}
	if a.SameCategory(c) {
		t.Fatal("expected different category between CategoryTaskRun and CategoryLockAcquire")
	}
}

func TestDataRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		encode func() Data
		check  func(t *testing.T, d Data)
	}{
		{
			name:   "generic",
			encode: func() Data { return ForGeneric(42, -7) },
			check: func(t *testing.T, d Data) {
				id, info := d.Generic()
				if id != 42 || info != -7 {
					t.Fatalf("Generic() = (%d, %d), want (42, -7)", id, info)
				}
			},
		},
		{
			name:   "task",
			encode: func() Data { return ForTask(9001) },
			check: func(t *testing.T, d Data) {
				if got := d.Task(); got != 9001 {
					t.Fatalf("Task() = %d, want 9001", got)
				}
			},
		},
		{
			name:   "lock",
			encode: func() Data { return ForLock(0xdeadbeef) },
			check: func(t *testing.T, d Data) {
				if got := d.Lock(); got != 0xdeadbeef {
					t.Fatalf("Lock() = %#x, want 0xdeadbeef", got)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, tc.encode())
		})
	}
}

func TestNullDataIsZeroValue(t *testing.T) {
	if NullData != (Data{}) {
		t.Fatal("NullData must be the zero value")
	}
}

func TestActivitySize(t *testing.T) {
	if Size == 0 {
		t.Fatal("Size must be nonzero")
	}
	if Size%8 != 0 {
		t.Fatalf("Size = %d, want a multiple of 8", Size)
	}
}
