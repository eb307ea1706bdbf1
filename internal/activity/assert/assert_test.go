package assert

import "testing"

func TestThatPassesOnTrueCondition(t *testing.T) {
	// Must never panic regardless of build tag.
	That(true, "should never fire")
}

func TestThatBehaviorMatchesEnabled(t *testing.T) {
	defer func() {
		r := recover()
		if Enabled && r == nil {
			t.Fatal("expected a panic in a debug build when the condition is false")
		}
		if !Enabled && r != nil {
			t.Fatalf("expected no panic in a release build, got: %v", r)
		}
	}()
	That(false, "deliberate failure")
}
