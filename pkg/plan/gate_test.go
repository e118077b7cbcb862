package plan

import "testing"

func TestDecideGateOpenAlwaysEmits(t *testing.T) {
	got := decide(true, Options{WithoutFailfast: false})
	if got != decisionEmit {
		t.Fatalf("want decisionEmit, got %v", got)
	}
}

func TestDecideGateClosedWithoutFailfastSkips(t *testing.T) {
	got := decide(false, Options{WithoutFailfast: true})
	if got != decisionSkip {
		t.Fatalf("want decisionSkip, got %v", got)
	}
}

func TestDecideGateClosedAborts(t *testing.T) {
	got := decide(false, Options{WithoutFailfast: false})
	if got != decisionAbort {
		t.Fatalf("want decisionAbort, got %v", got)
	}
}
