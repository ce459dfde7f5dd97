package diagnostics

import "testing"

func TestSinkSuppression(t *testing.T) {
	s := NewSink()
	s.AddError(TC001, nil, "visible", nil)

	release := s.Suppress()
	s.AddError(TC002, nil, "hidden", nil)
	if len(s.Reports()) != 1 {
		t.Fatalf("expected suppressed add to be dropped, got %d reports", len(s.Reports()))
	}
	release()

	s.AddError(TC003, nil, "visible again", nil)
	if len(s.Reports()) != 2 {
		t.Fatalf("expected 2 reports after releasing suppression, got %d", len(s.Reports()))
	}
}

func TestSinkNestedSuppression(t *testing.T) {
	s := NewSink()
	r1 := s.Suppress()
	r2 := s.Suppress()
	s.AddError(TC001, nil, "hidden", nil)
	r2()
	if !s.IsSuppressed() {
		t.Fatal("expected sink to remain suppressed after releasing only one of two frames")
	}
	r1()
	if s.IsSuppressed() {
		t.Fatal("expected sink to be unsuppressed after releasing both frames")
	}
}

func TestSinkCheckpointRestore(t *testing.T) {
	s := NewSink()
	s.AddError(TC001, nil, "first", nil)
	mark := s.Checkpoint()
	s.AddError(TC002, nil, "speculative", nil)
	s.AddError(TC003, nil, "also speculative", nil)
	s.TruncateTo(mark)

	if len(s.Reports()) != 1 {
		t.Fatalf("expected 1 report after truncation, got %d", len(s.Reports()))
	}
	if s.Reports()[0].Code != TC001 {
		t.Errorf("expected surviving report to be %s, got %s", TC001, s.Reports()[0].Code)
	}
}
