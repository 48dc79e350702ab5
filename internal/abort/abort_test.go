package abort

import "testing"

func TestSignalChecksAfterAbort(t *testing.T) {
	s := New()
	if err := s.Check(); err != nil {
		t.Fatalf("expected nil before abort, got %v", err)
	}
	s.Abort()
	if err := s.Check(); err == nil {
		t.Fatalf("expected ErrAborted after abort")
	}
}

func TestSignalAbortIsIdempotent(t *testing.T) {
	s := New()
	s.Abort()
	s.Abort()
	if !s.Aborted() {
		t.Fatalf("expected Aborted to remain true")
	}
}
