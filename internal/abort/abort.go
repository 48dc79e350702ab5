// Package abort implements cooperative evaluation cancellation (spec
// component L): a single-shot flag external code can set, which every
// suspension point in the pipeline (between middlewares, between tool
// calls, between stream chunks) polls and reacts to by unwinding with
// ErrAborted.
package abort

import "sync/atomic"

// ErrAborted is returned from an evaluation that observed an abort
// signal at one of its suspension points.
type ErrAborted struct{}

func (ErrAborted) Error() string { return "evaluation aborted" }

// Signal is a single-shot abort flag bound to one evaluation run. The
// zero value is usable.
type Signal struct {
	flag atomic.Bool
}

// New returns a fresh, unset Signal.
func New() *Signal {
	return &Signal{}
}

// Abort sets the flag. Idempotent: aborting twice has no additional
// effect.
func (s *Signal) Abort() {
	s.flag.Store(true)
}

// Aborted reports whether Abort has been called.
func (s *Signal) Aborted() bool {
	return s.flag.Load()
}

// Check returns ErrAborted if the signal has fired, nil otherwise. Call
// this at every suspension point a long-running evaluation passes
// through.
func (s *Signal) Check() error {
	if s.Aborted() {
		return ErrAborted{}
	}
	return nil
}
