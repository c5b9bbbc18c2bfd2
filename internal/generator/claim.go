package generator

import "sync/atomic"

// termination is the process-wide found flag. It moves from unset to set
// exactly once; the caller whose claim succeeds owns the result.
type termination struct {
	set atomic.Bool
}

func (t *termination) claim() bool { return t.set.CompareAndSwap(false, true) }
func (t *termination) done() bool  { return t.set.Load() }
