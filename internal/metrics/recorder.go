// Package metrics exports search throughput outside the process.
package metrics

import "time"

// Recorder receives per-worker throughput samples and the final result.
// Implementations must be safe for concurrent use by all workers.
type Recorder interface {
	RecordRate(worker int, rate float64)
	RecordFound(address string, attempts uint64, elapsed time.Duration)
	Close()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRate(int, float64)                   {}
func (Nop) RecordFound(string, uint64, time.Duration) {}
func (Nop) Close()                                    {}
