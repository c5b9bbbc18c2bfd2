package generator

import (
	"time"

	"ToxVanity/internal/crypto"
	"ToxVanity/internal/metrics"
)

const (
	DefaultReportInterval = 10 * time.Second
	DefaultPollInterval   = 100 * time.Millisecond

	// FailureWarnEvery consecutive generation failures produce one warning
	// and a short backoff.
	FailureWarnEvery = 100
	failureBackoff   = 10 * time.Millisecond
)

// Sink stores the winning savedata and returns where it went.
type Sink interface {
	Persist(address string, savedata []byte) (string, error)
}

// Options is the search request. It is copied into Run and never mutated
// afterwards.
type Options struct {
	Prefix  string
	Workers int // 0 = runtime.NumCPU()
	Scheme  crypto.Scheme

	OutDir string // result and found.jsonl directory
	Sink   Sink   // nil = keystore.Sink in OutDir
	RunID  string

	ReportInterval time.Duration // per-worker throughput line, 0 = 10s
	PollInterval   time.Duration // coordinator wake-up, 0 = 100ms
	Metrics        metrics.Recorder
	Now            func() time.Time // clock for throughput meters
}
