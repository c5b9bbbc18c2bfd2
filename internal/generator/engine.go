package generator

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"ToxVanity/internal/crypto"
	"ToxVanity/internal/keystore"
	"ToxVanity/internal/logsink"
	"ToxVanity/internal/metrics"
	"ToxVanity/internal/patterns"
	"ToxVanity/pkg/logx"
)

// Result is the persisted winner. The savedata itself lives only in Path.
type Result struct {
	Address  string
	Path     string
	Worker   int
	Attempts uint64 // all workers, including the winning candidate
	Elapsed  time.Duration
}

type winner struct {
	address string
	path    string
	worker  int
	elapsed time.Duration
	err     error
}

type search struct {
	scheme      crypto.Scheme
	prefix      patterns.Prefix
	sink        Sink
	recorder    metrics.Recorder
	reportEvery time.Duration
	now         func() time.Time
	start       time.Time

	term termination
	// attempts[i] is written by worker i only, read after all workers joined.
	attempts []uint64
	// written by the claiming worker only, read after all workers joined.
	won *winner
}

// Run searches until one worker finds an address starting with opt.Prefix
// and its savedata is persisted, or ctx is cancelled. Every started worker
// has returned when Run returns.
func Run(ctx context.Context, opt Options) (*Result, error) {
	prefix, err := opt.validate()
	if err != nil {
		return nil, err
	}

	app := logx.S()
	cpus := runtime.NumCPU()
	app.Debugw("detected processors", "n", cpus)

	workers := opt.Workers
	if workers == 0 {
		workers = cpus
	}

	s := &search{
		scheme:      opt.Scheme,
		prefix:      prefix,
		sink:        opt.Sink,
		recorder:    opt.Metrics,
		reportEvery: opt.ReportInterval,
		now:         opt.Now,
		attempts:    make([]uint64, workers),
	}
	if s.sink == nil {
		s.sink = keystore.Sink{Dir: opt.OutDir, Name: opt.Scheme.FileName}
	}
	if s.recorder == nil {
		s.recorder = metrics.Nop{}
	}
	if s.reportEvery <= 0 {
		s.reportEvery = DefaultReportInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	poll := opt.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	app.Infow("search started",
		"run_id", opt.RunID,
		"scheme", opt.Scheme.Name(),
		"prefix", prefix.String(),
		"workers", workers,
		"expected_attempts", fmt.Sprintf("%.0f", expectedAttempts(prefix.Len())),
	)

	s.start = time.Now()
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	started := 0
	for i := 0; i < workers; i++ {
		gen, err := opt.Scheme.NewGenerator(i)
		if err != nil {
			app.Errorw("worker create failed", "worker", i, "err", err)
			continue
		}
		started++
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(wctx, id, gen)
		}(i)
		app.Debugw("worker created", "worker", i)
	}
	if started == 0 {
		return nil, ErrNoWorkers
	}
	if started < workers {
		app.Warnw("search runs degraded", "workers", started, "requested", workers)
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-ticker.C:
			if s.term.done() {
				break wait
			}
		case <-ctx.Done():
			app.Infow("interrupt received, stopping workers", "err", ctx.Err())
			break wait
		}
	}

	cancel()
	wg.Wait()

	var total uint64
	for _, n := range s.attempts {
		total += n
	}
	elapsed := time.Since(s.start)

	if s.won == nil {
		app.Infow("stopped", "elapsed", humanDuration(elapsed), "attempts", total)
		return nil, fmt.Errorf("%w: %v", ErrInterrupted, context.Cause(ctx))
	}
	w := s.won
	if w.err != nil {
		app.Errorw("result not saved", "address", w.address, "file", w.path, "err", w.err)
		return nil, &PersistError{Address: w.address, Path: w.path, Err: w.err}
	}

	res := &Result{
		Address:  w.address,
		Path:     w.path,
		Worker:   w.worker,
		Attempts: total,
		Elapsed:  w.elapsed,
	}
	s.recorder.RecordFound(res.Address, res.Attempts, res.Elapsed)
	rec := logsink.FoundRecord{
		RunID:    opt.RunID,
		Scheme:   opt.Scheme.Name(),
		Prefix:   prefix.String(),
		Address:  res.Address,
		File:     res.Path,
		Worker:   res.Worker,
		Attempts: res.Attempts,
		Elapsed:  humanDuration(res.Elapsed),
		At:       time.Now().UTC(),
	}
	if err := logsink.WriteFound(opt.OutDir, rec); err != nil {
		// the savedata is already durable; the audit line is best effort
		app.Warnw("found record append failed", "err", err)
	}
	app.Infow("stopped",
		"elapsed", humanDuration(elapsed),
		"attempts", total,
	)
	return res, nil
}

// Validate checks the request without starting anything.
func (opt Options) Validate() error {
	_, err := opt.validate()
	return err
}

func (opt Options) validate() (patterns.Prefix, error) {
	if opt.Scheme == nil {
		return patterns.Prefix{}, &ConfigError{Field: "scheme", Err: ErrNoScheme}
	}
	prefix, err := patterns.NewPrefix(opt.Prefix, opt.Scheme.AddressSize()*2)
	if err != nil {
		return patterns.Prefix{}, &ConfigError{Field: "prefix", Err: err}
	}
	// 0 selects one worker per logical CPU
	if opt.Workers < 0 {
		return patterns.Prefix{}, &ConfigError{Field: "workers", Err: ErrWorkers}
	}
	return prefix, nil
}

// =============================== WORKER ===============================

func (s *search) worker(ctx context.Context, id int, gen crypto.Generator) {
	meter := NewMeter(s.reportEvery, s.now)
	buf := make([]byte, s.scheme.AddressSize()*2)
	var attempts uint64
	defer func() { s.attempts[id] = attempts }()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if s.term.done() {
			return
		}

		ident, err := gen.Generate()
		if err == nil && len(ident.Address()) != s.scheme.AddressSize() {
			err = fmt.Errorf("%w: got %d bytes, want %d", ErrAddressSize, len(ident.Address()), s.scheme.AddressSize())
		}
		if err != nil {
			failures++
			if failures == 1 {
				logx.S().Debugw("generate failed", "worker", id, "err", err)
			}
			if failures%FailureWarnEvery == 0 {
				logx.S().Warnw("generate keeps failing", "worker", id, "failures", failures, "err", err)
				time.Sleep(failureBackoff)
			}
			continue
		}
		failures = 0
		attempts++

		if s.term.done() {
			return
		}

		enc := crypto.EncodeAddress(buf, ident.Address())
		if s.prefix.Match(enc) {
			if s.term.claim() {
				s.persist(id, string(enc), ident)
			}
			return
		}

		if rate, ok := meter.Tick(); ok {
			logx.S().Infow("addresses per second", "worker", id, "rate", fmt.Sprintf("%.0f", rate))
			s.recorder.RecordRate(id, rate)
		}
	}
}

// persist runs in the claiming worker only.
func (s *search) persist(id int, address string, ident crypto.Identity) {
	w := &winner{address: address, worker: id, elapsed: time.Since(s.start)}
	s.won = w

	blob, err := ident.Savedata()
	if err != nil {
		w.err = fmt.Errorf("serialize savedata: %w", err)
		return
	}
	w.path, w.err = s.sink.Persist(address, blob)
	if w.err != nil {
		return
	}
	logx.S().Infow("FOUND",
		"address", address,
		"worker", id,
		"elapsed", humanDuration(w.elapsed),
		"file", w.path,
	)
}

// ------------------------------- helpers ------------------------------------

// expectedAttempts is the mean number of candidates for n hex characters.
func expectedAttempts(n int) float64 {
	e := 1.0
	for i := 0; i < n; i++ {
		e *= 16
	}
	return e
}

func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
}
