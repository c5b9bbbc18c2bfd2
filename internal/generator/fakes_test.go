package generator

import (
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ToxVanity/internal/crypto"
)

const fakeAddrSize = 4

func addr(h string) []byte {
	b, err := hex.DecodeString(h)
	if err != nil || len(b) != fakeAddrSize {
		panic("bad fake address " + h)
	}
	return b
}

type fakeIdentity struct{ addr []byte }

func (f fakeIdentity) Address() []byte           { return f.addr }
func (f fakeIdentity) Savedata() ([]byte, error) { return []byte("save:" + hex.EncodeToString(f.addr)), nil }
func (f fakeIdentity) Secret() string            { return "" }

// seqScheme hands out seq in call order across all workers, then filler
// forever. Calls made after index holdAfter block until hold is closed.
type seqScheme struct {
	seq    [][]byte
	filler []byte

	holdAfter int
	hold      chan struct{}

	// failFirst makes the first n Generate calls fail.
	failFirst int
	// badWorkers cannot be created.
	badWorkers map[int]bool
	// barrier, if set, makes every worker's first call wait for the others.
	barrier *sync.WaitGroup

	mu      sync.Mutex
	calls   int
	created atomic.Int32
}

func (s *seqScheme) Name() string                   { return "fake" }
func (s *seqScheme) AddressSize() int               { return fakeAddrSize }
func (s *seqScheme) FileName(address string) string { return "vanity_" + address + ".dat" }

func (s *seqScheme) Load([]byte) (crypto.Identity, error) {
	return nil, errors.New("not supported")
}

func (s *seqScheme) NewGenerator(worker int) (crypto.Generator, error) {
	if s.badWorkers[worker] {
		return nil, errors.New("no buffers")
	}
	s.created.Add(1)
	return &seqGenerator{s: s}, nil
}

func (s *seqScheme) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type seqGenerator struct {
	s     *seqScheme
	first bool
}

func (g *seqGenerator) Generate() (crypto.Identity, error) {
	s := g.s
	if s.barrier != nil && !g.first {
		g.first = true
		s.barrier.Done()
		s.barrier.Wait()
	}

	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()

	if s.hold != nil && idx > s.holdAfter {
		<-s.hold
	}
	if idx < s.failFirst {
		return nil, errors.New("entropy exhausted")
	}
	idx -= s.failFirst
	if idx < len(s.seq) {
		return fakeIdentity{addr: s.seq[idx]}, nil
	}
	return fakeIdentity{addr: s.filler}, nil
}

// hookSink wraps another sink and calls after once a result was written.
type hookSink struct {
	inner Sink
	after func()
	err   error

	once  sync.Once
	calls atomic.Int32
}

func (h *hookSink) Persist(address string, savedata []byte) (string, error) {
	h.calls.Add(1)
	if h.err != nil {
		return "", h.err
	}
	path, err := h.inner.Persist(address, savedata)
	if h.after != nil {
		h.once.Do(h.after)
	}
	return path, err
}

type fakeRecorder struct {
	mu     sync.Mutex
	rates  []float64
	founds []string
}

func (r *fakeRecorder) RecordRate(_ int, rate float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates = append(r.rates, rate)
}

func (r *fakeRecorder) RecordFound(address string, _ uint64, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.founds = append(r.founds, address)
}

func (r *fakeRecorder) Close() {}

// stepClock advances by step on every call.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}
