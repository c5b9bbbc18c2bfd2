package generator

import "time"

// Meter counts one worker's generations and turns them into a rate once
// per interval. It is not safe for concurrent use; every worker owns one.
type Meter struct {
	every time.Duration
	now   func() time.Time
	since time.Time
	count uint64
}

func NewMeter(every time.Duration, now func() time.Time) *Meter {
	if now == nil {
		now = time.Now
	}
	return &Meter{every: every, now: now, since: now()}
}

// Tick records one generation. At an interval boundary it returns the
// rate since the previous boundary and resets the counter.
func (m *Meter) Tick() (rate float64, ok bool) {
	m.count++
	t := m.now()
	elapsed := t.Sub(m.since)
	if elapsed < m.every || elapsed <= 0 {
		return 0, false
	}
	rate = float64(m.count) / elapsed.Seconds()
	m.count = 0
	m.since = t
	return rate, true
}

// Count is the number of generations since the last boundary.
func (m *Meter) Count() uint64 { return m.count }
