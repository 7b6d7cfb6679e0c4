package replay

import (
	"context"
	"sync"
	"time"

	"market-sim-lab/internal/domain"
)

// fakeClock fires every After immediately and records requested durations.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	waits  []time.Duration
	blocks bool
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	if !c.blocks {
		c.now = c.now.Add(d)
		ch <- c.now
	}
	return ch
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// collectingEngine records every record it sees.
type collectingEngine struct {
	mu      sync.Mutex
	records []domain.Record
}

func (e *collectingEngine) OnRecord(_ context.Context, rec domain.Record) error {
	e.mu.Lock()
	e.records = append(e.records, rec)
	e.mu.Unlock()
	return nil
}

func (e *collectingEngine) Timestamps() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int64, len(e.records))
	for i, r := range e.records {
		out[i] = r.Timestamp
	}
	return out
}

type countingDrainer struct {
	mu    sync.Mutex
	calls int
}

func (d *countingDrainer) Drain() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return 1
}

func ticks(ts ...int64) []domain.Record {
	out := make([]domain.Record, len(ts))
	for i, t := range ts {
		out[i] = domain.Record{Symbol: "AAPL", Timestamp: t, Price: 100 + float64(i)}
	}
	return out
}
