package replay

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// LatencyEmulator delays the processing pipeline by base plus a uniform
// jitter. It only affects wall-clock timing, never simulation results.
type LatencyEmulator struct {
	base   time.Duration
	jitter time.Duration
	clock  Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLatencyEmulator creates an emulator. seed makes the jitter reproducible.
func NewLatencyEmulator(base, jitter time.Duration, clock Clock, seed uint64) *LatencyEmulator {
	if clock == nil {
		clock = RealClock{}
	}
	if base < 0 {
		base = 0
	}
	if jitter < 0 {
		jitter = 0
	}
	return &LatencyEmulator{
		base:   base,
		jitter: jitter,
		clock:  clock,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Delay draws the next delay in [base, base+jitter].
func (e *LatencyEmulator) Delay() time.Duration {
	if e.jitter == 0 {
		return e.base
	}
	e.mu.Lock()
	j := time.Duration(e.rng.Int64N(int64(e.jitter) + 1))
	e.mu.Unlock()
	return e.base + j
}

// Wait blocks for one drawn delay or until ctx is done.
func (e *LatencyEmulator) Wait(ctx context.Context) error {
	d := e.Delay()
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.clock.After(d):
		return nil
	}
}
