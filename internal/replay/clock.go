package replay

import (
	"context"
	"math"
	"time"
)

// Clock abstracts wall time so pacing and latency emulation can be tested
// without sleeping.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now() }

// Pacer spaces records in wall time proportionally to their timestamp gaps.
type Pacer struct {
	clock Clock
	speed float64
}

// NewPacer creates a pacer replaying at speed times real time.
// A speed of zero, a negative speed or +Inf disables pacing.
func NewPacer(clock Clock, speed float64) *Pacer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Pacer{clock: clock, speed: speed}
}

// Fast reports whether the pacer never waits.
func (p *Pacer) Fast() bool {
	return p == nil || p.speed <= 0 || math.IsInf(p.speed, 1) || math.IsNaN(p.speed)
}

// Delay returns the wall-clock wait between timestamps prev and next (ns).
func (p *Pacer) Delay(prev, next int64) time.Duration {
	if p.Fast() || next <= prev {
		return 0
	}
	d := float64(next-prev) / p.speed
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Wait blocks for the paced gap between prev and next or until ctx is done.
func (p *Pacer) Wait(ctx context.Context, prev, next int64) error {
	d := p.Delay(prev, next)
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(d):
		return nil
	}
}
