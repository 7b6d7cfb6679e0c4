package strategy

import (
	"context"
	"fmt"
	"time"

	"market-sim-lab/internal/backtest"
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
)

// TimeExitStrategy exits after a fixed hold duration.
type TimeExitStrategy struct {
	base
	HoldDuration time.Duration
}

// NewTimeExitStrategy creates a new TimeExitStrategy.
func NewTimeExitStrategy(entry Entry, hold time.Duration) *TimeExitStrategy {
	s := &TimeExitStrategy{HoldDuration: hold}
	s.base = newBase(entry, func(h *holding, rec domain.Record, _ float64) (string, bool) {
		return ExitReasonTimeExit, held(h, rec.Timestamp) >= s.HoldDuration.Nanoseconds()
	})
	return s
}

// Name returns the strategy identifier including parameters.
func (s *TimeExitStrategy) Name() string {
	return fmt.Sprintf("%s_%s", TypeTimeExit, s.HoldDuration)
}

// OnRecord enters once and exits when the hold duration has elapsed.
func (s *TimeExitStrategy) OnRecord(ctx context.Context, rec domain.Record, view backtest.View) ([]execution.OrderRequest, error) {
	return s.onRecord(ctx, rec, view)
}

// Ensure TimeExitStrategy implements backtest.Strategy
var _ backtest.Strategy = (*TimeExitStrategy)(nil)
