package strategy

import (
	"context"
	"fmt"
	"time"

	"market-sim-lab/internal/backtest"
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
)

// TrailingStopStrategy exits when price drops from its peak since entry.
type TrailingStopStrategy struct {
	base
	TrailPct       float64 // trailing stop percentage (e.g., 0.10 = 10%)
	InitialStopPct float64 // initial stop loss percentage below the entry price
	MaxHold        time.Duration
}

// NewTrailingStopStrategy creates a new TrailingStopStrategy.
//
// Exit checks run in order on every record after entry:
//   - price <= entry_price * (1 - initial_stop_pct): INITIAL_STOP
//   - price <= peak_price * (1 - trail_pct): TRAILING_STOP
//   - held >= max_hold: MAX_DURATION
func NewTrailingStopStrategy(entry Entry, trailPct, initialStopPct float64, maxHold time.Duration) *TrailingStopStrategy {
	s := &TrailingStopStrategy{
		TrailPct:       trailPct,
		InitialStopPct: initialStopPct,
		MaxHold:        maxHold,
	}
	s.base = newBase(entry, s.exit)
	return s
}

func (s *TrailingStopStrategy) exit(h *holding, rec domain.Record, price float64) (string, bool) {
	if price <= h.entryPrice*(1-s.InitialStopPct) {
		return ExitReasonInitialStop, true
	}
	if price <= h.peak*(1-s.TrailPct) {
		return ExitReasonTrailingStop, true
	}
	if held(h, rec.Timestamp) >= s.MaxHold.Nanoseconds() {
		return ExitReasonMaxDuration, true
	}
	return "", false
}

// Name returns the strategy identifier including parameters.
func (s *TrailingStopStrategy) Name() string {
	return fmt.Sprintf("%s_trail%.0f_stop%.0f_%s",
		TypeTrailingStop,
		s.TrailPct*100,
		s.InitialStopPct*100,
		s.MaxHold)
}

// OnRecord enters once and exits on a stop or the max hold duration.
func (s *TrailingStopStrategy) OnRecord(ctx context.Context, rec domain.Record, view backtest.View) ([]execution.OrderRequest, error) {
	return s.onRecord(ctx, rec, view)
}

// Ensure TrailingStopStrategy implements backtest.Strategy
var _ backtest.Strategy = (*TrailingStopStrategy)(nil)
