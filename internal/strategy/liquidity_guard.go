package strategy

import (
	"context"
	"fmt"
	"time"

	"market-sim-lab/internal/backtest"
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
)

// LiquidityGuardStrategy exits when the displayed bid size drops below a
// fraction of its value at entry. Liquidity is the top-of-book bid size;
// records without one skip the liquidity check.
type LiquidityGuardStrategy struct {
	base
	LiquidityDropPct float64 // liquidity drop threshold (e.g., 0.30 = 30% drop)
	MaxHold          time.Duration
}

// NewLiquidityGuardStrategy creates a new LiquidityGuardStrategy.
// Entries only happen on records that quote a bid size.
func NewLiquidityGuardStrategy(entry Entry, liquidityDropPct float64, maxHold time.Duration) *LiquidityGuardStrategy {
	s := &LiquidityGuardStrategy{
		LiquidityDropPct: liquidityDropPct,
		MaxHold:          maxHold,
	}
	s.base = newBase(entry, s.exit)
	s.needsLiquidity = true
	return s
}

func (s *LiquidityGuardStrategy) exit(h *holding, rec domain.Record, _ float64) (string, bool) {
	if rec.BidSize > 0 && rec.BidSize <= h.entryLiquidity*(1-s.LiquidityDropPct) {
		return ExitReasonLiquidityDrop, true
	}
	if held(h, rec.Timestamp) >= s.MaxHold.Nanoseconds() {
		return ExitReasonMaxDuration, true
	}
	return "", false
}

// Name returns the strategy identifier including parameters.
func (s *LiquidityGuardStrategy) Name() string {
	return fmt.Sprintf("%s_drop%.0f_%s",
		TypeLiquidityGuard,
		s.LiquidityDropPct*100,
		s.MaxHold)
}

// OnRecord enters once and exits on a liquidity drop or the max hold duration.
func (s *LiquidityGuardStrategy) OnRecord(ctx context.Context, rec domain.Record, view backtest.View) ([]execution.OrderRequest, error) {
	return s.onRecord(ctx, rec, view)
}

// Ensure LiquidityGuardStrategy implements backtest.Strategy
var _ backtest.Strategy = (*LiquidityGuardStrategy)(nil)
