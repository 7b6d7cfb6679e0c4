// Package verification replays stored simulation runs and reports every
// field where the replay diverges from what was persisted.
package verification

import (
	"context"
	"math"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/simulation"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name, prefixed with the trade index for trades
	Expected any    // stored value
	Actual   any    // replayed value
}

// RunVerification contains the result of verifying a single run.
type RunVerification struct {
	RunID          string
	Match          bool // true if the summary and every trade match
	StoredTrades   int
	ReplayedTrades int
	Divergences    []FieldDivergence
}

// Verifier checks that a persisted run is reproduced by replaying it.
type Verifier interface {
	// VerifyRun reloads run runID, replays it with cfg and compares the
	// summary and every fill.
	VerifyRun(ctx context.Context, runID string, cfg simulation.RunConfig) (*RunVerification, error)
}

type diff struct {
	out    []FieldDivergence
	prefix string
}

func (d *diff) eq(field string, expected, actual any) {
	if expected != actual {
		d.out = append(d.out, FieldDivergence{Field: d.prefix + field, Expected: expected, Actual: actual})
	}
}

func (d *diff) float(field string, expected, actual float64) {
	if !floatEquals(expected, actual) {
		d.out = append(d.out, FieldDivergence{Field: d.prefix + field, Expected: expected, Actual: actual})
	}
}

// CompareSummaries compares two run summaries and returns divergences.
// StartedAt is wall-clock metadata and is not compared.
func CompareSummaries(stored, replayed *domain.RunSummary) []FieldDivergence {
	d := &diff{}

	d.eq("RunID", stored.RunID, replayed.RunID)
	d.eq("Profile", stored.Profile, replayed.Profile)
	d.eq("Scenario", stored.Scenario, replayed.Scenario)
	d.eq("Strategy", stored.Strategy, replayed.Strategy)

	// Replayed range
	d.eq("FromTs", stored.FromTs, replayed.FromTs)
	d.eq("ToTs", stored.ToTs, replayed.ToTs)
	d.eq("TickCount", stored.TickCount, replayed.TickCount)

	// Outcome
	d.float("InitialBalance", stored.InitialBalance, replayed.InitialBalance)
	d.float("FinalBalance", stored.FinalBalance, replayed.FinalBalance)
	d.eq("TotalTrades", stored.TotalTrades, replayed.TotalTrades)
	d.eq("Wins", stored.Wins, replayed.Wins)
	d.eq("Losses", stored.Losses, replayed.Losses)
	d.float("WinRate", stored.WinRate, replayed.WinRate)
	d.float("LossRate", stored.LossRate, replayed.LossRate)
	d.float("ProfitFactor", stored.ProfitFactor, replayed.ProfitFactor)
	d.eq("ProfitFactorInfinite", stored.ProfitFactorInfinite, replayed.ProfitFactorInfinite)
	d.float("RealizedPnL", stored.RealizedPnL, replayed.RealizedPnL)
	d.float("Commission", stored.Commission, replayed.Commission)
	d.float("MaxDrawdown", stored.MaxDrawdown, replayed.MaxDrawdown)

	return d.out
}

// CompareTrades compares two fills and returns divergences.
// TradeID must match exactly since it is derived from run, order and fill time.
func CompareTrades(stored, replayed domain.Trade) []FieldDivergence {
	return compareTrades("", stored, replayed)
}

func compareTrades(prefix string, stored, replayed domain.Trade) []FieldDivergence {
	d := &diff{prefix: prefix}

	d.eq("TradeID", stored.TradeID, replayed.TradeID)
	d.eq("OrderID", stored.OrderID, replayed.OrderID)
	d.eq("Symbol", stored.Symbol, replayed.Symbol)
	d.eq("Side", stored.Side, replayed.Side)
	d.float("Quantity", stored.Quantity, replayed.Quantity)
	d.float("Price", stored.Price, replayed.Price)
	d.float("TickPrice", stored.TickPrice, replayed.TickPrice)
	d.eq("Timestamp", stored.Timestamp, replayed.Timestamp)

	return d.out
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
