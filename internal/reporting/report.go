package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/metrics"
)

// RunReport is the rendered view of one simulation run.
type RunReport struct {
	RunID       string
	Profile     string
	Scenario    string
	Strategy    string
	GeneratedAt time.Time
	FromTs      int64 // ns
	ToTs        int64 // ns
	Ticks       int

	Metrics   metrics.Report
	Positions []domain.Position
	Closed    []domain.ClosedTrade
}

// Comparison summarizes every stored run.
type Comparison struct {
	GeneratedAt time.Time
	Runs        []RunRow

	// ProfileSensitivity compares realized PnL of a strategy across execution profiles.
	ProfileSensitivity []ProfileSensitivityRow
}

// RunRow is one line of the run table, sorted by (strategy, profile, run_id).
type RunRow struct {
	RunID        string
	Strategy     string
	Profile      string
	Scenario     string
	Ticks        int
	TotalTrades  int
	WinRate      float64
	ProfitFactor metrics.ProfitFactor
	RealizedPnL  float64
	FinalBalance float64
	MaxDrawdown  float64
}

// ProfileSensitivityRow compares one strategy/scenario pair across profiles.
// Means are averaged over all runs of that profile.
type ProfileSensitivityRow struct {
	Strategy       string
	Scenario       string
	OptimisticPnL  float64
	RealisticPnL   float64
	PessimisticPnL float64
	DegradedPnL    float64
	DegradationPct float64 // (realistic - degraded) / |realistic| * 100, 0 if realistic == 0
}

// money formats v with two fixed decimals.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// percent formats a [0,1] ratio as a percentage with two decimals.
func percent(v float64) string {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}
