package reporting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/metrics"
	"market-sim-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore   storage.RunStore
	tradeStore storage.TradeStore
	now        func() time.Time // injectable for deterministic output
}

// NewGenerator creates a report generator. tradeStore may be nil.
func NewGenerator(runStore storage.RunStore, tradeStore storage.TradeStore) *Generator {
	return &Generator{
		runStore:   runStore,
		tradeStore: tradeStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the comparison over every stored run.
func (g *Generator) Generate(ctx context.Context) (*Comparison, error) {
	runs, err := g.runStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	rows := make([]RunRow, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, rowFromSummary(r))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Strategy != rows[j].Strategy {
			return rows[i].Strategy < rows[j].Strategy
		}
		if rows[i].Profile != rows[j].Profile {
			return rows[i].Profile < rows[j].Profile
		}
		return rows[i].RunID < rows[j].RunID
	})

	return &Comparison{
		GeneratedAt:        g.now(),
		Runs:               rows,
		ProfileSensitivity: profileSensitivity(rows),
	}, nil
}

// Run loads one stored run. Fill counts come from the trade store when set.
func (g *Generator) Run(ctx context.Context, runID string) (*RunReport, error) {
	s, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	rep := &RunReport{
		RunID:       s.RunID,
		Profile:     s.Profile,
		Scenario:    s.Scenario,
		Strategy:    s.Strategy,
		GeneratedAt: g.now(),
		FromTs:      s.FromTs,
		ToTs:        s.ToTs,
		Ticks:       s.TickCount,
		Metrics:     MetricsFromSummary(s),
	}

	if g.tradeStore != nil {
		trades, err := g.tradeStore.GetByRunID(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("get trades of %s: %w", runID, err)
		}
		rep.Metrics.Fills = len(trades)
		rep.Metrics.NoData = len(trades) == 0
	}
	return rep, nil
}

// MetricsFromSummary rebuilds the persisted subset of a report.
func MetricsFromSummary(s *domain.RunSummary) metrics.Report {
	return metrics.Report{
		NoData:         s.TotalTrades == 0,
		InitialBalance: s.InitialBalance,
		FinalBalance:   s.FinalBalance,
		TotalTrades:    s.TotalTrades,
		Wins:           s.Wins,
		Losses:         s.Losses,
		WinRate:        s.WinRate,
		LossRate:       s.LossRate,
		ProfitFactor:   metrics.ProfitFactor{Value: s.ProfitFactor, Infinite: s.ProfitFactorInfinite},
		RealizedPnL:    s.RealizedPnL,
		Commission:     s.Commission,
		MaxDrawdown:    s.MaxDrawdown,
	}
}

func rowFromSummary(s *domain.RunSummary) RunRow {
	return RunRow{
		RunID:        s.RunID,
		Strategy:     s.Strategy,
		Profile:      s.Profile,
		Scenario:     s.Scenario,
		Ticks:        s.TickCount,
		TotalTrades:  s.TotalTrades,
		WinRate:      s.WinRate,
		ProfitFactor: metrics.ProfitFactor{Value: s.ProfitFactor, Infinite: s.ProfitFactorInfinite},
		RealizedPnL:  s.RealizedPnL,
		FinalBalance: s.FinalBalance,
		MaxDrawdown:  s.MaxDrawdown,
	}
}

// profileSensitivity averages realized PnL per (strategy, scenario, profile).
// Pairs without a realistic run are skipped.
func profileSensitivity(rows []RunRow) []ProfileSensitivityRow {
	type key struct{ strategy, scenario string }
	type acc struct {
		sum   map[string]float64
		count map[string]int
	}

	groups := make(map[key]*acc)
	for _, r := range rows {
		k := key{r.Strategy, r.Scenario}
		a, ok := groups[k]
		if !ok {
			a = &acc{sum: make(map[string]float64), count: make(map[string]int)}
			groups[k] = a
		}
		a.sum[r.Profile] += r.RealizedPnL
		a.count[r.Profile]++
	}

	mean := func(a *acc, profile string) float64 {
		if a.count[profile] == 0 {
			return 0
		}
		return a.sum[profile] / float64(a.count[profile])
	}

	var out []ProfileSensitivityRow
	for k, a := range groups {
		if a.count[domain.ProfileRealistic] == 0 {
			continue
		}
		row := ProfileSensitivityRow{
			Strategy:       k.strategy,
			Scenario:       k.scenario,
			OptimisticPnL:  mean(a, domain.ProfileOptimistic),
			RealisticPnL:   mean(a, domain.ProfileRealistic),
			PessimisticPnL: mean(a, domain.ProfilePessimistic),
			DegradedPnL:    mean(a, domain.ProfileDegraded),
		}
		if row.RealisticPnL != 0 {
			row.DegradationPct = (row.RealisticPnL - row.DegradedPnL) / math.Abs(row.RealisticPnL) * 100
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Strategy != out[j].Strategy {
			return out[i].Strategy < out[j].Strategy
		}
		return out[i].Scenario < out[j].Scenario
	})
	return out
}
