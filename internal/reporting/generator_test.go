package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage/memory"
)

func setupRuns(t *testing.T) (*memory.RunStore, *memory.TradeStore) {
	t.Helper()
	ctx := context.Background()

	runStore := memory.NewRunStore()
	tradeStore := memory.NewTradeStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	runs := []*domain.RunSummary{
		{RunID: "r3", Strategy: "threshold", Profile: domain.ProfileDegraded, StartedAt: base, RealizedPnL: 20, TotalTrades: 2},
		{RunID: "r1", Strategy: "threshold", Profile: domain.ProfileRealistic, StartedAt: base, RealizedPnL: 100, TotalTrades: 4,
			Wins: 3, Losses: 1, WinRate: 0.75, ProfitFactor: 3},
		{RunID: "r2", Strategy: "threshold", Profile: domain.ProfileRealistic, StartedAt: base, RealizedPnL: 60, TotalTrades: 2},
		{RunID: "r4", Strategy: "other", Profile: domain.ProfileDegraded, StartedAt: base, RealizedPnL: -5},
	}
	for _, r := range runs {
		if err := runStore.Insert(ctx, r); err != nil {
			t.Fatalf("Insert run failed: %v", err)
		}
	}

	trades := []domain.Trade{{TradeID: "a", OrderID: 1}, {TradeID: "b", OrderID: 2}}
	if err := tradeStore.InsertBulk(ctx, "r1", trades); err != nil {
		t.Fatalf("Insert trades failed: %v", err)
	}
	return runStore, tradeStore
}

func fixedClock() time.Time {
	return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
}

func TestGenerator_Generate(t *testing.T) {
	runStore, tradeStore := setupRuns(t)
	g := NewGenerator(runStore, tradeStore).WithClock(fixedClock)

	c, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !c.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("GeneratedAt = %v", c.GeneratedAt)
	}

	var ids []string
	for _, r := range c.Runs {
		ids = append(ids, r.RunID)
	}
	if strings.Join(ids, ",") != "r4,r3,r1,r2" {
		t.Errorf("unexpected run order %v", ids)
	}

	if len(c.ProfileSensitivity) != 1 {
		t.Fatalf("expected 1 sensitivity row, got %d", len(c.ProfileSensitivity))
	}
	s := c.ProfileSensitivity[0]
	if s.Strategy != "threshold" || s.RealisticPnL != 80 || s.DegradedPnL != 20 {
		t.Errorf("unexpected sensitivity row %+v", s)
	}
	if s.DegradationPct != 75 {
		t.Errorf("DegradationPct = %f, want 75", s.DegradationPct)
	}
}

func TestGenerator_Run(t *testing.T) {
	runStore, tradeStore := setupRuns(t)
	g := NewGenerator(runStore, tradeStore).WithClock(fixedClock)

	rep, err := g.Run(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Metrics.Fills != 2 || rep.Metrics.NoData {
		t.Errorf("unexpected fills %d / NoData %v", rep.Metrics.Fills, rep.Metrics.NoData)
	}
	if rep.Metrics.ProfitFactor.Value != 3 || rep.Metrics.WinRate != 0.75 {
		t.Errorf("unexpected metrics %+v", rep.Metrics)
	}

	if _, err := g.Run(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing run")
	}
}
