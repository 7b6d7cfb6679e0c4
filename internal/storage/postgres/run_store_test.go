package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

func TestRunStore_InsertAndGet(t *testing.T) {
	pool := setupTestDB(t)

	store := NewRunStore(pool)
	ctx := context.Background()

	run := &domain.RunSummary{
		RunID:                "run-1",
		Profile:              domain.ProfileRealistic,
		Scenario:             "price_shock",
		Strategy:             "threshold",
		StartedAt:            time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FromTs:               1,
		ToTs:                 100,
		TickCount:            42,
		InitialBalance:       1000,
		FinalBalance:         1010.5,
		TotalTrades:          3,
		Wins:                 3,
		WinRate:              1,
		ProfitFactorInfinite: true,
		RealizedPnL:          12,
		Commission:           1.5,
		MaxDrawdown:          0.02,
	}

	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if *got != *run {
		t.Errorf("run mismatch:\n got %+v\nwant %+v", got, run)
	}

	if err := store.Insert(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRunStore_ListOrdering(t *testing.T) {
	pool := setupTestDB(t)

	store := NewRunStore(pool)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, r := range []*domain.RunSummary{
		{RunID: "b", Profile: "realistic", StartedAt: base},
		{RunID: "c", Profile: "realistic", StartedAt: base.Add(-time.Hour)},
		{RunID: "a", Profile: "realistic", StartedAt: base},
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.RunID, err)
		}
	}

	runs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.RunID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Errorf("unexpected order %v", ids)
	}
}
