package memory

import (
	"context"
	"errors"
	"testing"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []domain.Trade{
		{TradeID: "t2", OrderID: 2, Timestamp: 200, Price: 101},
		{TradeID: "t1", OrderID: 1, Timestamp: 100, Price: 100},
	}
	if err := store.InsertBulk(ctx, "run1", trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Price != 100 {
		t.Errorf("Price mismatch: got %f, want %f", got.Price, 100.0)
	}

	byRun, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatal(err)
	}
	if len(byRun) != 2 || byRun[0].TradeID != "t1" {
		t.Errorf("unexpected order %+v", byRun)
	}
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := domain.Trade{TradeID: "t1"}
	if err := store.InsertBulk(ctx, "run1", []domain.Trade{trade}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, "run1", []domain.Trade{trade})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	err = store.InsertBulk(ctx, "run1", []domain.Trade{{TradeID: "x"}, {TradeID: "x"}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
