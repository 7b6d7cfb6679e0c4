package storage

import (
	"context"

	"market-sim-lab/internal/domain"
)

// TickStore provides access to market tick storage.
type TickStore interface {
	// InsertBulk appends ticks. Ticks are facts; duplicates are kept.
	InsertBulk(ctx context.Context, records []domain.Record) error

	// GetByTimeRange retrieves ticks within [start, end] (inclusive), ordered by
	// (timestamp ASC, symbol ASC). An empty symbol matches every symbol.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]domain.Record, error)
}

// RunStore provides access to simulation run summaries.
type RunStore interface {
	// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunSummary) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunSummary, error)

	// List returns all runs ordered by started_at ASC, run_id ASC.
	List(ctx context.Context) ([]*domain.RunSummary, error)
}

// OrderStore provides access to the order audit trail of a run.
type OrderStore interface {
	// InsertBulk adds final order states atomically. Fails entire batch if any
	// (run_id, order_id) exists.
	InsertBulk(ctx context.Context, runID string, orders []domain.Order) error

	// GetByRunID retrieves all orders of a run ordered by order_id ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.Order, error)
}

// TradeStore provides access to fills of a run.
type TradeStore interface {
	// InsertBulk adds trades atomically. Fails entire batch on any duplicate trade_id.
	InsertBulk(ctx context.Context, runID string, trades []domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetByRunID retrieves all trades of a run ordered by (timestamp ASC, order_id ASC).
	GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error)
}

// EquityStore provides access to equity curves.
type EquityStore interface {
	// InsertBulk appends equity points of a run. Fails entire batch if any (run_id, seq) exists.
	InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error

	// GetByRunID retrieves the equity curve of a run ordered by seq ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error)
}

// BookCache holds the latest top-of-book quote per symbol.
type BookCache interface {
	// SetQuote overwrites the quote for q.Symbol.
	SetQuote(ctx context.Context, q domain.Quote) error

	// GetQuote returns the cached quote. Returns ErrNotFound if not cached.
	GetQuote(ctx context.Context, symbol string) (domain.Quote, error)
}
