package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// OrderStore implements storage.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *Pool
}

// NewOrderStore creates a new OrderStore.
func NewOrderStore(pool *Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

var _ storage.OrderStore = (*OrderStore)(nil)

// InsertBulk adds final order states in one transaction. Fails entire batch on
// any duplicate (run_id, order_id).
func (s *OrderStore) InsertBulk(ctx context.Context, runID string, orders []domain.Order) error {
	query := `
		INSERT INTO sim_orders (
			run_id, order_id, symbol, side, quantity, limit_price,
			submitted_at, latency_ns, filled_quantity, status, cancel_reason, closed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	return s.pool.insertBatch(ctx, "orders", len(orders), func(b *pgx.Batch, i int) {
		o := orders[i]
		b.Queue(query,
			runID, int64(o.ID), o.Symbol, string(o.Side), o.Quantity, o.LimitPrice,
			o.SubmittedAt, o.Latency, o.FilledQuantity, string(o.Status), string(o.CancelReason), o.ClosedAt,
		)
	})
}

// GetByRunID retrieves all orders of a run ordered by order_id ASC.
func (s *OrderStore) GetByRunID(ctx context.Context, runID string) ([]domain.Order, error) {
	query := `
		SELECT order_id, symbol, side, quantity, limit_price,
			submitted_at, latency_ns, filled_quantity, status, cancel_reason, closed_at
		FROM sim_orders
		WHERE run_id = $1
		ORDER BY order_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var (
			o                    domain.Order
			id                   int64
			side, status, reason string
		)
		err := rows.Scan(
			&id, &o.Symbol, &side, &o.Quantity, &o.LimitPrice,
			&o.SubmittedAt, &o.Latency, &o.FilledQuantity, &status, &reason, &o.ClosedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.ID = uint64(id)
		o.Side = domain.Side(side)
		o.Status = domain.OrderStatus(status)
		o.CancelReason = domain.CancelReason(reason)
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return result, nil
}
