package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds trades atomically. Fails entire batch on any duplicate trade_id.
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, trades []domain.Trade) error {
	query := `
		INSERT INTO sim_trades (
			trade_id, run_id, order_id, symbol, side, quantity, price, tick_price, ts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	return s.pool.insertBatch(ctx, "trades", len(trades), func(b *pgx.Batch, i int) {
		t := trades[i]
		b.Queue(query,
			t.TradeID, runID, int64(t.OrderID), t.Symbol, string(t.Side),
			t.Quantity, t.Price, t.TickPrice, t.Timestamp,
		)
	})
}

const tradeColumns = `trade_id, order_id, symbol, side, quantity, price, tick_price, ts`

// GetByID retrieves a trade by its ID.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM sim_trades WHERE trade_id = $1`

	t, err := scanTrade(s.pool.QueryRow(ctx, query, tradeID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade: %w", err)
	}
	return &t, nil
}

// GetByRunID retrieves all trades of a run ordered by (ts ASC, order_id ASC).
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM sim_trades WHERE run_id = $1 ORDER BY ts ASC, order_id ASC`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var result []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}

func scanTrade(row pgx.Row) (domain.Trade, error) {
	var (
		t       domain.Trade
		orderID int64
		side    string
	)
	err := row.Scan(&t.TradeID, &orderID, &t.Symbol, &side, &t.Quantity, &t.Price, &t.TickPrice, &t.Timestamp)
	if err != nil {
		return domain.Trade{}, err
	}
	t.OrderID = uint64(orderID)
	t.Side = domain.Side(side)
	return t, nil
}
