package clickhouse

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// TickStore implements storage.TickStore using ClickHouse.
// Depth levels are stored as parallel price/size arrays.
type TickStore struct {
	conn *Conn
	seq  atomic.Uint64
}

// NewTickStore creates a new TickStore.
func NewTickStore(conn *Conn) *TickStore {
	s := &TickStore{conn: conn}
	// seq orders ticks sharing (timestamp, symbol) by insertion
	s.seq.Store(uint64(time.Now().UnixNano()))
	return s
}

var _ storage.TickStore = (*TickStore)(nil)

// InsertBulk appends ticks in one batch.
func (s *TickStore) InsertBulk(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if r.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO market_ticks (
			symbol, timestamp_ns, seq, price, bid, ask, bid_size, ask_size,
			bid_prices, bid_sizes, ask_prices, ask_sizes
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	base := s.seq.Add(uint64(len(records))) - uint64(len(records))
	for i, r := range records {
		bidPrices, bidSizes := splitLevels(r.Bids)
		askPrices, askSizes := splitLevels(r.Asks)
		err = batch.Append(
			r.Symbol, r.Timestamp, base+uint64(i),
			r.Price, r.Bid, r.Ask, r.BidSize, r.AskSize,
			bidPrices, bidSizes, askPrices, askSizes,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves ticks within [start, end] ordered by (timestamp, symbol).
// An empty symbol matches every symbol.
func (s *TickStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]domain.Record, error) {
	query := `
		SELECT symbol, timestamp_ns, price, bid, ask, bid_size, ask_size,
			bid_prices, bid_sizes, ask_prices, ask_sizes
		FROM market_ticks
		WHERE (? = '' OR symbol = ?) AND timestamp_ns >= ? AND timestamp_ns <= ?
		ORDER BY timestamp_ns ASC, symbol ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	var result []domain.Record
	for rows.Next() {
		var (
			r                   domain.Record
			bidPrices, bidSizes []float64
			askPrices, askSizes []float64
		)
		err := rows.Scan(
			&r.Symbol, &r.Timestamp, &r.Price, &r.Bid, &r.Ask, &r.BidSize, &r.AskSize,
			&bidPrices, &bidSizes, &askPrices, &askSizes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		r.Bids = joinLevels(bidPrices, bidSizes)
		r.Asks = joinLevels(askPrices, askSizes)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}
	return result, nil
}

func splitLevels(levels []domain.Level) (prices, sizes []float64) {
	prices = make([]float64, len(levels))
	sizes = make([]float64, len(levels))
	for i, l := range levels {
		prices[i], sizes[i] = l.Price, l.Size
	}
	return prices, sizes
}

func joinLevels(prices, sizes []float64) []domain.Level {
	if len(prices) == 0 {
		return nil
	}
	n := min(len(prices), len(sizes))
	out := make([]domain.Level, n)
	for i := 0; i < n; i++ {
		out[i] = domain.Level{Price: prices[i], Size: sizes[i]}
	}
	return out
}
