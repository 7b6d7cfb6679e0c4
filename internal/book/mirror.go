package book

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"market-sim-lab/internal/domain"
)

// Sink receives top-of-book snapshots, e.g. a cache shared with other processes.
type Sink interface {
	SetQuote(ctx context.Context, q domain.Quote) error
}

// Mirror maintains the latest book state per symbol from replayed records.
type Mirror struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
	bids   map[string][]domain.Level
	asks   map[string][]domain.Level

	sink   Sink
	logger *zap.Logger
}

// NewMirror creates a mirror. sink may be nil.
func NewMirror(sink Sink, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		quotes: make(map[string]domain.Quote),
		bids:   make(map[string][]domain.Level),
		asks:   make(map[string][]domain.Level),
		sink:   sink,
		logger: logger,
	}
}

// Update folds rec into the book. Sides missing from rec keep their previous
// values. Sink failures are logged and do not fail the update.
func (m *Mirror) Update(ctx context.Context, rec domain.Record) {
	var bids, asks []domain.Level
	if len(rec.Bids) > 0 {
		bids = sortedLevels(rec.Bids, true)
	}
	if len(rec.Asks) > 0 {
		asks = sortedLevels(rec.Asks, false)
	}

	m.mu.Lock()
	q := m.quotes[rec.Symbol]
	q.Symbol = rec.Symbol
	q.Timestamp = rec.Timestamp

	switch {
	case rec.Bid > 0:
		q.Bid, q.BidSize = rec.Bid, rec.BidSize
	case len(bids) > 0:
		q.Bid, q.BidSize = bids[0].Price, bids[0].Size
	}
	switch {
	case rec.Ask > 0:
		q.Ask, q.AskSize = rec.Ask, rec.AskSize
	case len(asks) > 0:
		q.Ask, q.AskSize = asks[0].Price, asks[0].Size
	}
	if rec.Price > 0 {
		q.Last = rec.Price
	}
	if bids != nil {
		m.bids[rec.Symbol] = bids
	}
	if asks != nil {
		m.asks[rec.Symbol] = asks
	}
	m.quotes[rec.Symbol] = q
	m.mu.Unlock()

	if m.sink != nil {
		if err := m.sink.SetQuote(ctx, q); err != nil {
			m.logger.Warn("book sink update failed",
				zap.String("symbol", rec.Symbol),
				zap.Error(err),
			)
		}
	}
}

// OnRecord updates the mirror; it lets the mirror sit behind a replay runner.
func (m *Mirror) OnRecord(ctx context.Context, rec domain.Record) error {
	m.Update(ctx, rec)
	return nil
}

// Top returns the latest quote for symbol.
func (m *Mirror) Top(symbol string) (domain.Quote, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.quotes[symbol]
	return q, ok
}

// TickPrice returns the price rec fills against: its own trade price, else
// the mirrored mid, which keeps sides missing from rec. Records the mirror
// has not seen yet fall back to their own mid.
func (m *Mirror) TickPrice(rec domain.Record) float64 {
	if rec.Price != 0 {
		return rec.Price
	}

	m.mu.RLock()
	q := m.quotes[rec.Symbol]
	m.mu.RUnlock()

	if mid := q.Mid(); mid > 0 && q.Timestamp == rec.Timestamp {
		return mid
	}
	return rec.Mid()
}

// Depth returns copies of the latest bid and ask levels for symbol, best first.
func (m *Mirror) Depth(symbol string) (bids, asks []domain.Level) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]domain.Level(nil), m.bids[symbol]...),
		append([]domain.Level(nil), m.asks[symbol]...)
}

// Symbols returns every symbol seen, sorted.
func (m *Mirror) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.quotes))
	for s := range m.quotes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func sortedLevels(levels []domain.Level, descending bool) []domain.Level {
	out := append([]domain.Level(nil), levels...)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	return out
}
