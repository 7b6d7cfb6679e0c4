package memory

import (
	"context"
	"sort"
	"sync"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

type storedTrade struct {
	runID string
	trade domain.Trade
}

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]storedTrade // keyed by trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]storedTrade),
	}
}

// InsertBulk adds trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, runID string, trades []domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(trades))

	for _, t := range trades {
		if t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TradeID] = struct{}{}
	}

	for _, t := range trades {
		s.data[t.TradeID] = storedTrade{runID: runID, trade: t}
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, tradeID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	t := st.trade
	return &t, nil
}

// GetByRunID retrieves all trades of a run ordered by (timestamp, order_id).
func (s *TradeStore) GetByRunID(_ context.Context, runID string) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Trade
	for _, st := range s.data {
		if st.runID == runID {
			result = append(result, st.trade)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].OrderID < result[j].OrderID
	})
	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
