package memory

import (
	"context"
	"sort"
	"sync"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// TickStore is an in-memory implementation of storage.TickStore.
type TickStore struct {
	mu   sync.RWMutex
	data []domain.Record
}

// NewTickStore creates a new in-memory tick store.
func NewTickStore() *TickStore {
	return &TickStore{}
}

// InsertBulk appends ticks.
func (s *TickStore) InsertBulk(_ context.Context, records []domain.Record) error {
	for _, r := range records {
		if r.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.data = append(s.data, r.Clone())
	}
	return nil
}

// GetByTimeRange retrieves ticks within [start, end] ordered by (timestamp, symbol).
// Ticks sharing both keys keep insertion order.
func (s *TickStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Record
	for _, r := range s.data {
		if symbol != "" && r.Symbol != symbol {
			continue
		}
		if r.Timestamp >= start && r.Timestamp <= end {
			result = append(result, r.Clone())
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].Symbol < result[j].Symbol
	})
	return result, nil
}

var _ storage.TickStore = (*TickStore)(nil)
