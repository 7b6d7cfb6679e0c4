package memory

import (
	"context"
	"sort"
	"sync"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// OrderStore is an in-memory implementation of storage.OrderStore.
type OrderStore struct {
	mu   sync.RWMutex
	data map[string]map[uint64]domain.Order // run_id -> order_id -> order
}

// NewOrderStore creates a new in-memory order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		data: make(map[string]map[uint64]domain.Order),
	}
}

// InsertBulk adds orders atomically. Fails entire batch on any duplicate.
func (s *OrderStore) InsertBulk(_ context.Context, runID string, orders []domain.Order) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(orders) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]
	batchKeys := make(map[uint64]struct{}, len(orders))
	for _, o := range orders {
		if _, exists := existing[o.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[o.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[o.ID] = struct{}{}
	}

	if existing == nil {
		existing = make(map[uint64]domain.Order, len(orders))
		s.data[runID] = existing
	}
	for _, o := range orders {
		existing[o.ID] = o
	}
	return nil
}

// GetByRunID retrieves all orders of a run ordered by order_id ASC.
func (s *OrderStore) GetByRunID(_ context.Context, runID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.data[runID]))
	for _, o := range s.data[runID] {
		result = append(result, o)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ storage.OrderStore = (*OrderStore)(nil)
