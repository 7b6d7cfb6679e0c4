package memory

import (
	"context"
	"sort"
	"sync"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// EquityStore is an in-memory implementation of storage.EquityStore.
type EquityStore struct {
	mu   sync.RWMutex
	data map[string]map[int]domain.EquityPoint // run_id -> seq -> point
}

// NewEquityStore creates a new in-memory equity store.
func NewEquityStore() *EquityStore {
	return &EquityStore{
		data: make(map[string]map[int]domain.EquityPoint),
	}
}

// InsertBulk appends points atomically. Fails entire batch on any duplicate seq.
func (s *EquityStore) InsertBulk(_ context.Context, runID string, points []domain.EquityPoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]
	batchKeys := make(map[int]struct{}, len(points))
	for _, p := range points {
		if _, exists := existing[p.Seq]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.Seq]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.Seq] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int]domain.EquityPoint, len(points))
		s.data[runID] = existing
	}
	for _, p := range points {
		existing[p.Seq] = p
	}
	return nil
}

// GetByRunID retrieves the equity curve of a run ordered by seq.
func (s *EquityStore) GetByRunID(_ context.Context, runID string) ([]domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.EquityPoint, 0, len(s.data[runID]))
	for _, p := range s.data[runID] {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

var _ storage.EquityStore = (*EquityStore)(nil)
