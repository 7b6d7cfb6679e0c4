package backtest

import (
	"context"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
)

// StubStrategy never trades. It records what it was shown for verification.
type StubStrategy struct {
	records []domain.Record
	clocks  []int64
}

// NewStubStrategy creates a new stub strategy.
func NewStubStrategy() *StubStrategy {
	return &StubStrategy{records: make([]domain.Record, 0)}
}

// OnRecord collects rec and the simulator clock.
func (s *StubStrategy) OnRecord(_ context.Context, rec domain.Record, view View) ([]execution.OrderRequest, error) {
	s.records = append(s.records, rec)
	s.clocks = append(s.clocks, view.Now())
	return nil, nil
}

// Name returns the strategy identifier.
func (s *StubStrategy) Name() string {
	return "stub"
}

// Records returns collected records.
func (s *StubStrategy) Records() []domain.Record {
	return s.records
}

// Clocks returns the simulator clock observed at each record.
func (s *StubStrategy) Clocks() []int64 {
	return s.clocks
}

var _ Strategy = (*StubStrategy)(nil)
