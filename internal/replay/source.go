package replay

import (
	"context"
	"io"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// Source yields market records one at a time.
// Next returns io.EOF when the source is exhausted.
type Source interface {
	Next(ctx context.Context) (domain.Record, error)
}

// Rewinder is implemented by sources that can restart from the beginning.
type Rewinder interface {
	Rewind() error
}

// SliceSource replays an in-memory slice of records.
type SliceSource struct {
	records []domain.Record
	pos     int
}

// NewSliceSource creates a source over records. The slice is copied.
func NewSliceSource(records []domain.Record) *SliceSource {
	cp := make([]domain.Record, len(records))
	for i, r := range records {
		cp[i] = r.Clone()
	}
	return &SliceSource{records: cp}
}

// Next returns the next record or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}
	if s.pos >= len(s.records) {
		return domain.Record{}, io.EOF
	}
	r := s.records[s.pos].Clone()
	s.pos++
	return r, nil
}

// Rewind restarts the source from the first record.
func (s *SliceSource) Rewind() error {
	s.pos = 0
	return nil
}

// Len returns the number of records in the source.
func (s *SliceSource) Len() int {
	return len(s.records)
}

// LoadSource loads ticks for symbol within [from, to] from store and returns
// them as a source in (timestamp, symbol) order. An empty symbol loads all symbols.
func LoadSource(ctx context.Context, store storage.TickStore, symbol string, from, to int64) (*SliceSource, error) {
	records, err := store.GetByTimeRange(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	SortRecords(records)
	return &SliceSource{records: records}, nil
}
