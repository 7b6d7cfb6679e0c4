package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"market-sim-lab/internal/domain"
)

// Driver pulls records from a source in timestamp order, optionally pacing
// them in wall time. It is not safe for concurrent use.
type Driver struct {
	source Source
	pacer  *Pacer

	started bool
	lastTs  int64
	count   int
}

// NewDriver creates a driver over source. pacer may be nil for fast mode.
func NewDriver(source Source, pacer *Pacer) *Driver {
	return &Driver{source: source, pacer: pacer}
}

// Next returns the next record, or io.EOF when the source is exhausted.
// A timestamp lower than the previous record's is ErrInvalidOrdering.
func (d *Driver) Next(ctx context.Context) (domain.Record, error) {
	rec, err := d.source.Next(ctx)
	if err != nil {
		return domain.Record{}, err
	}

	if d.started {
		if rec.Timestamp < d.lastTs {
			return domain.Record{}, fmt.Errorf("%w: %d after %d", ErrInvalidOrdering, rec.Timestamp, d.lastTs)
		}
		if err := d.pacer.Wait(ctx, d.lastTs, rec.Timestamp); err != nil {
			return domain.Record{}, err
		}
	}

	d.started = true
	d.lastTs = rec.Timestamp
	d.count++
	return rec, nil
}

// Records returns a lazy sequence over the remaining records. Iteration stops
// at the end of the source; any other error is yielded once as the last element.
func (d *Driver) Records(ctx context.Context) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		for {
			rec, err := d.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(domain.Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Reset rewinds the source so the same records can be replayed again.
func (d *Driver) Reset() error {
	r, ok := d.source.(Rewinder)
	if !ok {
		return ErrNotRestartable
	}
	if err := r.Rewind(); err != nil {
		return err
	}
	d.started = false
	d.lastTs = 0
	d.count = 0
	return nil
}

// Count returns how many records have been delivered since the last reset.
func (d *Driver) Count() int {
	return d.count
}
