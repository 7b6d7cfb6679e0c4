package replay

import (
	"context"

	"market-sim-lab/internal/domain"
)

// Engine consumes replayed records.
type Engine interface {
	// OnRecord is called for each record in timestamp order.
	// A returned error aborts the replay.
	OnRecord(ctx context.Context, rec domain.Record) error
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, rec domain.Record) error

// OnRecord calls f.
func (f EngineFunc) OnRecord(ctx context.Context, rec domain.Record) error {
	return f(ctx, rec)
}

// Transformer rewrites records before they reach the engines.
// *scenario.Engine satisfies it.
type Transformer interface {
	ApplyAll(rec domain.Record) (domain.Record, error)
}

// Drainer applies commands queued between ticks.
// *execution.Inbox satisfies it.
type Drainer interface {
	Drain() int
}
