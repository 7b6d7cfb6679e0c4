package replay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"market-sim-lab/internal/domain"
)

// Options wires the stages of a replay.
type Options struct {
	Driver    *Driver          // required
	Scenarios Transformer      // optional, applied before the engines
	Engines   []Engine         // called in order for every record
	Inbox     Drainer          // optional, drained before each record
	Emulator  *LatencyEmulator // optional, delays each record in wall time
	Logger    *zap.Logger
}

// Stats summarizes a finished replay.
type Stats struct {
	Records  int
	Commands int
	FirstTs  int64
	LastTs   int64
}

func (s *Stats) observe(rec domain.Record) {
	if s.Records == 0 {
		s.FirstTs = rec.Timestamp
	}
	s.LastTs = rec.Timestamp
	s.Records++
}

// Runner replays records through scenarios and engines on the calling goroutine.
type Runner struct {
	opts Options
}

// NewRunner creates a cooperative runner.
func NewRunner(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{opts: opts}
}

// Run replays until the source is exhausted, ctx is cancelled or a stage fails.
// Scenario and engine errors abort the replay and carry the failing record's timestamp.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if r.opts.Driver == nil {
		return stats, ErrNoDriver
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec, err := r.opts.Driver.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read record %d: %w", stats.Records, err)
		}

		if r.opts.Inbox != nil {
			stats.Commands += r.opts.Inbox.Drain()
		}

		rec, err = transform(r.opts.Scenarios, rec)
		if err != nil {
			return stats, err
		}

		if err := process(ctx, r.opts, rec); err != nil {
			return stats, err
		}
		stats.observe(rec)
	}

	// Commands queued after the last record still get an answer.
	if r.opts.Inbox != nil {
		stats.Commands += r.opts.Inbox.Drain()
	}

	r.opts.Logger.Info("replay finished",
		zap.Int("records", stats.Records),
		zap.Int("commands", stats.Commands),
		zap.Int64("first_ts", stats.FirstTs),
		zap.Int64("last_ts", stats.LastTs),
	)
	return stats, nil
}

func transform(t Transformer, rec domain.Record) (domain.Record, error) {
	if t == nil {
		return rec, nil
	}
	out, err := t.ApplyAll(rec)
	if err != nil {
		return rec, fmt.Errorf("apply scenarios at %d: %w", rec.Timestamp, err)
	}
	return out, nil
}

func process(ctx context.Context, opts Options, rec domain.Record) error {
	if opts.Emulator != nil {
		if err := opts.Emulator.Wait(ctx); err != nil {
			return err
		}
	}
	for _, e := range opts.Engines {
		if err := e.OnRecord(ctx, rec); err != nil {
			return fmt.Errorf("process record at %d: %w", rec.Timestamp, err)
		}
	}
	return nil
}
