package backtest

import (
	"context"

	"market-sim-lab/internal/execution"
	"market-sim-lab/internal/replay"
)

// Runner executes a backtest: every record goes through the extra engines,
// then the simulator, then the strategy.
type Runner struct {
	sim  *execution.Simulator
	opts replay.Options

	concurrent bool
	buffer     int
}

// NewRunner creates a backtest runner. opts.Engines run before the simulator.
func NewRunner(sim *execution.Simulator, opts replay.Options) *Runner {
	return &Runner{sim: sim, opts: opts}
}

// WithPipeline makes Run use a producer/consumer pipeline with the given
// channel capacity instead of replaying on the calling goroutine.
func (r *Runner) WithPipeline(buffer int) *Runner {
	r.concurrent = true
	r.buffer = buffer
	return r
}

// Run replays the driver through strategy and returns its results.
// A nil strategy replays through the simulator only.
func (r *Runner) Run(ctx context.Context, strategy Strategy) (*Results, replay.Stats, error) {
	opts := r.opts
	opts.Engines = append(append([]replay.Engine{}, r.opts.Engines...), r.sim)

	var engine *Engine
	if strategy != nil {
		engine = NewEngine(strategy, r.sim, r.opts.Logger)
		opts.Engines = append(opts.Engines, engine)
	}

	var (
		stats replay.Stats
		err   error
	)
	if r.concurrent {
		stats, err = replay.NewPipeline(opts, r.buffer).Run(ctx)
	} else {
		stats, err = replay.NewRunner(opts).Run(ctx)
	}
	if err != nil {
		return nil, stats, err
	}

	if engine == nil {
		return &Results{RecordCount: stats.Records, Submitted: make([]uint64, 0)}, stats, nil
	}
	return engine.Results(), stats, nil
}
