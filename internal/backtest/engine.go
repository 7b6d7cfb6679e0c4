package backtest

import (
	"context"

	"go.uber.org/zap"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
	"market-sim-lab/internal/replay"
)

// View is the read-only account state a strategy sees.
type View interface {
	Now() int64
	Position(symbol string) (domain.Position, bool)
	Balance() float64
	PositionSize() float64
	Pending() int
}

// Strategy defines hooks for backtest execution.
type Strategy interface {
	// OnRecord is called for each record after the simulator has processed it.
	// Returned requests are submitted at the record's timestamp.
	OnRecord(ctx context.Context, rec domain.Record, view View) ([]execution.OrderRequest, error)

	// Name returns the strategy identifier.
	Name() string
}

// Results holds backtest output.
type Results struct {
	StrategyName string
	RecordCount  int
	RequestCount int
	Submitted    []uint64 // order ids in submission order
	Rejected     int      // requests refused by the simulator
}

// Engine feeds records to a strategy and submits its orders.
// Implements replay.Engine.
type Engine struct {
	strategy Strategy
	sim      *execution.Simulator
	results  *Results
	logger   *zap.Logger
}

// NewEngine creates a new backtest engine.
func NewEngine(strategy Strategy, sim *execution.Simulator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		strategy: strategy,
		sim:      sim,
		logger:   logger,
		results: &Results{
			StrategyName: strategy.Name(),
			Submitted:    make([]uint64, 0),
		},
	}
}

// OnRecord runs the strategy on rec. Strategy errors abort the replay;
// rejected requests are counted and logged.
func (e *Engine) OnRecord(ctx context.Context, rec domain.Record) error {
	e.results.RecordCount++

	reqs, err := e.strategy.OnRecord(ctx, rec, e.sim)
	if err != nil {
		return err
	}

	for _, req := range reqs {
		e.results.RequestCount++
		id, err := e.sim.SubmitAt(req, rec.Timestamp)
		if err != nil {
			e.results.Rejected++
			e.logger.Warn("strategy order rejected",
				zap.String("strategy", e.results.StrategyName),
				zap.String("symbol", req.Symbol),
				zap.Int64("ts", rec.Timestamp),
				zap.Error(err),
			)
			continue
		}
		e.results.Submitted = append(e.results.Submitted, id)
	}
	return nil
}

// Results returns the backtest results.
func (e *Engine) Results() *Results {
	return e.results
}

var (
	_ replay.Engine = (*Engine)(nil)
	_ View          = (*execution.Simulator)(nil)
)
