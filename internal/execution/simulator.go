package execution

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/idhash"
	"market-sim-lab/internal/ledger"
)

// Simulator is the latency-gated execution engine.
//
// Orders and the ledger live in separate lock domains: the queue decides
// status under its own mutex and the resulting trades are booked afterwards.
// ProcessTick must be called from a single goroutine; Submit, Cancel and the
// read accessors are safe from any goroutine.
type Simulator struct {
	cfg    Config
	runID  string
	queue  *Queue
	fill   *FillEngine
	ledger *ledger.Ledger

	now     atomic.Int64
	started atomic.Bool

	prices   PriceSource
	recorder Recorder
	logger   *zap.Logger
}

// PriceSource resolves the price a record fills against.
type PriceSource interface {
	TickPrice(rec domain.Record) float64
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Simulator) {
		s.recorder = r
	}
}

// WithPriceSource makes OnRecord price records through ps, typically a book
// mirror updated ahead of the simulator.
func WithPriceSource(ps PriceSource) Option {
	return func(s *Simulator) {
		s.prices = ps
	}
}

// WithRunID sets the run id mixed into trade ids.
func WithRunID(runID string) Option {
	return func(s *Simulator) {
		s.runID = runID
	}
}

// NewSimulator creates a simulator from cfg.
func NewSimulator(cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:      cfg,
		queue:    NewQueue(cfg.Latency),
		fill:     NewFillEngine(cfg.SlippageBps),
		ledger:   ledger.New(cfg.InitialBalance, cfg.Commission),
		recorder: nopRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recorder.Balance(cfg.InitialBalance)
	return s, nil
}

// Config returns the simulator configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Now returns the simulation clock: the timestamp of the last processed tick.
func (s *Simulator) Now() int64 {
	return s.now.Load()
}

// Submit places an order at the current simulation time and returns its id.
func (s *Simulator) Submit(req OrderRequest) (uint64, error) {
	return s.SubmitAt(req, s.Now())
}

// SubmitAt places an order with an explicit submission time and returns its id.
func (s *Simulator) SubmitAt(req OrderRequest, ts int64) (uint64, error) {
	o, err := s.queue.Submit(req, ts)
	if err != nil {
		return 0, err
	}

	s.recorder.OrderSubmitted(o.Symbol)
	s.recorder.QueueDepth(s.queue.Depth())
	s.logger.Debug("order submitted",
		zap.Uint64("order_id", o.ID),
		zap.String("symbol", o.Symbol),
		zap.String("side", string(o.Side)),
		zap.Float64("quantity", o.Quantity),
		zap.Float64("limit_price", o.LimitPrice),
		zap.Int64("submitted_at", o.SubmittedAt),
		zap.Int64("eligible_at", o.EligibleAt()),
	)
	return o.ID, nil
}

// Cancel cancels a pending order. It returns false if the order is unknown
// or already filled or cancelled.
func (s *Simulator) Cancel(id uint64) bool {
	if !s.queue.Cancel(id, s.Now()) {
		return false
	}
	s.recorder.OrderCancelled(domain.CancelReasonUser)
	s.recorder.QueueDepth(s.queue.Depth())
	s.logger.Debug("order cancelled", zap.Uint64("order_id", id))
	return true
}

// ProcessTick advances the clock to ts and offers every eligible order for
// symbol to the tick. Fill errors are local to the order; they cancel it,
// are logged and counted, and never abort the tick.
func (s *Simulator) ProcessTick(symbol string, price float64, ts int64) error {
	if s.started.Load() && ts < s.now.Load() {
		return fmt.Errorf("%w: %d < %d", ErrTimeRegression, ts, s.now.Load())
	}
	s.now.Store(ts)
	s.started.Store(true)

	start := time.Now()
	outcomes := s.queue.Drain(symbol, price, ts, s.fill)

	for _, out := range outcomes {
		switch {
		case out.Err != nil:
			s.recorder.FillError(symbol)
			s.recorder.OrderCancelled(domain.CancelReasonFillError)
			s.logger.Warn("fill rejected",
				zap.Uint64("order_id", out.Order.ID),
				zap.String("symbol", symbol),
				zap.Int64("ts", ts),
				zap.Error(out.Err),
			)
		case out.Trade == nil:
			s.recorder.OrderCancelled(domain.CancelReasonNotCrossed)
			s.logger.Debug("order dropped",
				zap.Uint64("order_id", out.Order.ID),
				zap.Float64("limit_price", out.Order.LimitPrice),
				zap.Float64("tick_price", price),
			)
		default:
			trade := *out.Trade
			trade.TradeID = idhash.ComputeTradeID(s.runID, trade.OrderID, trade.Timestamp)
			pos := s.ledger.Apply(trade)

			s.recorder.OrderFilled(symbol)
			s.logger.Debug("order filled",
				zap.Uint64("order_id", trade.OrderID),
				zap.String("trade_id", trade.TradeID),
				zap.Float64("price", trade.Price),
				zap.Float64("quantity", trade.Quantity),
				zap.Float64("position", pos.Quantity),
			)
		}
	}

	s.ledger.Mark(symbol, price)

	if len(outcomes) > 0 {
		s.recorder.Balance(s.ledger.Balance())
		s.recorder.QueueDepth(s.queue.Depth())
	}
	s.recorder.TickProcessed(symbol, time.Since(start))
	return nil
}

// OnRecord processes a market record as a tick. It lets the simulator sit
// behind a replay runner. Without a price source the record's own last price
// or mid is used.
func (s *Simulator) OnRecord(_ context.Context, rec domain.Record) error {
	price := rec.TickPrice()
	if s.prices != nil {
		price = s.prices.TickPrice(rec)
	}
	return s.ProcessTick(rec.Symbol, price, rec.Timestamp)
}

// Order returns a snapshot of order id.
func (s *Simulator) Order(id uint64) (domain.Order, bool) {
	return s.queue.Get(id)
}

// Orders returns snapshots of all orders ordered by id.
func (s *Simulator) Orders() []domain.Order {
	return s.queue.Orders()
}

// Pending returns the number of orders waiting in the queue.
func (s *Simulator) Pending() int {
	return s.queue.Depth()
}

// Position returns the position in symbol.
func (s *Simulator) Position(symbol string) (domain.Position, bool) {
	return s.ledger.Position(symbol)
}

// Positions returns all positions ordered by symbol.
func (s *Simulator) Positions() []domain.Position {
	return s.ledger.Positions()
}

// Balance returns the cash balance.
func (s *Simulator) Balance() float64 {
	return s.ledger.Balance()
}

// PositionSize returns the capital to risk on the next trade.
func (s *Simulator) PositionSize() float64 {
	return s.ledger.PositionSize(s.cfg.RiskPerTrade)
}

// Ledger exposes the underlying ledger for reporting.
func (s *Simulator) Ledger() *ledger.Ledger {
	return s.ledger
}
