package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"market-sim-lab/internal/backtest"
	"market-sim-lab/internal/book"
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
	"market-sim-lab/internal/metrics"
	"market-sim-lab/internal/observability"
	"market-sim-lab/internal/replay"
	"market-sim-lab/internal/scenario"
	"market-sim-lab/internal/storage"
)

// Runner errors
var (
	ErrNoTicks      = errors.New("no ticks in requested range")
	ErrNoTickSource = errors.New("neither a tick store nor a source is configured")
)

// Run status labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Runner executes simulation runs and persists their outcome.
type Runner struct {
	tickStore   storage.TickStore
	runStore    storage.RunStore
	orderStore  storage.OrderStore
	tradeStore  storage.TradeStore
	equityStore storage.EquityStore
	bookCache   storage.BookCache
	metrics     *observability.Metrics
	logger      *zap.Logger
	clock       replay.Clock
	now         func() time.Time
	newID       func() string
}

// RunnerOptions contains configuration for creating a Runner.
// Every store is optional; nil stores are skipped.
type RunnerOptions struct {
	TickStore   storage.TickStore
	RunStore    storage.RunStore
	OrderStore  storage.OrderStore
	TradeStore  storage.TradeStore
	EquityStore storage.EquityStore
	BookCache   storage.BookCache
	Metrics     *observability.Metrics
	Logger      *zap.Logger

	// Clock drives wall-clock pacing and latency emulation. Defaults to the real clock.
	Clock replay.Clock

	// Now and NewID are injectable for deterministic output.
	Now   func() time.Time
	NewID func() string
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	r := &Runner{
		tickStore:   opts.TickStore,
		runStore:    opts.RunStore,
		orderStore:  opts.OrderStore,
		tradeStore:  opts.TradeStore,
		equityStore: opts.EquityStore,
		bookCache:   opts.BookCache,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		clock:       opts.Clock,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.clock == nil {
		r.clock = replay.RealClock{}
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r
}

// RunConfig describes one simulation run.
type RunConfig struct {
	Sim     execution.Config
	Profile string // optional execution profile overriding latency, slippage and commission
	Label   string // profile name recorded for the run when Profile is empty

	Symbol string // empty replays every symbol
	From   int64  // inclusive, ns
	To     int64  // inclusive, ns

	Scenario       string  // static scenario to activate, empty for none
	CrashBelow     float64 // flash_crash threshold, 0 disables
	GuardSpreadBps float64 // wide_spread_guard threshold, 0 disables

	Speed      float64 // replay speed factor, <= 0 replays as fast as possible
	Concurrent bool    // use the producer/consumer pipeline
	Buffer     int     // pipeline channel capacity

	Emulator EmulatorConfig   // wall-clock delay per record, zero disables
	Inbox    *execution.Inbox // optional, attached to the run's simulator and drained between records

	Strategy backtest.Strategy // optional
	Source   replay.Source     // optional, replaces the tick store
}

// EmulatorConfig configures the per-record processing delay used to stress
// pipeline throughput. It never changes fills.
type EmulatorConfig struct {
	Base   time.Duration
	Jitter time.Duration
	Seed   uint64
}

// Enabled reports whether any delay is configured.
func (c EmulatorConfig) Enabled() bool {
	return c.Base > 0 || c.Jitter > 0
}

// Result is the outcome of a run.
type Result struct {
	RunID    string
	Report   metrics.Report
	Summary  *domain.RunSummary
	Stats    replay.Stats
	Backtest *backtest.Results
	Quotes   []domain.Quote // final top of book per symbol

	Trades    []domain.Trade // fill order
	Positions []domain.Position
	Closed    []domain.ClosedTrade
}

// Run executes a simulation:
//  1. Resolve execution config from profile
//  2. Load ticks (or use the configured source)
//  3. Register scenarios and activate the requested one
//  4. Replay through book mirror, simulator and strategy, draining the inbox between records
//  5. Compute the report
//  6. Persist run summary, orders, trades and equity curve
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	started := r.now()
	res, err := r.run(ctx, cfg, started)

	status := StatusOK
	if err != nil {
		status = StatusError
	}
	if r.metrics != nil {
		records := 0
		if res != nil {
			records = res.Stats.Records
		}
		r.metrics.RecordRun(status, records, r.now().Sub(started))
	}
	return res, err
}

func (r *Runner) run(ctx context.Context, cfg RunConfig, started time.Time) (*Result, error) {
	// 1. Resolve execution config
	simCfg, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	runID := r.newID()
	logger := r.logger.With(zap.String("run_id", runID))

	mirror := book.NewMirror(r.bookCache, logger)

	simOpts := []execution.Option{
		execution.WithRunID(runID),
		execution.WithLogger(logger),
		execution.WithPriceSource(mirror),
	}
	if r.metrics != nil {
		simOpts = append(simOpts, execution.WithRecorder(r.metrics))
	}
	sim, err := execution.NewSimulator(simCfg, simOpts...)
	if err != nil {
		return nil, err
	}
	if cfg.Inbox != nil {
		cfg.Inbox.Attach(sim)
	}

	// 2. Load ticks
	source, err := r.source(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 3. Scenarios
	scenarios := scenario.NewEngine(logger)
	if r.metrics != nil {
		scenarios.SetRecorder(r.metrics)
	}
	if err := scenario.RegisterBuiltins(scenarios, cfg.CrashBelow, cfg.GuardSpreadBps); err != nil {
		return nil, err
	}
	if err := scenarios.Activate(cfg.Scenario); err != nil {
		return nil, err
	}

	// 4. Replay
	opts := replay.Options{
		Driver:    replay.NewDriver(source, replay.NewPacer(r.clock, cfg.Speed)),
		Scenarios: scenarios,
		Engines:   []replay.Engine{mirror},
		Logger:    logger,
	}
	if cfg.Inbox != nil {
		opts.Inbox = cfg.Inbox
	}
	if cfg.Emulator.Enabled() {
		opts.Emulator = replay.NewLatencyEmulator(cfg.Emulator.Base, cfg.Emulator.Jitter, r.clock, cfg.Emulator.Seed)
	}

	runner := backtest.NewRunner(sim, opts)
	if cfg.Concurrent {
		runner.WithPipeline(cfg.Buffer)
	}

	results, stats, err := runner.Run(ctx, cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	// 5. Report
	report := sim.Report()
	summary := buildSummary(runID, started, cfg, stats, report)
	if results != nil {
		summary.Strategy = results.StrategyName
	}

	// 6. Persist
	if err := r.persist(ctx, summary, sim); err != nil {
		return nil, fmt.Errorf("persist run %s: %w", runID, err)
	}

	quotes := make([]domain.Quote, 0)
	for _, s := range mirror.Symbols() {
		q, _ := mirror.Top(s)
		quotes = append(quotes, q)
	}

	logger.Info("simulation finished",
		zap.Int("records", stats.Records),
		zap.Int("closed_trades", report.TotalTrades),
		zap.Float64("final_balance", report.FinalBalance),
	)

	return &Result{
		RunID:    runID,
		Report:   report,
		Summary:  summary,
		Stats:    stats,
		Backtest: results,
		Quotes:   quotes,

		Trades:    sim.Ledger().Trades(),
		Positions: sim.Positions(),
		Closed:    sim.Ledger().ClosedTrades(),
	}, nil
}

func resolveConfig(cfg RunConfig) (execution.Config, error) {
	simCfg := cfg.Sim
	if cfg.Profile != "" {
		p, err := domain.ProfileByName(cfg.Profile)
		if err != nil {
			return simCfg, err
		}
		simCfg.Latency = p.Latency.Nanoseconds()
		simCfg.SlippageBps = p.SlippageBps
		simCfg.Commission = p.Commission
	}
	return simCfg, simCfg.Validate()
}

func (r *Runner) source(ctx context.Context, cfg RunConfig) (replay.Source, error) {
	if cfg.Source != nil {
		return cfg.Source, nil
	}
	if r.tickStore == nil {
		return nil, ErrNoTickSource
	}

	start := time.Now()
	src, err := replay.LoadSource(ctx, r.tickStore, cfg.Symbol, cfg.From, cfg.To)
	r.recordQuery("ticks", "get_by_time_range", start, err)
	if err != nil {
		return nil, fmt.Errorf("load ticks: %w", err)
	}
	if src.Len() == 0 {
		return nil, ErrNoTicks
	}
	return src, nil
}

func buildSummary(runID string, started time.Time, cfg RunConfig, stats replay.Stats, rep metrics.Report) *domain.RunSummary {
	from, to := cfg.From, cfg.To
	if stats.Records > 0 {
		from, to = stats.FirstTs, stats.LastTs
	}
	profile := cfg.Profile
	if profile == "" {
		profile = cfg.Label
	}
	if profile == "" {
		profile = "custom"
	}
	return &domain.RunSummary{
		RunID:                runID,
		Profile:              profile,
		Scenario:             cfg.Scenario,
		StartedAt:            started,
		FromTs:               from,
		ToTs:                 to,
		TickCount:            stats.Records,
		InitialBalance:       rep.InitialBalance,
		FinalBalance:         rep.FinalBalance,
		TotalTrades:          rep.TotalTrades,
		Wins:                 rep.Wins,
		Losses:               rep.Losses,
		WinRate:              rep.WinRate,
		LossRate:             rep.LossRate,
		ProfitFactor:         rep.ProfitFactor.Value,
		ProfitFactorInfinite: rep.ProfitFactor.Infinite,
		RealizedPnL:          rep.RealizedPnL,
		Commission:           rep.Commission,
		MaxDrawdown:          rep.MaxDrawdown,
	}
}

// persist writes the run summary last so a listed run always has its
// orders, trades and equity curve.
func (r *Runner) persist(ctx context.Context, summary *domain.RunSummary, sim *execution.Simulator) error {
	runID := summary.RunID

	if r.orderStore != nil {
		start := time.Now()
		err := r.orderStore.InsertBulk(ctx, runID, sim.Orders())
		r.recordQuery("orders", "insert_bulk", start, err)
		if err != nil {
			return fmt.Errorf("orders: %w", err)
		}
	}

	if r.tradeStore != nil {
		if trades := sim.Ledger().Trades(); len(trades) > 0 {
			start := time.Now()
			err := r.tradeStore.InsertBulk(ctx, runID, trades)
			r.recordQuery("trades", "insert_bulk", start, err)
			if err != nil {
				return fmt.Errorf("trades: %w", err)
			}
		}
	}

	if r.equityStore != nil {
		start := time.Now()
		err := r.equityStore.InsertBulk(ctx, runID, sim.Ledger().EquityCurve())
		r.recordQuery("equity", "insert_bulk", start, err)
		if err != nil {
			return fmt.Errorf("equity: %w", err)
		}
	}

	if r.runStore != nil {
		start := time.Now()
		err := r.runStore.Insert(ctx, summary)
		r.recordQuery("runs", "insert", start, err)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
	}
	return nil
}

func (r *Runner) recordQuery(table, op string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.RecordDBQuery(table, op, time.Since(start), err)
	}
}
