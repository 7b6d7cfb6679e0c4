package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"market-sim-lab/internal/backtest"
	"market-sim-lab/internal/config"
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
	"market-sim-lab/internal/feed"
	"market-sim-lab/internal/metrics"
	"market-sim-lab/internal/observability"
	"market-sim-lab/internal/replay"
	"market-sim-lab/internal/reporting"
	"market-sim-lab/internal/simulation"
	"market-sim-lab/internal/storage"
	chstore "market-sim-lab/internal/storage/clickhouse"
	"market-sim-lab/internal/storage/memory"
	"market-sim-lab/internal/storage/migrations"
	pgstore "market-sim-lab/internal/storage/postgres"
	redisstore "market-sim-lab/internal/storage/redis"
	"market-sim-lab/internal/strategy"
	"market-sim-lab/internal/verification"
)

func main() {
	// Parse flags
	envFile := flag.String("env-file", ".env", "Optional .env file")
	source := flag.String("source", "memory", "Tick source: memory (synthetic), clickhouse, ws")
	wsURL := flag.String("ws-url", "", "Websocket endpoint streaming JSON ticks (source=ws)")
	symbol := flag.String("symbol", "AAPL", "Symbol to simulate, empty for all stored symbols")
	fromTime := flag.String("from-time", "", "Start time (RFC3339), default unbounded")
	toTime := flag.String("to-time", "", "End time (RFC3339), default unbounded")

	// Synthetic ticks
	generate := flag.Int("generate", 0, "Generate N synthetic ticks into the tick store before running (memory default 1000)")
	seed := flag.Uint64("seed", 1, "Synthetic generator seed")
	startPrice := flag.Float64("start-price", 150, "Synthetic start price")

	// Execution
	profile := flag.String("profile", "", "Execution profile: optimistic, realistic, pessimistic, degraded (overrides SIM_* values)")
	scenarioName := flag.String("scenario", "", "Static scenario: price_shock, spread_widen, liquidity_drain")
	crashBelow := flag.Float64("crash-below", 0, "Enable flash_crash below this price")
	guardSpread := flag.Float64("guard-spread-bps", 0, "Enable wide_spread_guard above this spread (bps)")
	speed := flag.Float64("speed", math.NaN(), "Replay speed factor, 0 for fast mode (default SIM_SPEED)")
	concurrent := flag.Bool("concurrent", false, "Use the producer/consumer pipeline")
	buffer := flag.Int("buffer", replay.DefaultBuffer, "Pipeline channel capacity")
	baseLatency := flag.Duration("base-latency", 0, "Wall-clock processing delay per record")
	jitter := flag.Duration("jitter", 0, "Random extra delay per record, up to this value")
	emulatorSeed := flag.Uint64("emulator-seed", 1, "Seed for the per-record jitter")

	// Strategy
	strategyType := flag.String("strategy", "threshold", "Strategy: threshold, time_exit, trailing_stop, liquidity_guard, none")
	buyBelow := flag.Float64("buy-below", 149.5, "Entry level: buy when price is below, 0 enters on the first tick (exit strategies)")
	sellAbove := flag.Float64("sell-above", 150.5, "Threshold strategy sell level")
	quantity := flag.Float64("quantity", 0, "Order size, 0 sizes from risk per trade")
	slackBps := flag.Float64("slack-bps", 5, "Limit price offset past the tick (bps)")
	holdDuration := flag.Duration("hold", time.Minute, "Hold duration for time_exit")
	trailPct := flag.Float64("trail-pct", 0.01, "Trail percentage for trailing_stop")
	initialStopPct := flag.Float64("initial-stop-pct", 0.01, "Initial stop for trailing_stop")
	liquidityDropPct := flag.Float64("liquidity-drop-pct", 0.30, "Bid size drop for liquidity_guard")
	maxHold := flag.Duration("max-hold", time.Hour, "Max hold for trailing_stop and liquidity_guard")
	ordersFile := flag.String("orders", "", "JSON file of scheduled orders submitted through the command inbox")

	// Storage
	persist := flag.Bool("persist", false, "Persist run, orders and trades to PostgreSQL and equity to ClickHouse")
	verify := flag.Bool("verify", false, "Replay the finished run and fail on any divergence")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations before running")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	extended := flag.Bool("extended", true, "Include extended statistics in text output")
	logDev := flag.Bool("log-dev", false, "Human-readable console logs")
	reportDir := flag.String("report-dir", "", "Write RUN_<id>.md and CLOSED_<id>.csv into this directory")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, *logDev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	from, to, err := parseRange(*fromTime, *toTime)
	if err != nil {
		logger.Fatal("invalid time range", zap.Error(err))
	}

	if math.IsNaN(*speed) {
		*speed = cfg.Speed
	}

	// Metrics
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("", reg)
	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := simulation.RunnerOptions{Metrics: m, Logger: logger}
	runCfg := simulation.RunConfig{
		Sim:            cfg.Sim,
		Label:          cfg.Profile,
		Symbol:         *symbol,
		From:           from,
		To:             to,
		Scenario:       *scenarioName,
		CrashBelow:     *crashBelow,
		GuardSpreadBps: *guardSpread,
		Speed:          *speed,
		Concurrent:     *concurrent,
		Buffer:         *buffer,
		Emulator: simulation.EmulatorConfig{
			Base:   *baseLatency,
			Jitter: *jitter,
			Seed:   *emulatorSeed,
		},
	}
	if *profile != "" {
		runCfg.Profile = *profile
	}

	// ClickHouse serves ticks and equity curves
	var chConn *chstore.Conn
	if *source == "clickhouse" || (*persist && cfg.ClickhouseDSN != "") {
		if cfg.ClickhouseDSN == "" {
			logger.Fatal("CLICKHOUSE_DSN is required for source=clickhouse")
		}
		if *migrate {
			chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		} else {
			chConn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
		}
		if err != nil {
			logger.Fatal("connect to clickhouse", zap.Error(err))
		}
		defer chConn.Close()
	}

	// Tick source
	switch *source {
	case "memory":
		n := *generate
		if n == 0 {
			n = 1000
		}
		store := memory.NewTickStore()
		if err := seedTicks(ctx, store, *symbol, n, *seed, *startPrice); err != nil {
			logger.Fatal("generate ticks", zap.Error(err))
		}
		opts.TickStore = store
	case "clickhouse":
		store := chstore.NewTickStore(chConn)
		if *generate > 0 {
			if err := seedTicks(ctx, store, *symbol, *generate, *seed, *startPrice); err != nil {
				logger.Fatal("generate ticks", zap.Error(err))
			}
		}
		opts.TickStore = store
	case "ws":
		if *wsURL == "" {
			logger.Fatal("--ws-url is required for source=ws")
		}
		var symbols []string
		if *symbol != "" {
			symbols = []string{*symbol}
		}
		ws, err := feed.DialWS(ctx, *wsURL, symbols, nil)
		if err != nil {
			logger.Fatal("dial websocket", zap.Error(err))
		}
		defer ws.Close()
		runCfg.Source = ws
	default:
		logger.Fatal("invalid source", zap.String("source", *source))
	}

	// Persistence
	if *persist {
		if cfg.PostgresDSN == "" {
			logger.Fatal("POSTGRES_DSN is required with --persist")
		}
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		if *migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatal("postgres migrations", zap.Error(err))
			}
		}

		opts.RunStore = pgstore.NewRunStore(pool)
		opts.OrderStore = pgstore.NewOrderStore(pool)
		opts.TradeStore = pgstore.NewTradeStore(pool)
		if chConn != nil {
			opts.EquityStore = chstore.NewEquityStore(chConn)
		} else {
			opts.EquityStore = memory.NewEquityStore()
		}
	}

	// Book cache
	if cfg.RedisAddr != "" {
		client, err := redisstore.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal("connect to redis", zap.Error(err))
		}
		defer client.Close()
		opts.BookCache = redisstore.NewBookCache(client, "market-sim", redisstore.DefaultQuoteTTL)
	}

	// Strategy
	t := strings.ToLower(*strategyType)
	stratCfg := strategy.Config{
		Type: t,
		Entry: strategy.Entry{
			Symbol:   *symbol,
			Below:    *buyBelow,
			Quantity: *quantity,
			SlackBps: *slackBps,
		},
		SellAbove:        *sellAbove,
		HoldDuration:     *holdDuration,
		TrailPct:         *trailPct,
		InitialStopPct:   *initialStopPct,
		MaxHold:          *maxHold,
		LiquidityDropPct: *liquidityDropPct,
	}
	newStrategy := func() backtest.Strategy {
		if t == "none" || t == "" {
			return nil
		}
		s, err := strategy.FromConfig(stratCfg)
		if err != nil {
			logger.Fatal("invalid strategy", zap.String("strategy", t), zap.Error(err))
		}
		return s
	}
	runCfg.Strategy = newStrategy()

	// Scheduled orders are queued before the run and applied between records
	var scheduled []scheduledOrder
	if *ordersFile != "" {
		scheduled, err = loadOrders(*ordersFile)
		if err != nil {
			logger.Fatal("load orders", zap.Error(err))
		}
	}
	var tickets []*execution.Ticket
	if len(scheduled) > 0 {
		runCfg.Inbox, tickets = queueOrders(scheduled)
	}

	// Verification replays from the tick store and compares against stored fills
	if *verify {
		if runCfg.Source != nil {
			logger.Fatal("--verify needs a replayable source (memory or clickhouse)")
		}
		if opts.RunStore == nil {
			opts.RunStore = memory.NewRunStore()
			opts.TradeStore = memory.NewTradeStore()
		}
	}

	runner := simulation.NewRunner(opts)

	logger.Info("running simulation",
		zap.String("source", *source),
		zap.String("symbol", *symbol),
		zap.String("profile", *profile),
		zap.String("scenario", *scenarioName),
		zap.String("strategy", *strategyType),
	)

	res, err := runner.Run(ctx, runCfg)
	if err != nil {
		if errors.Is(err, simulation.ErrNoTicks) {
			logger.Fatal("no ticks to replay; use --generate or widen the time range")
		}
		logger.Fatal("simulation failed", zap.Error(err))
	}

	for i, tk := range tickets {
		tr, err := tk.Wait(ctx)
		if err != nil {
			break
		}
		if tr.Err != nil {
			logger.Warn("scheduled order rejected", zap.Int("index", i), zap.Error(tr.Err))
			continue
		}
		logger.Info("scheduled order submitted", zap.Int("index", i), zap.Uint64("order_id", tr.OrderID))
	}

	if *verify {
		verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
			RunStore:   opts.RunStore,
			TradeStore: opts.TradeStore,
			TickStore:  opts.TickStore,
			Logger:     logger,
		})
		vcfg := runCfg
		vcfg.Strategy = newStrategy()
		if len(scheduled) > 0 {
			vcfg.Inbox, _ = queueOrders(scheduled)
		}
		v, err := verifier.VerifyRun(ctx, res.RunID, vcfg)
		if err != nil {
			logger.Fatal("verify run", zap.Error(err))
		}
		for _, d := range v.Divergences {
			logger.Warn("replay divergence",
				zap.String("field", d.Field),
				zap.Any("stored", d.Expected),
				zap.Any("replayed", d.Actual),
			)
		}
		if !v.Match {
			logger.Fatal("replay verification failed", zap.Int("divergences", len(v.Divergences)))
		}
	}

	if *reportDir != "" {
		if err := writeRunFiles(*reportDir, res); err != nil {
			logger.Fatal("write report files", zap.Error(err))
		}
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(jsonResult{
			RunID:    res.RunID,
			Profile:  res.Summary.Profile,
			Scenario: res.Summary.Scenario,
			Strategy: res.Summary.Strategy,
			Records:  res.Stats.Records,
			FromTs:   res.Stats.FirstTs,
			ToTs:     res.Stats.LastTs,
			Report:   res.Report,
			Quotes:   res.Quotes,
		}, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Println()
	fmt.Printf("Run ID:    %s\n", res.RunID)
	fmt.Printf("Profile:   %s\n", res.Summary.Profile)
	fmt.Printf("Scenario:  %s\n", orDash(res.Summary.Scenario))
	fmt.Printf("Strategy:  %s\n", orDash(res.Summary.Strategy))
	fmt.Printf("Records:   %d\n", res.Stats.Records)
	fmt.Println()
	fmt.Print(reporting.RenderText(res.Report, *extended))
}

type jsonResult struct {
	RunID    string         `json:"run_id"`
	Profile  string         `json:"profile"`
	Scenario string         `json:"scenario,omitempty"`
	Strategy string         `json:"strategy,omitempty"`
	Records  int            `json:"records"`
	FromTs   int64          `json:"from_ts"`
	ToTs     int64          `json:"to_ts"`
	Report   metrics.Report `json:"report"`
	Quotes   []domain.Quote `json:"quotes"`
}

// scheduledOrder is one entry of the --orders file.
type scheduledOrder struct {
	Symbol     string      `json:"symbol"`
	Side       domain.Side `json:"side"`
	Quantity   float64     `json:"quantity"`
	LimitPrice float64     `json:"limit_price"`
	At         time.Time   `json:"at"`
}

func loadOrders(path string) ([]scheduledOrder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var orders []scheduledOrder
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return orders, nil
}

// queueOrders builds an unattached inbox holding orders; the runner binds it
// to the run's simulator.
func queueOrders(orders []scheduledOrder) (*execution.Inbox, []*execution.Ticket) {
	inbox := execution.NewInbox(nil)
	tickets := make([]*execution.Ticket, len(orders))
	for i, o := range orders {
		tickets[i] = inbox.SubmitAt(execution.OrderRequest{
			Symbol:     o.Symbol,
			Side:       o.Side,
			Quantity:   o.Quantity,
			LimitPrice: o.LimitPrice,
		}, o.At.UnixNano())
	}
	return inbox, tickets
}

// parseRange converts RFC3339 bounds to ns; missing bounds are unbounded.
func parseRange(fromTime, toTime string) (int64, int64, error) {
	from, to := int64(0), int64(math.MaxInt64)
	if fromTime != "" {
		t, err := time.Parse(time.RFC3339, fromTime)
		if err != nil {
			return 0, 0, fmt.Errorf("parse from-time: %w", err)
		}
		from = t.UnixNano()
	}
	if toTime != "" {
		t, err := time.Parse(time.RFC3339, toTime)
		if err != nil {
			return 0, 0, fmt.Errorf("parse to-time: %w", err)
		}
		to = t.UnixNano()
	}
	if from > to {
		return 0, 0, fmt.Errorf("from-time after to-time")
	}
	return from, to, nil
}

func seedTicks(ctx context.Context, store storage.TickStore, symbol string, n int, seed uint64, startPrice float64) error {
	gen := feed.DefaultSyntheticConfig()
	if symbol != "" {
		gen.Symbols = []string{symbol}
	}
	gen.Count = n
	gen.Seed = seed
	gen.StartPrice = startPrice

	records, err := feed.Generate(gen)
	if err != nil {
		return err
	}
	return store.InsertBulk(ctx, records)
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler(reg))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

// writeRunFiles renders the run as markdown plus its closed-trade log.
func writeRunFiles(dir string, res *simulation.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	rep := &reporting.RunReport{
		RunID:       res.RunID,
		Profile:     res.Summary.Profile,
		Scenario:    res.Summary.Scenario,
		Strategy:    res.Summary.Strategy,
		GeneratedAt: res.Summary.StartedAt,
		FromTs:      res.Summary.FromTs,
		ToTs:        res.Summary.ToTs,
		Ticks:       res.Summary.TickCount,
		Metrics:     res.Report,
		Positions:   res.Positions,
		Closed:      res.Closed,
	}

	files := map[string]string{
		filepath.Join(dir, "RUN_"+res.RunID+".md"):     reporting.RenderMarkdown(rep),
		filepath.Join(dir, "CLOSED_"+res.RunID+".csv"): reporting.RenderClosedTradesCSV(rep),
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
