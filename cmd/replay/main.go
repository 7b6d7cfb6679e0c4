package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"market-sim-lab/internal/book"
	"market-sim-lab/internal/config"
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/feed"
	"market-sim-lab/internal/observability"
	"market-sim-lab/internal/replay"
	"market-sim-lab/internal/scenario"
	"market-sim-lab/internal/storage"
	chstore "market-sim-lab/internal/storage/clickhouse"
	"market-sim-lab/internal/storage/memory"
)

func main() {
	// Parse flags
	envFile := flag.String("env-file", ".env", "Optional .env file")
	symbol := flag.String("symbol", "", "Symbol to replay, empty for all")
	fromTime := flag.String("from-time", "", "Start time (RFC3339)")
	toTime := flag.String("to-time", "", "End time (RFC3339)")
	useMemory := flag.Bool("use-memory", false, "Replay synthetic ticks from memory")
	count := flag.Int("count", 100, "Synthetic ticks per symbol with --use-memory")
	scenarioName := flag.String("scenario", "", "Static scenario to activate")
	crashBelow := flag.Float64("crash-below", 0, "Enable flash_crash below this price")
	guardSpread := flag.Float64("guard-spread-bps", 0, "Enable wide_spread_guard above this spread (bps)")
	speed := flag.Float64("speed", math.NaN(), "Replay speed factor, 0 for fast mode (default SIM_SPEED)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.LogLevel, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if math.IsNaN(*speed) {
		*speed = cfg.Speed
	}

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create stores
	var tickStore storage.TickStore
	if *useMemory {
		gen := feed.DefaultSyntheticConfig()
		if *symbol != "" {
			gen.Symbols = []string{*symbol}
		}
		gen.Count = *count
		records, err := feed.Generate(gen)
		if err != nil {
			logger.Fatal("generate ticks", zap.Error(err))
		}
		store := memory.NewTickStore()
		if err := store.InsertBulk(ctx, records); err != nil {
			logger.Fatal("insert ticks", zap.Error(err))
		}
		tickStore = store
	} else {
		if cfg.ClickhouseDSN == "" {
			logger.Fatal("CLICKHOUSE_DSN is required when not using --use-memory")
		}
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			logger.Fatal("connect to clickhouse", zap.Error(err))
		}
		defer conn.Close()
		tickStore = chstore.NewTickStore(conn)
	}

	// Determine time range. Both bounds or neither keep the replay deterministic.
	from, to := int64(0), int64(math.MaxInt64)
	if (*fromTime == "") != (*toTime == "") {
		logger.Fatal("both --from-time and --to-time must be specified together")
	}
	if *fromTime != "" {
		f, err := time.Parse(time.RFC3339, *fromTime)
		if err != nil {
			logger.Fatal("parse from-time", zap.Error(err))
		}
		t, err := time.Parse(time.RFC3339, *toTime)
		if err != nil {
			logger.Fatal("parse to-time", zap.Error(err))
		}
		from, to = f.UnixNano(), t.UnixNano()
	}

	src, err := replay.LoadSource(ctx, tickStore, *symbol, from, to)
	if err != nil {
		logger.Fatal("load ticks", zap.Error(err))
	}

	scenarios := scenario.NewEngine(logger)
	if err := scenario.RegisterBuiltins(scenarios, *crashBelow, *guardSpread); err != nil {
		logger.Fatal("register scenarios", zap.Error(err))
	}
	if err := scenarios.Activate(*scenarioName); err != nil {
		logger.Fatal("activate scenario", zap.Error(err))
	}

	engine := NewLoggingEngine(*outputJSON)
	mirror := book.NewMirror(nil, logger)

	runner := replay.NewRunner(replay.Options{
		Driver:    replay.NewDriver(src, replay.NewPacer(replay.RealClock{}, *speed)),
		Scenarios: scenarios,
		Engines:   []replay.Engine{mirror, engine},
		Logger:    logger,
	})
	if _, err := runner.Run(ctx); err != nil {
		logger.Fatal("replay failed", zap.Error(err))
	}

	// Output summary
	stats := engine.Stats()
	stats.Scenarios = scenarios.Stats()
	for _, s := range mirror.Symbols() {
		q, _ := mirror.Top(s)
		stats.Quotes = append(stats.Quotes, q)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("\n=== Replay Summary ===\n")
	fmt.Printf("Total Records:     %d\n", stats.TotalRecords)
	fmt.Printf("Symbols:           %d\n", len(stats.Symbols))
	if stats.TotalRecords > 0 {
		fmt.Printf("First Record Time: %s\n", time.Unix(0, stats.FirstTimestamp).UTC().Format(time.RFC3339Nano))
		fmt.Printf("Last Record Time:  %s\n", time.Unix(0, stats.LastTimestamp).UTC().Format(time.RFC3339Nano))
		fmt.Printf("Duration:          %v\n", time.Duration(stats.LastTimestamp-stats.FirstTimestamp))
	} else {
		fmt.Printf("First Record Time: N/A\n")
		fmt.Printf("Last Record Time:  N/A\n")
		fmt.Printf("Duration:          N/A\n")
	}
	for name, n := range stats.Scenarios {
		fmt.Printf("Scenario %-16s %d\n", name+":", n)
	}
	for _, q := range stats.Quotes {
		fmt.Printf("%-8s bid %.4f ask %.4f last %.4f\n", q.Symbol, q.Bid, q.Ask, q.Last)
	}
}

// LoggingEngine implements replay.Engine and prints every record.
type LoggingEngine struct {
	outputJSON bool
	stats      ReplayStats
}

// ReplayStats holds replay statistics.
type ReplayStats struct {
	TotalRecords   int            `json:"total_records"`
	Symbols        map[string]int `json:"symbols"`
	FirstTimestamp int64          `json:"first_timestamp_ns"`
	LastTimestamp  int64          `json:"last_timestamp_ns"`
	Scenarios      map[string]int `json:"scenarios"`
	Quotes         []domain.Quote `json:"quotes"`
}

// NewLoggingEngine creates a new logging engine.
func NewLoggingEngine(outputJSON bool) *LoggingEngine {
	return &LoggingEngine{
		outputJSON: outputJSON,
		stats:      ReplayStats{Symbols: make(map[string]int)},
	}
}

// OnRecord counts rec and prints it unless JSON output is requested.
func (e *LoggingEngine) OnRecord(_ context.Context, rec domain.Record) error {
	if e.stats.TotalRecords == 0 {
		e.stats.FirstTimestamp = rec.Timestamp
	}
	e.stats.LastTimestamp = rec.Timestamp
	e.stats.TotalRecords++
	e.stats.Symbols[rec.Symbol]++

	if !e.outputJSON {
		fmt.Printf("[%s] %s price=%.4f bid=%.4f ask=%.4f\n",
			time.Unix(0, rec.Timestamp).UTC().Format(time.RFC3339Nano),
			rec.Symbol, rec.Price, rec.Bid, rec.Ask,
		)
	}
	return nil
}

// Stats returns replay statistics.
func (e *LoggingEngine) Stats() ReplayStats {
	return e.stats
}

var _ replay.Engine = (*LoggingEngine)(nil)
