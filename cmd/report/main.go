package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"market-sim-lab/internal/config"
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/feed"
	"market-sim-lab/internal/reporting"
	"market-sim-lab/internal/simulation"
	"market-sim-lab/internal/storage"
	"market-sim-lab/internal/storage/memory"
	pgstore "market-sim-lab/internal/storage/postgres"
	"market-sim-lab/internal/strategy"
)

func main() {
	// Parse flags
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	envFile := flag.String("env-file", ".env", "Optional .env file")
	runID := flag.String("run-id", "", "Also render a single run report")
	useFixtures := flag.Bool("use-fixtures", false, "Simulate every profile on synthetic ticks instead of reading PostgreSQL")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Validate flags
	if !*useFixtures && cfg.PostgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: POSTGRES_DSN is required when not using fixtures")
		fmt.Fprintln(os.Stderr, "Use --use-fixtures to run with demo data instead")
		os.Exit(1)
	}

	// Create stores based on mode
	var (
		runStore   storage.RunStore
		tradeStore storage.TradeStore
	)

	if *useFixtures {
		runStore, tradeStore, err = createFixtureStores(ctx, cfg)
	} else {
		runStore, tradeStore, err = createDatabaseStores(ctx, cfg.PostgresDSN)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating stores: %v\n", err)
		os.Exit(1)
	}

	// Fixed clock for deterministic output
	fixedTime := time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)
	gen := reporting.NewGenerator(runStore, tradeStore).WithClock(func() time.Time { return fixedTime })

	comparison, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}

	files := map[string]string{
		"REPORT_RUNS.md": reporting.RenderComparisonMarkdown(comparison),
		"RUNS.csv":       reporting.RenderCSV(comparison.Runs),
	}

	if *runID != "" {
		rep, err := gen.Run(ctx, *runID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading run: %v\n", err)
			os.Exit(1)
		}
		files["RUN_"+*runID+".md"] = reporting.RenderMarkdown(rep)
	}

	fmt.Println("Reports generated successfully:")
	for name, content := range files {
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  - %s\n", path)
	}
}

// createFixtureStores runs the fixture strategies under every execution
// profile on the same synthetic ticks and returns the filled memory stores.
func createFixtureStores(ctx context.Context, cfg config.Config) (storage.RunStore, storage.TradeStore, error) {
	ticks := memory.NewTickStore()
	runStore := memory.NewRunStore()
	tradeStore := memory.NewTradeStore()

	records, err := feed.Generate(feed.DefaultSyntheticConfig())
	if err != nil {
		return nil, nil, err
	}
	if err := ticks.InsertBulk(ctx, records); err != nil {
		return nil, nil, err
	}

	profiles := []string{
		domain.ProfileOptimistic,
		domain.ProfileRealistic,
		domain.ProfilePessimistic,
		domain.ProfileDegraded,
	}
	strategies := []strategy.Config{
		{Type: strategy.TypeThreshold, Entry: strategy.Entry{Symbol: "AAPL", Below: 149.5, SlackBps: 5}, SellAbove: 150.5},
		{Type: strategy.TypeTrailingStop, Entry: strategy.Entry{Symbol: "AAPL", SlackBps: 5}, TrailPct: 0.01, InitialStopPct: 0.01, MaxHold: time.Hour},
	}

	n := 0
	for _, sc := range strategies {
		for _, p := range profiles {
			s, err := strategy.FromConfig(sc)
			if err != nil {
				return nil, nil, err
			}

			n++
			id := fmt.Sprintf("fixture-%02d-%s", n, p)
			runner := simulation.NewRunner(simulation.RunnerOptions{
				TickStore:  ticks,
				RunStore:   runStore,
				TradeStore: tradeStore,
				Now:        func() time.Time { return time.Unix(0, records[0].Timestamp).UTC() },
				NewID:      func() string { return id },
			})
			if _, err := runner.Run(ctx, simulation.RunConfig{
				Sim:      cfg.Sim,
				Profile:  p,
				Symbol:   "AAPL",
				From:     records[0].Timestamp,
				To:       records[len(records)-1].Timestamp,
				Strategy: s,
			}); err != nil {
				return nil, nil, fmt.Errorf("fixture run %s/%s: %w", s.Name(), p, err)
			}
		}
	}
	return runStore, tradeStore, nil
}

// createDatabaseStores connects to PostgreSQL and creates stores.
func createDatabaseStores(ctx context.Context, postgresDSN string) (storage.RunStore, storage.TradeStore, error) {
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return pgstore.NewRunStore(pool), pgstore.NewTradeStore(pool), nil
}
