// Command analyzer ranks option contracts by alpha metric, backtests them
// against Monte Carlo price paths, and optionally serves the results over
// a JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/analyzer"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/chainio"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/config"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/hedge"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/metrics"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/server"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/session"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/simulation"
)

func main() {
	var (
		configPath string
		chainPath  string
		metricFlag string
		exportPath string
		seedFlag   int64
		useExample bool
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&chainPath, "chain", "", "Path to option-chain CSV to analyze")
	flag.StringVar(&metricFlag, "metric", "", "Override the configured alpha metric (sas, ra-sas, tas, expected-return)")
	flag.StringVar(&exportPath, "export", "", "Write the results CSV to this path")
	flag.Int64Var(&seedFlag, "seed", 0, "Fix the simulation seed for reproducible runs (0 = fresh randomness)")
	flag.BoolVar(&useExample, "example", false, "Analyze the built-in example contracts instead of a CSV")
	flag.Parse()

	// .env values feed the ${VAR} expansion in the YAML config.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "[ANALYZER] ", log.LstdFlags)

	metric := cfg.Metric()
	if metricFlag != "" {
		m, err := models.ParseMetric(metricFlag)
		if err != nil {
			log.Fatalf("Invalid -metric: %v", err)
		}
		metric = m
	}

	seed := cfg.Analysis.Seed
	if seedFlag != 0 {
		seed = &seedFlag
	}

	sess := session.NewStore()
	if err := loadContracts(sess, chainPath, useExample, cfg, logger); err != nil {
		log.Fatalf("Failed to load contracts: %v", err)
	}
	contracts := sess.Contracts()
	if len(contracts) == 0 {
		log.Fatal("No contracts to analyze. Pass -chain <csv> or -example.")
	}
	logger.Printf("Loaded %d contracts", len(contracts))

	agg := analyzer.NewAggregator(
		metrics.NewCalculatorWithSlippage(cfg.Analysis.SlippageFraction),
		simulation.NewEngine(),
		hedge.NewSolver(),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("Shutdown signal received, canceling analysis...")
		cancel()
	}()

	req := analyzer.Request{
		Contracts: contracts,
		Metric:    metric,
		Seed:      seed,
	}
	if cfg.Simulation.Enabled {
		simCfg := cfg.Simulation.Run
		req.Simulation = &simCfg
	}

	report, err := agg.Analyze(ctx, req)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	sess.SetReport(report)

	printReport(report)

	if exportPath != "" {
		if err := exportReport(exportPath, report); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		logger.Printf("Results written to %s", exportPath)
	}

	if cfg.Server.Enabled {
		runServer(ctx, cfg, sess, agg, logger)
	}
}

// loadContracts fills the session from the chain CSV, or from the
// built-in examples when requested.
func loadContracts(sess *session.Store, chainPath string, useExample bool, cfg *config.Config, logger *log.Logger) error {
	if useExample {
		sess.SetContracts(session.ExampleContracts())
		return nil
	}
	if chainPath == "" {
		return nil
	}

	f, err := os.Open(chainPath) // #nosec G304 -- chainPath is a user-provided CSV path
	if err != nil {
		return fmt.Errorf("opening chain CSV: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Printf("warning: closing chain CSV: %v", cerr)
		}
	}()

	contracts, rowErrs, err := chainio.ImportChain(f, chainio.ImportOptions{
		UnderlyingPrice:   cfg.Import.UnderlyingPrice,
		ATR:               cfg.Import.ATR,
		DeriveRealizedVol: cfg.Import.DeriveRealizedVol,
	})
	if err != nil {
		return err
	}
	for _, re := range rowErrs {
		logger.Printf("warning: skipped %v", re)
	}
	sess.SetContracts(contracts)
	return nil
}

func printReport(report *analyzer.Report) {
	fmt.Printf("\n%s rankings (%d contracts scored, %d excluded)\n",
		report.Metric, len(report.Rankings), len(report.ScoreFailures))
	for i, r := range report.Rankings {
		fmt.Printf("  %2d. strike %8.2f  score %10.6f\n", i+1, r.Contract.Strike, r.Score)
	}
	for _, f := range report.ScoreFailures {
		fmt.Printf("  --  strike %8.2f  not scored: %v\n", f.Contract.Strike, f.Err)
	}

	if len(report.Simulations) == 0 {
		return
	}
	fmt.Printf("\nSimulation summary\n")
	for _, s := range report.Simulations {
		if s.Err != nil {
			fmt.Printf("  strike %8.2f  failed: %v\n", s.Contract.Strike, s.Err)
			continue
		}
		r := s.Result
		fmt.Printf("  strike %8.2f  avg $%8.2f (%6.2f%%)  win %5.1f%%  best $%8.2f  edge: %s\n",
			s.Contract.Strike, r.AvgReturnDollars, r.AvgReturnPct,
			r.WinRate*100, r.BestCase, r.PrimaryEdgeFactor)
	}
}

func exportReport(path string, report *analyzer.Report) error {
	f, err := os.Create(path) // #nosec G304 -- path is a user-provided output path
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := chainio.ExportReport(f, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func runServer(ctx context.Context, cfg *config.Config, sess *session.Store, agg *analyzer.Aggregator, logger *log.Logger) {
	srvLogger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		srvLogger.SetLevel(lvl)
	}

	srv := server.NewServer(server.Config{
		Port:               cfg.Server.Port,
		AuthToken:          cfg.Server.AuthToken,
		ContractMultiplier: cfg.Hedge.ContractMultiplier,
	}, sess, agg, srvLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Server shutdown error: %v", err)
		}
		logger.Println("Server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}
}
