package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trenchcoat/coinwatch/internal/config"
	"github.com/trenchcoat/coinwatch/internal/domain"
	"github.com/trenchcoat/coinwatch/internal/infrastructure/logger"
	"github.com/trenchcoat/coinwatch/internal/infrastructure/marketdata"
	"github.com/trenchcoat/coinwatch/internal/infrastructure/storage"
	"github.com/trenchcoat/coinwatch/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dbPath := flag.String("db", "", "override database path")
	limit := flag.Int("limit", 0, "override max coins to enrich")
	batchSize := flag.Int("batch", 0, "override batch size")
	dryRun := flag.Bool("dry-run", false, "fetch and normalize but skip writes")
	runID := flag.String("run-id", "", "run ID (reuse to resume an interrupted run)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config %s, using defaults: %v\n", *configPath, err)
		cfg = config.Default()
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *limit > 0 {
		cfg.Enrichment.MaxCoins = *limit
	}
	if *batchSize > 0 {
		cfg.Enrichment.BatchSize = *batchSize
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	client := marketdata.NewClient(marketdata.Config{
		BaseURL:        cfg.MarketData.BaseURL,
		Timeout:        cfg.HTTPTimeout(),
		MaxAttempts:    cfg.MarketData.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff(),
	}, log)

	enricher := usecase.NewEnricher(client, store, *dryRun, log)
	scheduler := usecase.NewBatchScheduler(cfg.Enrichment.BatchSize, cfg.BatchDelay(), log)
	coordinator := usecase.NewCoordinator(store, enricher, scheduler, cfg.Enrichment.MaxCoins, cfg.StaleAfter(), log)

	id := *runID
	if id == "" {
		id = time.Now().Format("20060102T150405")
	}

	// Ctrl+C cancels at the next batch boundary instead of abandoning
	// in-flight writes.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := coordinator.Run(ctx, id)
	if err != nil {
		log.Fatal("Run failed", zap.Error(err))
	}

	displayReport(report)
}

func displayReport(report *domain.RunReport) {
	fmt.Printf("Enrichment run %s (%s):\n", report.RunID, report.Finished.Sub(report.Started).Round(time.Millisecond))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Processed", "Succeeded", "Failed", "Success Rate"})
	t.AppendRow(table.Row{
		report.Processed,
		report.Succeeded,
		report.Failed,
		fmt.Sprintf("%.1f%%", report.SuccessRate()),
	})
	t.Render()

	if failures := report.FailureReasons(); len(failures) > 0 {
		ft := table.NewWriter()
		ft.SetOutputMirror(os.Stdout)
		ft.AppendHeader(table.Row{"Ticker", "Address", "Status", "Reason"})
		for _, f := range failures {
			ft.AppendRow(table.Row{f.Ticker, f.ContractAddress, string(f.Status), f.Reason})
		}
		ft.Render()
	}

	fmt.Printf("Database: %d coins total, %d with a live price\n", report.TotalCoins, report.CoinsWithPrice)
}
