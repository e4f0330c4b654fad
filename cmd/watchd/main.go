package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/trenchcoat/coinwatch/internal/config"
	"github.com/trenchcoat/coinwatch/internal/domain"
	"github.com/trenchcoat/coinwatch/internal/infrastructure/discovery"
	"github.com/trenchcoat/coinwatch/internal/infrastructure/logger"
	"github.com/trenchcoat/coinwatch/internal/infrastructure/marketdata"
	"github.com/trenchcoat/coinwatch/internal/infrastructure/storage"
	"github.com/trenchcoat/coinwatch/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Market Data Client
	client := marketdata.NewClient(marketdata.Config{
		BaseURL:        cfg.MarketData.BaseURL,
		Timeout:        cfg.HTTPTimeout(),
		MaxAttempts:    cfg.MarketData.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff(),
	}, log)

	// 5. Init Services
	enricher := usecase.NewEnricher(client, store, false, log)
	scheduler := usecase.NewBatchScheduler(cfg.Enrichment.BatchSize, cfg.BatchDelay(), log)
	coordinator := usecase.NewCoordinator(store, enricher, scheduler, cfg.Enrichment.MaxCoins, cfg.StaleAfter(), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 6. Discovery Feed: new tokens become coin rows with discovery fields
	// set once; the cron runs pick them up as stale.
	feed := discovery.NewPumpFeed(cfg.Discovery.WSEndpoint, log)
	feed.OnNewToken(func(ev discovery.NewTokenEvent) {
		coin := &domain.Coin{
			Ticker:             ev.Symbol,
			ContractAddress:    ev.Mint,
			DiscoveryMarketCap: ev.UsdMarketCap,
			CreatedAt:          time.Now(),
		}
		if err := store.UpsertCoin(ctx, coin); err != nil {
			log.Error("Failed to save discovered coin", zap.String("mint", ev.Mint), zap.Error(err))
			return
		}
		log.Info("Discovered new token",
			zap.String("ticker", ev.Symbol),
			zap.String("mint", ev.Mint),
		)
	})
	if err := feed.Connect(); err != nil {
		log.Error("Discovery feed unavailable, running enrichment only", zap.Error(err))
	}
	go func() {
		<-feed.Done()
		log.Warn("Discovery feed disconnected")
	}()

	// 7. Cron-driven enrichment runs
	cronLog := cron.PrintfLogger(zap.NewStdLog(log))
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLog)))
	_, err = c.AddFunc(cfg.Daemon.CronSpec, func() {
		runID := time.Now().Format("20060102T150405")
		report, err := coordinator.Run(ctx, runID)
		if err != nil {
			log.Error("Enrichment run failed", zap.String("run_id", runID), zap.Error(err))
			return
		}
		log.Info("Scheduled run complete",
			zap.String("run_id", runID),
			zap.Int("processed", report.Processed),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
		)
	})
	if err != nil {
		log.Fatal("Invalid cron spec", zap.String("spec", cfg.Daemon.CronSpec), zap.Error(err))
	}
	c.Start()

	// 8. Wait for Shutdown
	<-stop

	log.Info("Shutting down...")
	cancel()
	feed.Close()
	cronCtx := c.Stop()
	<-cronCtx.Done()
}
