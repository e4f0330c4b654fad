package usecase

import (
	"context"
	"time"

	"github.com/trenchcoat/coinwatch/internal/domain"
	"go.uber.org/zap"
)

// Coordinator runs the linear Select -> Enrich -> Report flow. A run ID ties
// attempts into the run ledger so an interrupted run can be resumed without
// re-fetching addresses it already covered.
type Coordinator struct {
	repo       domain.CoinRepository
	enricher   *Enricher
	scheduler  *BatchScheduler
	limit      int
	staleAfter time.Duration
	log        *zap.Logger

	timeNow func() time.Time
}

func NewCoordinator(repo domain.CoinRepository, enricher *Enricher, scheduler *BatchScheduler, limit int, staleAfter time.Duration, log *zap.Logger) *Coordinator {
	return &Coordinator{
		repo:       repo,
		enricher:   enricher,
		scheduler:  scheduler,
		limit:      limit,
		staleAfter: staleAfter,
		log:        log,
		timeNow:    time.Now,
	}
}

func (c *Coordinator) Run(ctx context.Context, runID string) (*domain.RunReport, error) {
	report := domain.NewRunReport(runID)
	report.Started = c.timeNow()

	coins, err := c.repo.ListStale(ctx, c.limit, c.staleAfter)
	if err != nil {
		return nil, err
	}

	if runID != "" {
		attempted, err := c.repo.AttemptedAddresses(ctx, runID)
		if err != nil {
			c.log.Warn("run ledger unavailable, not resuming", zap.String("run_id", runID), zap.Error(err))
		} else if len(attempted) > 0 {
			var remaining []*domain.Coin
			for _, coin := range coins {
				if !attempted[coin.ContractAddress] {
					remaining = append(remaining, coin)
				}
			}
			c.log.Info("resuming run",
				zap.String("run_id", runID),
				zap.Int("already_attempted", len(coins)-len(remaining)),
				zap.Int("remaining", len(remaining)),
			)
			coins = remaining
		}
	}

	c.log.Info("enrichment run starting",
		zap.String("run_id", runID),
		zap.Int("candidates", len(coins)),
	)

	results := c.scheduler.Run(ctx, coins, func(ctx context.Context, coin *domain.Coin) domain.EnrichmentResult {
		res := c.enricher.EnrichOne(ctx, coin)
		if runID != "" {
			if err := c.repo.MarkAttempted(ctx, runID, coin.ContractAddress, res.Status); err != nil {
				c.log.Warn("failed to record attempt",
					zap.String("address", coin.ContractAddress),
					zap.Error(err),
				)
			}
		}
		return res
	})

	for _, res := range results {
		report.Add(res)
	}
	report.Finished = c.timeNow()

	if stats, err := c.repo.Stats(ctx); err != nil {
		c.log.Warn("failed to query coin stats", zap.Error(err))
	} else {
		report.TotalCoins = stats.TotalCoins
		report.CoinsWithPrice = stats.CoinsWithPrice
	}

	c.log.Info("enrichment run finished",
		zap.String("run_id", runID),
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Float64("success_rate", report.SuccessRate()),
	)

	return report, nil
}
