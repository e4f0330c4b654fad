package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/trenchcoat/coinwatch/internal/domain"
	"go.uber.org/zap"
)

// Enricher runs the per-coin pipeline: fetch, normalize, write. Every
// failure mode is converted into an EnrichmentResult; nothing escapes as a
// panic or aborts the surrounding run.
type Enricher struct {
	source domain.MarketDataSource
	repo   domain.CoinRepository
	dryRun bool
	log    *zap.Logger

	timeNow func() time.Time
}

func NewEnricher(source domain.MarketDataSource, repo domain.CoinRepository, dryRun bool, log *zap.Logger) *Enricher {
	return &Enricher{
		source:  source,
		repo:    repo,
		dryRun:  dryRun,
		log:     log,
		timeNow: time.Now,
	}
}

func (e *Enricher) EnrichOne(ctx context.Context, coin *domain.Coin) domain.EnrichmentResult {
	res := domain.EnrichmentResult{
		ContractAddress: coin.ContractAddress,
		Ticker:          coin.Ticker,
	}

	snap, err := e.source.Snapshot(ctx, coin.ContractAddress)
	switch {
	case errors.Is(err, domain.ErrInvalidAddress):
		res.Status = domain.StatusSkipped
		res.Reason = err.Error()
		return res
	case err != nil:
		res.Status = domain.StatusNoData
		res.Reason = err.Error()
		e.log.Debug("no market data",
			zap.String("ticker", coin.Ticker),
			zap.String("address", coin.ContractAddress),
			zap.Error(err),
		)
		return res
	}

	if e.dryRun {
		res.Status = domain.StatusEnriched
		res.Reason = "dry run, write skipped"
		return res
	}

	if err := e.repo.ApplyEnrichment(ctx, coin.ContractAddress, snap, e.timeNow()); err != nil {
		res.Status = domain.StatusWriteFailed
		res.Reason = err.Error()
		e.log.Warn("enrichment write failed",
			zap.String("ticker", coin.Ticker),
			zap.String("address", coin.ContractAddress),
			zap.Error(err),
		)
		return res
	}

	res.Status = domain.StatusEnriched
	return res
}
