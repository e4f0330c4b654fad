package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/trenchcoat/coinwatch/internal/domain"
	"go.uber.org/zap"
)

// BatchScheduler processes coins in consecutive, non-overlapping batches.
// Items inside a batch run concurrently on a worker pool; the next batch
// starts only after the previous one fully completes, with a fixed delay in
// between as informal rate limiting. The delay is not inserted after the
// final batch.
type BatchScheduler struct {
	batchSize  int
	batchDelay time.Duration
	log        *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewBatchScheduler(batchSize int, batchDelay time.Duration, log *zap.Logger) *BatchScheduler {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchScheduler{
		batchSize:  batchSize,
		batchDelay: batchDelay,
		log:        log,
		sleep:      sleepCtx,
	}
}

// Run drives process over every coin. Results arrive in unspecified order
// within a batch; batches themselves are strictly ordered. Cancelling the
// context stops the run at the next batch boundary.
func (s *BatchScheduler) Run(ctx context.Context, coins []*domain.Coin, process func(ctx context.Context, coin *domain.Coin) domain.EnrichmentResult) []domain.EnrichmentResult {
	results := make([]domain.EnrichmentResult, 0, len(coins))
	var mu sync.Mutex

	pool := pond.NewPool(s.batchSize)
	defer pool.StopAndWait()

	for start := 0; start < len(coins); start += s.batchSize {
		if ctx.Err() != nil {
			s.log.Info("run cancelled", zap.Int("remaining", len(coins)-start))
			break
		}

		end := start + s.batchSize
		if end > len(coins) {
			end = len(coins)
		}
		batch := coins[start:end]

		group := pool.NewGroup()
		for _, coin := range batch {
			c := coin
			group.Submit(func() {
				res := process(ctx, c)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			})
		}
		_ = group.Wait()

		s.log.Debug("batch complete",
			zap.Int("batch_start", start),
			zap.Int("batch_size", len(batch)),
		)

		if end < len(coins) {
			if err := s.sleep(ctx, s.batchDelay); err != nil {
				break
			}
		}
	}

	return results
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
