package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trenchcoat/coinwatch/internal/domain"
	"go.uber.org/zap"
)

func makeCoins(n int) []*domain.Coin {
	coins := make([]*domain.Coin, n)
	for i := range coins {
		coins[i] = &domain.Coin{
			Ticker:          fmt.Sprintf("T%d", i),
			ContractAddress: fmt.Sprintf("SchedulerAddr%020d", i),
		}
	}
	return coins
}

func TestBatchScheduler_BatchBoundaries(t *testing.T) {
	s := NewBatchScheduler(3, time.Second, zap.NewNop())

	var mu sync.Mutex
	processed := 0
	var barrierCounts []int

	// The delay runs only at batch boundaries, after the fan-in barrier, so
	// the processed count observed there reveals the batch sizes.
	s.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		barrierCounts = append(barrierCounts, processed)
		mu.Unlock()
		return nil
	}

	coins := makeCoins(7)
	results := s.Run(context.Background(), coins, func(ctx context.Context, coin *domain.Coin) domain.EnrichmentResult {
		mu.Lock()
		processed++
		mu.Unlock()
		return domain.EnrichmentResult{ContractAddress: coin.ContractAddress, Status: domain.StatusEnriched}
	})

	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	// 7 items, batch size 3: delay after batch 1 (3 done) and batch 2
	// (6 done), never after the final batch.
	if len(barrierCounts) != 2 {
		t.Fatalf("expected exactly 2 inter-batch delays, got %d", len(barrierCounts))
	}
	if barrierCounts[0] != 3 || barrierCounts[1] != 6 {
		t.Errorf("expected batch sizes 3/3/1, observed barrier counts %v", barrierCounts)
	}
}

func TestBatchScheduler_SingleBatchNoDelay(t *testing.T) {
	s := NewBatchScheduler(10, time.Second, zap.NewNop())

	delays := 0
	s.sleep = func(ctx context.Context, d time.Duration) error {
		delays++
		return nil
	}

	results := s.Run(context.Background(), makeCoins(4), func(ctx context.Context, coin *domain.Coin) domain.EnrichmentResult {
		return domain.EnrichmentResult{Status: domain.StatusEnriched}
	})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if delays != 0 {
		t.Errorf("a single batch must not sleep, got %d delays", delays)
	}
}

func TestBatchScheduler_CancelStopsAtBoundary(t *testing.T) {
	s := NewBatchScheduler(2, time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	processed := 0

	results := s.Run(ctx, makeCoins(10), func(ctx context.Context, coin *domain.Coin) domain.EnrichmentResult {
		mu.Lock()
		processed++
		if processed == 2 {
			cancel()
		}
		mu.Unlock()
		return domain.EnrichmentResult{Status: domain.StatusEnriched}
	})

	// The first batch completes; nothing past the boundary starts.
	if len(results) != 2 {
		t.Errorf("expected 2 results before cancellation, got %d", len(results))
	}
}

func TestBatchScheduler_EmptyInput(t *testing.T) {
	s := NewBatchScheduler(3, time.Second, zap.NewNop())
	results := s.Run(context.Background(), nil, func(ctx context.Context, coin *domain.Coin) domain.EnrichmentResult {
		t.Fatal("process must not be called")
		return domain.EnrichmentResult{}
	})
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
