package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/trenchcoat/coinwatch/internal/domain"
)

// MockSource returns a canned snapshot or error and counts calls.
type MockSource struct {
	mu    sync.Mutex
	Snap  domain.MarketSnapshot
	Err   error
	Calls int
}

func (m *MockSource) Snapshot(ctx context.Context, contractAddress string) (domain.MarketSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Snap, m.Err
}

// MockRepo records writes in memory.
type MockRepo struct {
	mu        sync.Mutex
	Coins     []*domain.Coin
	Applied   map[string]domain.MarketSnapshot
	Attempted map[string]map[string]domain.EnrichmentStatus
	ApplyErr  error
	StatsVal  domain.CoinStats
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		Applied:   make(map[string]domain.MarketSnapshot),
		Attempted: make(map[string]map[string]domain.EnrichmentStatus),
	}
}

func (m *MockRepo) UpsertCoin(ctx context.Context, coin *domain.Coin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Coins = append(m.Coins, coin)
	return nil
}

func (m *MockRepo) GetCoin(ctx context.Context, contractAddress string) (*domain.Coin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Coins {
		if c.ContractAddress == contractAddress {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MockRepo) ListCoins(ctx context.Context, limit int) ([]*domain.Coin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Coins, nil
}

func (m *MockRepo) ListStale(ctx context.Context, limit int, olderThan time.Duration) ([]*domain.Coin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Coins) > limit {
		return m.Coins[:limit], nil
	}
	return m.Coins, nil
}

func (m *MockRepo) ApplyEnrichment(ctx context.Context, contractAddress string, snap domain.MarketSnapshot, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	m.Applied[contractAddress] = snap
	return nil
}

func (m *MockRepo) Stats(ctx context.Context) (*domain.CoinStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.StatsVal
	return &stats, nil
}

func (m *MockRepo) MarkAttempted(ctx context.Context, runID, contractAddress string, status domain.EnrichmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Attempted[runID] == nil {
		m.Attempted[runID] = make(map[string]domain.EnrichmentStatus)
	}
	m.Attempted[runID][contractAddress] = status
	return nil
}

func (m *MockRepo) AttemptedAddresses(ctx context.Context, runID string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempted := make(map[string]bool)
	for addr := range m.Attempted[runID] {
		attempted[addr] = true
	}
	return attempted, nil
}

func fptr(v float64) *float64 { return &v }
