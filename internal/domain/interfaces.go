package domain

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidAddress marks an address that fails local validation; no network
// call was made for it.
var ErrInvalidAddress = errors.New("invalid contract address")

// ErrNoData marks a fetch that ended without a usable trading pair (empty
// pair list, non-200 status, malformed body, retries exhausted).
var ErrNoData = errors.New("no market data")

// MarketDataSource fetches and normalizes live market data for one token.
type MarketDataSource interface {
	// Snapshot returns the normalized fields of the best-liquidity pair for
	// the given contract address. Returns ErrInvalidAddress without touching
	// the network for malformed addresses, ErrNoData (possibly wrapped) when
	// nothing usable came back.
	Snapshot(ctx context.Context, contractAddress string) (MarketSnapshot, error)
}

// CoinRepository defines storage operations for coins and run bookkeeping.
type CoinRepository interface {
	// UpsertCoin inserts a newly discovered coin; an existing row with the
	// same contract address is left untouched.
	UpsertCoin(ctx context.Context, coin *Coin) error
	GetCoin(ctx context.Context, contractAddress string) (*Coin, error)
	ListCoins(ctx context.Context, limit int) ([]*Coin, error)

	// ListStale selects up to limit coins that have never been enriched or
	// whose last enrichment is older than the given age, oldest first.
	ListStale(ctx context.Context, limit int, olderThan time.Duration) ([]*Coin, error)

	// ApplyEnrichment updates only the fields present in the snapshot plus
	// the enrichment timestamp. An address that matches no row is a no-op.
	ApplyEnrichment(ctx context.Context, contractAddress string, snap MarketSnapshot, now time.Time) error

	Stats(ctx context.Context) (*CoinStats, error)

	// Run ledger: lets an interrupted run be resumed under the same run ID
	// without re-fetching already attempted addresses.
	MarkAttempted(ctx context.Context, runID, contractAddress string, status EnrichmentStatus) error
	AttemptedAddresses(ctx context.Context, runID string) (map[string]bool, error)
}
