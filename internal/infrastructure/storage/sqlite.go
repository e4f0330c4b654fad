package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/trenchcoat/coinwatch/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS coins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker TEXT NOT NULL,
			contract_address TEXT NOT NULL UNIQUE,
			discovery_price REAL,
			discovery_market_cap REAL,
			current_price REAL,
			liquidity_usd REAL,
			market_cap REAL,
			volume_24h REAL,
			price_change_24h REAL,
			smart_wallet_count INTEGER NOT NULL DEFAULT 0,
			peak_volume REAL,
			last_enriched_at DATETIME,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_coins_last_enriched ON coins(last_enriched_at);`,
		`CREATE TABLE IF NOT EXISTS run_attempts (
			run_id TEXT NOT NULL,
			contract_address TEXT NOT NULL,
			status TEXT NOT NULL,
			attempted_at DATETIME NOT NULL,
			PRIMARY KEY (run_id, contract_address)
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	// Migration: older databases predate these columns.
	// We ignore the error if the column already exists
	_, _ = s.db.Exec(`ALTER TABLE coins ADD COLUMN smart_wallet_count INTEGER NOT NULL DEFAULT 0`)
	_, _ = s.db.Exec(`ALTER TABLE coins ADD COLUMN peak_volume REAL`)

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const coinColumns = `ticker, contract_address, discovery_price, discovery_market_cap,
	current_price, liquidity_usd, market_cap, volume_24h, price_change_24h,
	smart_wallet_count, peak_volume, last_enriched_at, created_at`

// CoinRepository Implementation

func (s *SQLiteStore) UpsertCoin(ctx context.Context, coin *domain.Coin) error {
	query := `INSERT INTO coins (` + coinColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(contract_address) DO NOTHING`
	createdAt := coin.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		coin.Ticker, coin.ContractAddress, coin.DiscoveryPrice, coin.DiscoveryMarketCap,
		coin.CurrentPrice, coin.LiquidityUSD, coin.MarketCap, coin.Volume24h, coin.PriceChange24h,
		coin.SmartWalletCount, coin.PeakVolume, coin.LastEnrichedAt, createdAt)
	return err
}

func (s *SQLiteStore) GetCoin(ctx context.Context, contractAddress string) (*domain.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins WHERE contract_address = ?`
	row := s.db.QueryRowContext(ctx, query, contractAddress)
	return scanCoin(row)
}

func (s *SQLiteStore) ListCoins(ctx context.Context, limit int) ([]*domain.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCoins(rows)
}

func (s *SQLiteStore) ListStale(ctx context.Context, limit int, olderThan time.Duration) ([]*domain.Coin, error) {
	cutoff := time.Now().Add(-olderThan)
	query := `SELECT ` + coinColumns + ` FROM coins
			  WHERE current_price IS NULL
			     OR last_enriched_at IS NULL
			     OR last_enriched_at < ?
			  ORDER BY last_enriched_at IS NOT NULL, last_enriched_at ASC
			  LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCoins(rows)
}

// ApplyEnrichment updates only the snapshot fields that are present. An
// address that matches no row is a silent no-op.
func (s *SQLiteStore) ApplyEnrichment(ctx context.Context, contractAddress string, snap domain.MarketSnapshot, now time.Time) error {
	sets := []string{"last_enriched_at = ?"}
	args := []interface{}{now}

	if snap.Price != nil {
		sets = append(sets, "current_price = ?")
		args = append(args, *snap.Price)
	}
	if snap.LiquidityUSD != nil {
		sets = append(sets, "liquidity_usd = ?")
		args = append(args, *snap.LiquidityUSD)
	}
	if snap.MarketCap != nil {
		sets = append(sets, "market_cap = ?")
		args = append(args, *snap.MarketCap)
	}
	if snap.Volume24h != nil {
		sets = append(sets, "volume_24h = ?")
		args = append(args, *snap.Volume24h)
	}
	if snap.PriceChange24h != nil {
		sets = append(sets, "price_change_24h = ?")
		args = append(args, *snap.PriceChange24h)
	}

	args = append(args, contractAddress)
	query := `UPDATE coins SET ` + strings.Join(sets, ", ") + ` WHERE contract_address = ?`
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLiteStore) Stats(ctx context.Context) (*domain.CoinStats, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(current_price) FROM coins`)
	var stats domain.CoinStats
	if err := row.Scan(&stats.TotalCoins, &stats.CoinsWithPrice); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Run ledger

func (s *SQLiteStore) MarkAttempted(ctx context.Context, runID, contractAddress string, status domain.EnrichmentStatus) error {
	query := `INSERT INTO run_attempts (run_id, contract_address, status, attempted_at)
			  VALUES (?, ?, ?, ?)
			  ON CONFLICT(run_id, contract_address) DO UPDATE SET
			  status=excluded.status,
			  attempted_at=excluded.attempted_at`
	_, err := s.db.ExecContext(ctx, query, runID, contractAddress, string(status), time.Now())
	return err
}

func (s *SQLiteStore) AttemptedAddresses(ctx context.Context, runID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT contract_address FROM run_attempts WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempted := make(map[string]bool)
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		attempted[addr] = true
	}
	return attempted, rows.Err()
}

// scanning helpers

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCoin(row rowScanner) (*domain.Coin, error) {
	var c domain.Coin
	var discoveryPrice, discoveryMcap, price, liq, mcap, vol, change, peak sql.NullFloat64
	var enrichedAt sql.NullTime

	err := row.Scan(&c.Ticker, &c.ContractAddress, &discoveryPrice, &discoveryMcap,
		&price, &liq, &mcap, &vol, &change,
		&c.SmartWalletCount, &peak, &enrichedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.DiscoveryPrice = nullToPtr(discoveryPrice)
	c.DiscoveryMarketCap = nullToPtr(discoveryMcap)
	c.CurrentPrice = nullToPtr(price)
	c.LiquidityUSD = nullToPtr(liq)
	c.MarketCap = nullToPtr(mcap)
	c.Volume24h = nullToPtr(vol)
	c.PriceChange24h = nullToPtr(change)
	c.PeakVolume = nullToPtr(peak)
	if enrichedAt.Valid {
		t := enrichedAt.Time
		c.LastEnrichedAt = &t
	}
	return &c, nil
}

func scanCoins(rows *sql.Rows) ([]*domain.Coin, error) {
	var coins []*domain.Coin
	for rows.Next() {
		c, err := scanCoin(rows)
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	return coins, rows.Err()
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
