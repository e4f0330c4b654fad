package domain

import "time"

// Coin represents one tracked token. Discovery fields are captured once when
// the token is first seen and never overwritten; market fields are replaced
// by each successful enrichment.
type Coin struct {
	Ticker          string
	ContractAddress string

	DiscoveryPrice     *float64
	DiscoveryMarketCap *float64

	CurrentPrice   *float64
	LiquidityUSD   *float64
	MarketCap      *float64
	Volume24h      *float64
	PriceChange24h *float64

	// Populated by a separate ingestion path, carried through untouched.
	SmartWalletCount int
	PeakVolume       *float64

	LastEnrichedAt *time.Time
	CreatedAt      time.Time
}

// MarketSnapshot is the normalized field set extracted from a single trading
// pair. A nil field means the source did not provide a usable value; it must
// never be written to storage as zero.
type MarketSnapshot struct {
	Price          *float64
	LiquidityUSD   *float64
	MarketCap      *float64
	Volume24h      *float64
	PriceChange24h *float64
}

// Empty reports whether no field at all survived normalization.
func (s MarketSnapshot) Empty() bool {
	return s.Price == nil && s.LiquidityUSD == nil && s.MarketCap == nil &&
		s.Volume24h == nil && s.PriceChange24h == nil
}

// CoinStats is the aggregate queried after a run.
type CoinStats struct {
	TotalCoins     int
	CoinsWithPrice int
}
