package marketdata

import (
	"math"
	"strconv"

	"github.com/trenchcoat/coinwatch/internal/domain"
)

// Normalize coerces a raw pair into the fixed snapshot field set. Each field
// is guarded independently: a value that fails to parse is left absent and
// the rest are unaffected. No unit conversion or sign validation is applied.
func Normalize(p *Pair) domain.MarketSnapshot {
	var snap domain.MarketSnapshot
	if p == nil {
		return snap
	}

	if v, err := strconv.ParseFloat(p.PriceUsd, 64); err == nil && isFinite(v) {
		snap.Price = &v
	}
	snap.LiquidityUSD = finitePtr(p.Liquidity.USD)
	snap.MarketCap = finitePtr(p.MarketCap)
	snap.Volume24h = finitePtr(p.Volume.H24)
	snap.PriceChange24h = finitePtr(p.PriceChange.H24)

	return snap
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finitePtr(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}
	f := *v
	return &f
}
