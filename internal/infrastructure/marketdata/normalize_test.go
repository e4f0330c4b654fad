package marketdata

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestNormalize_PartialFields(t *testing.T) {
	// Missing marketCap must not block the price.
	p := &Pair{PriceUsd: "0.00012"}
	p.Liquidity.USD = fptr(5000)

	snap := Normalize(p)

	if snap.Price == nil || *snap.Price != 0.00012 {
		t.Errorf("expected price 0.00012, got %v", snap.Price)
	}
	if snap.LiquidityUSD == nil || *snap.LiquidityUSD != 5000 {
		t.Errorf("expected liquidity 5000, got %v", snap.LiquidityUSD)
	}
	if snap.MarketCap != nil {
		t.Errorf("expected absent market cap, got %v", *snap.MarketCap)
	}
	if snap.Volume24h != nil || snap.PriceChange24h != nil {
		t.Error("expected absent volume and price change")
	}
}

func TestNormalize_BadPriceDoesNotBlockOthers(t *testing.T) {
	p := &Pair{PriceUsd: "not-a-number"}
	p.Volume.H24 = fptr(2000)

	snap := Normalize(p)

	if snap.Price != nil {
		t.Errorf("expected absent price, got %v", *snap.Price)
	}
	if snap.Volume24h == nil || *snap.Volume24h != 2000 {
		t.Errorf("expected volume 2000, got %v", snap.Volume24h)
	}
}

func TestNormalize_NegativeValuesPassThrough(t *testing.T) {
	// No validation beyond type coercion: negative liquidity is kept as-is.
	p := &Pair{}
	p.Liquidity.USD = fptr(-42)
	p.PriceChange.H24 = fptr(-99.9)

	snap := Normalize(p)

	if snap.LiquidityUSD == nil || *snap.LiquidityUSD != -42 {
		t.Errorf("expected liquidity -42, got %v", snap.LiquidityUSD)
	}
	if snap.PriceChange24h == nil || *snap.PriceChange24h != -99.9 {
		t.Errorf("expected price change -99.9, got %v", snap.PriceChange24h)
	}
}

func TestNormalize_NonFiniteDropped(t *testing.T) {
	p := &Pair{PriceUsd: "Inf"}
	p.MarketCap = fptr(math.NaN())

	snap := Normalize(p)

	if snap.Price != nil {
		t.Error("infinite price must be dropped")
	}
	if snap.MarketCap != nil {
		t.Error("NaN market cap must be dropped")
	}
	if !snap.Empty() {
		t.Error("expected an empty snapshot")
	}
}

func TestNormalize_NilPair(t *testing.T) {
	if !Normalize(nil).Empty() {
		t.Error("nil pair must normalize to an empty snapshot")
	}
}
