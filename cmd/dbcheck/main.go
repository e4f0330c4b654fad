package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/trenchcoat/coinwatch/internal/infrastructure/storage"
)

func main() {
	dbPath := flag.String("db", "coins.db", "database path")
	limit := flag.Int("limit", 50, "max coins to print")
	flag.Parse()

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("Failed to init sqlite: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	coins, err := store.ListCoins(ctx, *limit)
	if err != nil {
		fmt.Printf("Failed to list coins: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d coins:\n", len(coins))
	for _, c := range coins {
		fmt.Printf("- %s (%s)\n", c.Ticker, c.ContractAddress)
		if c.CurrentPrice != nil {
			fmt.Printf("  ✅ price=%.8f", *c.CurrentPrice)
			if c.LiquidityUSD != nil {
				fmt.Printf(" liquidity=%.0f", *c.LiquidityUSD)
			}
			if c.MarketCap != nil {
				fmt.Printf(" mcap=%.0f", *c.MarketCap)
			}
			if c.LastEnrichedAt != nil {
				fmt.Printf(" enriched=%s", c.LastEnrichedAt.Format("2006-01-02 15:04:05"))
			}
			fmt.Println()
		} else {
			fmt.Printf("  ⚠️ never enriched\n")
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		fmt.Printf("Failed to get stats: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nTotal: %d coins, %d with price\n", stats.TotalCoins, stats.CoinsWithPrice)
}
