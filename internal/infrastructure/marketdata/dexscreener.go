package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/trenchcoat/coinwatch/internal/domain"
	"go.uber.org/zap"
)

const (
	DexScreenerBaseURL = "https://api.dexscreener.com/latest/dex/tokens"

	// Anything shorter cannot be a real contract address; short-circuit
	// without a network call.
	minAddressLen = 20
)

type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Client fetches token market data from a DexScreener-style endpoint:
// GET {base}/{contract_address} returning a "pairs" array.
type Client struct {
	baseURL        string
	client         *http.Client
	maxAttempts    int
	initialBackoff time.Duration
	log            *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DexScreenerBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	initialBackoff := cfg.InitialBackoff
	if initialBackoff == 0 {
		initialBackoff = 500 * time.Millisecond
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         &http.Client{Timeout: timeout},
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
		log:            log,
	}
}

// Pair is one trading pair as reported by the API. Numeric fields are
// pointers: the API omits them freely and absent is not zero.
type Pair struct {
	PairAddress string `json:"pairAddress"`
	PriceUsd    string `json:"priceUsd"`
	Liquidity   struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`
	MarketCap *float64 `json:"marketCap"`
	Volume    struct {
		H24 *float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`
}

func (p *Pair) liquidityUSD() float64 {
	if p.Liquidity.USD == nil {
		return 0
	}
	return *p.Liquidity.USD
}

// Snapshot implements domain.MarketDataSource.
func (c *Client) Snapshot(ctx context.Context, contractAddress string) (domain.MarketSnapshot, error) {
	pair, err := c.BestPair(ctx, contractAddress)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	snap := Normalize(pair)
	if snap.Empty() {
		return snap, fmt.Errorf("pair %s had no parseable fields: %w", pair.PairAddress, domain.ErrNoData)
	}
	return snap, nil
}

// BestPair fetches all pairs for the address and returns the one with the
// highest reported liquidity. 429 and 5xx responses are retried with
// exponential backoff; other failures are terminal for this run.
func (c *Client) BestPair(ctx context.Context, contractAddress string) (*Pair, error) {
	address := strings.TrimSpace(contractAddress)
	if len(address) < minAddressLen {
		return nil, fmt.Errorf("address %q: %w", contractAddress, domain.ErrInvalidAddress)
	}

	var best *Pair
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+address, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err // transport errors are retryable
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrNoData))
		}

		var result struct {
			Pairs []Pair `json:"pairs"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %v: %w", err, domain.ErrNoData))
		}
		if len(result.Pairs) == 0 {
			return backoff.Permanent(fmt.Errorf("empty pair list: %w", domain.ErrNoData))
		}

		sort.SliceStable(result.Pairs, func(i, j int) bool {
			return result.Pairs[i].liquidityUSD() > result.Pairs[j].liquidityUSD()
		})
		best = &result.Pairs[0]
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, domain.ErrNoData) {
			return nil, err
		}
		c.log.Debug("fetch exhausted retries",
			zap.String("address", address),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%v: %w", err, domain.ErrNoData)
	}
	return best, nil
}
