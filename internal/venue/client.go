// Package venue is the single venue price endpoint the swarm reads bonding-
// curve and pool reserves from (spec.md §9(3)'s settled decision: one
// provider, "no tick" on failure). It implements builder.ReservesFetcher,
// builder.PoolLookup, and trigger.PriceSource off the same REST client.
package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Jonaed13/swarm-trader/internal/builder"
)

// Client is a thin REST client over the venue price endpoint
// ("${venueAPI}/coins/${mint}" for bonding-curve reserves,
// "${venueAPI}/pools/${poolAddress}" for AMM pool reserves).
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a venue price client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type coinResponse struct {
	VirtualSolReserves   uint64 `json:"virtual_sol_reserves"`
	VirtualTokenReserves uint64 `json:"virtual_token_reserves"`
}

// GetReserves implements builder.ReservesFetcher.
func (c *Client) GetReserves(ctx context.Context, mint string) (*builder.PumpFunReserves, error) {
	var resp coinResponse
	if err := c.get(ctx, fmt.Sprintf("%s/coins/%s", c.baseURL, mint), &resp); err != nil {
		return nil, fmt.Errorf("fetching reserves for %s: %w", mint, err)
	}
	return &builder.PumpFunReserves{
		VirtualSolReserves:   resp.VirtualSolReserves,
		VirtualTokenReserves: resp.VirtualTokenReserves,
	}, nil
}

type poolResponse struct {
	BaseReserve  uint64 `json:"base_reserve"`
	QuoteReserve uint64 `json:"quote_reserve"`
}

// GetPoolReserves implements builder.PoolLookup. If poolAddress is empty,
// the endpoint is queried by mint instead (the venue resolves the pool for
// us) per builder.PoolLookup's documented contract.
func (c *Client) GetPoolReserves(ctx context.Context, poolAddress, mint string) (*builder.PoolReserves, error) {
	key := poolAddress
	if key == "" {
		key = mint
	}

	var resp poolResponse
	if err := c.get(ctx, fmt.Sprintf("%s/pools/%s", c.baseURL, key), &resp); err != nil {
		return nil, fmt.Errorf("fetching pool reserves for %s: %w", key, err)
	}
	return &builder.PoolReserves{
		BaseReserve:  resp.BaseReserve,
		QuoteReserve: resp.QuoteReserve,
	}, nil
}

// CurrentPrice implements trigger.PriceSource: base-currency price per unit
// of mint, computed off the same reserves the matching builder quotes
// against.
func (c *Client) CurrentPrice(ctx context.Context, mint string, venueTag builder.VenueTag) (float64, error) {
	switch venueTag {
	case builder.VenuePumpFun:
		reserves, err := c.GetReserves(ctx, mint)
		if err != nil {
			return 0, err
		}
		return builder.PriceFromReserves(reserves.VirtualTokenReserves, reserves.VirtualSolReserves), nil
	case builder.VenueRaydium:
		reserves, err := c.GetPoolReserves(ctx, "", mint)
		if err != nil {
			return 0, err
		}
		return builder.PriceFromReserves(reserves.BaseReserve, reserves.QuoteReserve), nil
	default:
		// Jupiter aggregates across venues; fall back to the pool endpoint
		// since it has no reserves concept of its own.
		reserves, err := c.GetPoolReserves(ctx, "", mint)
		if err != nil {
			return 0, err
		}
		return builder.PriceFromReserves(reserves.BaseReserve, reserves.QuoteReserve), nil
	}
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Warn().Int("status", resp.StatusCode).Str("url", url).Bytes("body", body).Msg("venue: non-200 response")
		return fmt.Errorf("venue endpoint returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
