// Package quote marks open positions to market from an external price
// endpoint. It is optional: when no quote URL is configured the dashboard
// values positions at their persisted prices.
package quote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"papertrade-dash/internal/store"

	"github.com/go-resty/resty/v2"
)

// Client fetches current prices over HTTP.
type Client struct {
	base string
	rest *resty.Client
}

// New creates a quote client for the given endpoint.
func New(baseURL string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Client{base: baseURL, rest: r}
}

type pricesResp struct {
	Prices map[string]float64 `json:"prices"`
}

// Prices fetches current prices for the given symbols.
func (c *Client) Prices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	resp := &pricesResp{}
	r, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		SetResult(resp).
		Get(c.base)
	if err != nil {
		return nil, err
	}
	if r.IsError() {
		return nil, fmt.Errorf("quote: %s", r.Status())
	}
	return resp.Prices, nil
}

// Refresh updates CurrentPrice on every position a quote came back for.
// Positions without a quote keep their persisted price.
func (c *Client) Refresh(ctx context.Context, state *store.PortfolioState) error {
	symbols := make([]string, 0, len(state.Positions))
	for symbol := range state.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	prices, err := c.Prices(ctx, symbols)
	if err != nil {
		return err
	}

	for symbol, price := range prices {
		pos, ok := state.Positions[symbol]
		if !ok || price <= 0 {
			continue
		}
		pos.CurrentPrice = price
		state.Positions[symbol] = pos
	}
	return nil
}
