// Package currency fetches FX rates from an external provider and converts
// amounts between currencies.
//
// The provider never fails a caller: any fetch problem (network, timeout,
// non-2xx, malformed body) degrades to the identity rate table {base: 1}, so
// conversion falls back to returning the input amount.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"dinero/internal/cache"
	"dinero/internal/core"
)

const fetchTimeout = 5 * time.Second

// Provider fetches and caches FX rate tables per base currency.
type Provider struct {
	baseURL string
	client  *http.Client
	cache   cache.Store
}

// NewProvider builds a Provider against the rate API at baseURL
// (GET {baseURL}/{base}). cache may be nil; rates are then fetched on every
// call.
func NewProvider(baseURL string, store cache.Store) *Provider {
	return &Provider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: fetchTimeout},
		cache:   store,
	}
}

type ratesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// GetRates returns the rate table for base. Cached for 24h under
// rates:{base}; on any failure the identity table {base: 1} is returned.
func (p *Provider) GetRates(ctx context.Context, base string) map[string]float64 {
	key := cache.RatesKey(base)
	if p.cache != nil {
		if raw, ok := p.cache.Get(key); ok {
			var rates map[string]float64
			if err := json.Unmarshal([]byte(raw), &rates); err == nil {
				return rates
			}
		}
	}

	rates, err := p.fetch(ctx, base)
	if err != nil {
		slog.WarnContext(ctx, "FX rate fetch failed, using identity rate",
			"base", base, "error", err)
		return map[string]float64{base: 1}
	}

	if p.cache != nil {
		if raw, err := json.Marshal(rates); err == nil {
			p.cache.Set(key, string(raw), cache.TTLRates)
		}
	}
	return rates
}

func (p *Provider) fetch(ctx context.Context, base string) (map[string]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/"+base, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}
	if body.Result != "success" || len(body.Rates) == 0 {
		return nil, fmt.Errorf("rate API returned result %q", body.Result)
	}
	return body.Rates, nil
}

// Convert converts amount from one currency to another, rounding to the cent
// with round-half-away-from-zero. Same-currency conversion returns the input
// unchanged, as does any conversion while the provider is unreachable.
func (p *Provider) Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to {
		return amount
	}
	rates := p.GetRates(ctx, from)
	rate, ok := rates[to]
	if !ok {
		rate = 1
	}
	return core.Round2(amount.Mul(decimal.NewFromFloat(rate)))
}
