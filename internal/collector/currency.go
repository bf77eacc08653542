package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/locinfo/internal/domain"
)

const ratesKey = DomainCurrencyRates

// CurrencyRatesCollector caches the exchange rates for one base currency in currency_rates.json.
type CurrencyRatesCollector struct {
	base
	source       RatesSource
	baseCurrency string
}

func NewCurrencyRatesCollector(deps Deps, source RatesSource, baseCurrency string, ttl time.Duration) (*CurrencyRatesCollector, error) {
	if source == nil {
		return nil, fmt.Errorf("currency rates collector: source is required")
	}
	b, err := newBase(DomainCurrencyRates, ttl, deps)
	if err != nil {
		return nil, err
	}
	return &CurrencyRatesCollector{
		base:         b,
		source:       source,
		baseCurrency: strings.ToLower(strings.TrimSpace(baseCurrency)),
	}, nil
}

func (c *CurrencyRatesCollector) FilePath(string) string {
	return c.deps.Store.Path(ratesKey)
}

// Collect refreshes the rates snapshot when stale.
func (c *CurrencyRatesCollector) Collect(ctx context.Context) error {
	_, err := c.refresh(ctx, ratesKey, func(ctx context.Context) (json.RawMessage, error) {
		return c.source.Rates(ctx, c.baseCurrency)
	})
	return err
}

// Read returns the cached rates snapshot.
func (c *CurrencyRatesCollector) Read() (*domain.CurrencyRates, bool, error) {
	var rates domain.CurrencyRates
	ok, err := c.readJSON(ratesKey, &rates)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rates, true, nil
}

var _ Collector = (*CurrencyRatesCollector)(nil)
