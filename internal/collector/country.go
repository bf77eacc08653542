package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/locinfo/internal/domain"
)

const countryKey = DomainCountry

// CountryCollector caches the country records of one regional bloc in country.json.
type CountryCollector struct {
	base
	source CountrySource
	bloc   string
}

// NewCountryCollector builds the collector for bloc (for example "eu").
func NewCountryCollector(deps Deps, source CountrySource, bloc string, ttl time.Duration) (*CountryCollector, error) {
	if source == nil {
		return nil, fmt.Errorf("country collector: source is required")
	}
	b, err := newBase(DomainCountry, ttl, deps)
	if err != nil {
		return nil, err
	}
	return &CountryCollector{base: b, source: source, bloc: strings.ToLower(strings.TrimSpace(bloc))}, nil
}

// FilePath ignores name; the country cache is a single entry.
func (c *CountryCollector) FilePath(string) string {
	return c.deps.Store.Path(countryKey)
}

// Collect refreshes the cache when stale, then returns the locations found in
// the cache, whether or not a refresh happened. The set is empty when nothing is cached.
func (c *CountryCollector) Collect(ctx context.Context) (domain.LocationSet, error) {
	_, err := c.refresh(ctx, countryKey, func(ctx context.Context) (json.RawMessage, error) {
		return c.source.Countries(ctx, c.bloc)
	})
	if err != nil {
		return domain.NewLocationSet(), err
	}

	countries, _, err := c.Read()
	if err != nil {
		return domain.NewLocationSet(), err
	}

	locations := domain.NewLocationSet()
	for _, country := range countries {
		loc := country.Location()
		if err := loc.Validate(); err != nil {
			c.log.WarnObj("skipping country without a usable capital", "country_location", map[string]any{
				"name":  country.Name,
				"error": err.Error(),
			})
			continue
		}
		locations.Add(loc)
	}
	return locations, nil
}

// Read returns the cached country records in cache order. Records failing
// validation are dropped with a warning.
func (c *CountryCollector) Read() ([]domain.Country, bool, error) {
	var records []domain.Country
	ok, err := c.readJSON(countryKey, &records)
	if err != nil || !ok {
		return nil, false, err
	}

	out := records[:0]
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			c.log.WarnObj("skipping invalid country record", "cache_read", map[string]any{
				"domain": DomainCountry,
				"error":  err.Error(),
			})
			continue
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out, true, nil
}

var _ Collector = (*CountryCollector)(nil)
