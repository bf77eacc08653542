package collector

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samvad-hq/locinfo/internal/domain"
	"github.com/samvad-hq/locinfo/pkg/publishers"
)

// Collector is the common surface of the per-domain cache collectors.
type Collector interface {
	Domain() string
	CacheTTL() time.Duration
	FilePath(name string) string
}

// CountrySource returns the country records of a regional bloc.
type CountrySource interface {
	Countries(ctx context.Context, bloc string) (json.RawMessage, error)
}

// RatesSource returns the exchange rates snapshot for a base currency.
type RatesSource interface {
	Rates(ctx context.Context, base string) (json.RawMessage, error)
}

// WeatherSource returns the current weather for a "capital,code" query.
type WeatherSource interface {
	Current(ctx context.Context, query string) (json.RawMessage, error)
}

// NewsSource returns the top headlines document for a two-letter country code.
type NewsSource interface {
	TopHeadlines(ctx context.Context, code string) (json.RawMessage, error)
}

// CountryReader exposes the cached country list to collectors keyed on it.
type CountryReader interface {
	Read() ([]domain.Country, bool, error)
}

// EventPublisher delivers refresh announcements; satisfied by *publishers.Fanout.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// HeadlineTracker remembers announced headlines; satisfied by storage.Tracker.
type HeadlineTracker interface {
	SeenHeadline(id string) (bool, error)
	MarkHeadline(id string) error
}
