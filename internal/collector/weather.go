package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/locinfo/internal/cache"
	"github.com/samvad-hq/locinfo/internal/domain"
)

// WeatherCollector caches current weather per capital under weather/<capital>_<code>.json.
type WeatherCollector struct {
	base
	source WeatherSource
}

func NewWeatherCollector(deps Deps, source WeatherSource, ttl time.Duration) (*WeatherCollector, error) {
	if source == nil {
		return nil, fmt.Errorf("weather collector: source is required")
	}
	b, err := newBase(DomainWeather, ttl, deps)
	if err != nil {
		return nil, err
	}
	return &WeatherCollector{base: b, source: source}, nil
}

// FilePath maps a location cache name ("riga_lv") to its file.
func (c *WeatherCollector) FilePath(name string) string {
	return c.deps.Store.Path(cache.Key(DomainWeather, name))
}

// Collect refreshes every stale location independently. A failing location
// never blocks the others; cache write errors are joined and returned.
func (c *WeatherCollector) Collect(ctx context.Context, locations domain.LocationSet) error {
	if err := c.deps.Store.EnsureArea(DomainWeather); err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(c.deps.Concurrency)

	for loc := range locations {
		if err := loc.Validate(); err != nil {
			c.log.WarnObj("skipping invalid location", "weather_location", map[string]any{
				"capital": loc.Capital,
				"code":    loc.Alpha2Code,
				"error":   err.Error(),
			})
			continue
		}
		g.Go(func() error {
			key := cache.Key(DomainWeather, loc.CacheName())
			_, err := c.refresh(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
				return c.source.Current(ctx, loc.Query())
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// openWeatherDoc is the subset of the provider document the read path needs.
type openWeatherDoc struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure int     `json:"pressure"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Visibility int `json:"visibility"`
	Timezone   int `json:"timezone"`
}

// Read returns the cached weather for loc.
func (c *WeatherCollector) Read(loc domain.Location) (*domain.Weather, bool, error) {
	var doc openWeatherDoc
	ok, err := c.readJSON(cache.Key(DomainWeather, loc.CacheName()), &doc)
	if err != nil || !ok {
		return nil, false, err
	}

	w := &domain.Weather{
		Temp:       doc.Main.Temp,
		Pressure:   doc.Main.Pressure,
		Humidity:   doc.Main.Humidity,
		WindSpeed:  doc.Wind.Speed,
		Visibility: doc.Visibility,
		Timezone:   doc.Timezone,
	}
	if len(doc.Weather) > 0 {
		w.Description = doc.Weather[0].Description
	}
	return w, true, nil
}

var _ Collector = (*WeatherCollector)(nil)
