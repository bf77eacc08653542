package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/locinfo/internal/domain"
	"github.com/samvad-hq/locinfo/internal/logger"
	"github.com/samvad-hq/locinfo/internal/metrics"
)

// Summary describes one orchestrator run.
type Summary struct {
	StartedAt time.Time
	Duration  time.Duration
	Locations int
}

// Orchestrator runs the collectors in dependency order: country and rates
// together, then weather keyed on the country locations, then news.
type Orchestrator struct {
	country *CountryCollector
	rates   *CurrencyRatesCollector
	weather *WeatherCollector
	news    *NewsCollector
	log     logger.Logger
	metrics *metrics.Recorder
}

func NewOrchestrator(country *CountryCollector, rates *CurrencyRatesCollector, weather *WeatherCollector, news *NewsCollector, log logger.Logger, rec *metrics.Recorder) (*Orchestrator, error) {
	if country == nil || rates == nil || weather == nil || news == nil {
		return nil, fmt.Errorf("orchestrator requires all four collectors")
	}
	return &Orchestrator{
		country: country,
		rates:   rates,
		weather: weather,
		news:    news,
		log:     logger.Ensure(log),
		metrics: rec,
	}, nil
}

// Run performs one full collection. Every phase runs even when an earlier one
// reported cache errors; those errors are joined into the result.
func (o *Orchestrator) Run(ctx context.Context) (summary Summary, err error) {
	if o == nil {
		return Summary{}, fmt.Errorf("orchestrator is not initialized")
	}

	summary.StartedAt = time.Now().UTC()
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
		o.metrics.CollectDuration(summary.Duration)
	}()

	var (
		locations  domain.LocationSet
		countryErr error
		ratesErr   error
		g          errgroup.Group
	)
	g.Go(func() error {
		locations, countryErr = o.country.Collect(ctx)
		return nil
	})
	g.Go(func() error {
		ratesErr = o.rates.Collect(ctx)
		return nil
	})
	_ = g.Wait()

	var errs []error
	if countryErr != nil {
		errs = append(errs, fmt.Errorf("collect %s: %w", DomainCountry, countryErr))
	}
	if ratesErr != nil {
		errs = append(errs, fmt.Errorf("collect %s: %w", DomainCurrencyRates, ratesErr))
	}
	if locations == nil {
		locations = domain.NewLocationSet()
	}
	summary.Locations = len(locations)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, errors.Join(append(errs, ctxErr)...)
	}
	if err := o.weather.Collect(ctx, locations); err != nil {
		errs = append(errs, fmt.Errorf("collect %s: %w", DomainWeather, err))
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, errors.Join(append(errs, ctxErr)...)
	}
	if err := o.news.Collect(ctx); err != nil {
		errs = append(errs, fmt.Errorf("collect %s: %w", DomainNews, err))
	}

	o.log.InfoObj("collection finished", "collect_summary", map[string]any{
		"locations":  summary.Locations,
		"elapsed_ms": time.Since(summary.StartedAt).Milliseconds(),
		"errors":     len(errs),
	})
	return summary, errors.Join(errs...)
}
