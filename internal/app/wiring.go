package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samvad-hq/locinfo/internal/cache"
	"github.com/samvad-hq/locinfo/internal/collector"
	"github.com/samvad-hq/locinfo/internal/config"
	"github.com/samvad-hq/locinfo/internal/logger"
	"github.com/samvad-hq/locinfo/pkg/providers"
)

// collectors holds one collector per cache domain, all sharing a store.
type collectors struct {
	country *collector.CountryCollector
	rates   *collector.CurrencyRatesCollector
	weather *collector.WeatherCollector
	news    *collector.NewsCollector
}

// sources are the provider clients feeding the collectors.
type sources struct {
	country collector.CountrySource
	rates   collector.RatesSource
	weather collector.WeatherSource
	news    collector.NewsSource
	city    *providers.CityClient
}

// buildSources constructs provider clients from the registry. With strict set a
// missing API key is an error; otherwise the affected source reports the error
// when called so cache reads keep working.
func buildSources(cfg *config.Config, reg *providers.Registry, client providers.HTTPClient, strict bool) (sources, error) {
	var (
		out  sources
		errs []error
	)
	provider := func(id string) providers.Provider {
		p, ok := reg.ByID(id)
		if !ok {
			errs = append(errs, fmt.Errorf("provider %q not in registry", id))
		}
		return p
	}
	keep := func(err error) error {
		if err == nil {
			return nil
		}
		if strict || !errors.Is(err, providers.ErrMissingAPIKey) {
			errs = append(errs, err)
		}
		return err
	}

	if c, err := providers.NewCountryClient(provider(providers.IDCountry), client, cfg.APIKeyAPILayer); keep(err) == nil {
		out.country = c
	} else {
		out.country = unavailableSource{err}
	}
	if c, err := providers.NewCurrencyClient(provider(providers.IDCurrency), client, cfg.APIKeyAPILayer); keep(err) == nil {
		out.rates = c
	} else {
		out.rates = unavailableSource{err}
	}
	if c, err := providers.NewWeatherClient(provider(providers.IDWeather), client, cfg.APIKeyOpenWeather); keep(err) == nil {
		out.weather = c
	} else {
		out.weather = unavailableSource{err}
	}
	if c, err := providers.NewNewsClient(provider(providers.IDNews), client, cfg.APIKeyNews); keep(err) == nil {
		out.news = c
	} else {
		out.news = unavailableSource{err}
	}
	// The city lookup is optional on every path.
	if c, err := providers.NewCityClient(provider(providers.IDCity), client, cfg.APIKeyAPILayer); err == nil {
		out.city = c
	}

	if err := errors.Join(errs...); err != nil {
		return sources{}, fmt.Errorf("build provider clients: %w", err)
	}
	return out, nil
}

func buildCollectors(cfg *config.Config, deps collector.Deps, src sources) (collectors, error) {
	country, err := collector.NewCountryCollector(deps, src.country, cfg.CountryBloc, cfg.CacheTTLCountry)
	if err != nil {
		return collectors{}, err
	}
	rates, err := collector.NewCurrencyRatesCollector(deps, src.rates, cfg.CurrencyBase, cfg.CacheTTLCurrencyRates)
	if err != nil {
		return collectors{}, err
	}
	weather, err := collector.NewWeatherCollector(deps, src.weather, cfg.CacheTTLWeather)
	if err != nil {
		return collectors{}, err
	}
	news, err := collector.NewNewsCollector(deps, src.news, country, cfg.CacheTTLNews)
	if err != nil {
		return collectors{}, err
	}
	return collectors{country: country, rates: rates, weather: weather, news: news}, nil
}

func openStore(cfg *config.Config, log logger.Logger) (*cache.Store, error) {
	store, err := cache.NewStore(nil, cfg.MediaPath)
	if err != nil {
		return nil, fmt.Errorf("init cache store: %w", err)
	}
	logger.Ensure(log).DebugObj("cache store ready", "cache", map[string]any{"root": store.Root()})
	return store, nil
}

// unavailableSource stands in for a provider client that could not be built.
type unavailableSource struct{ err error }

func (u unavailableSource) Countries(context.Context, string) (json.RawMessage, error) {
	return nil, u.err
}

func (u unavailableSource) Rates(context.Context, string) (json.RawMessage, error) {
	return nil, u.err
}

func (u unavailableSource) Current(context.Context, string) (json.RawMessage, error) {
	return nil, u.err
}

func (u unavailableSource) TopHeadlines(context.Context, string) (json.RawMessage, error) {
	return nil, u.err
}
