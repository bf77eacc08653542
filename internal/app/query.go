package app

import (
	"context"
	"fmt"

	"github.com/samvad-hq/locinfo/internal/collector"
	"github.com/samvad-hq/locinfo/internal/config"
	"github.com/samvad-hq/locinfo/internal/domain"
	"github.com/samvad-hq/locinfo/internal/logger"
	"github.com/samvad-hq/locinfo/internal/reader"
	"github.com/samvad-hq/locinfo/pkg/providers"
)

// Query answers location queries from the caches. Provider keys are optional:
// without them only the live city lookup is lost.
type Query struct {
	reader *reader.Reader
	log    logger.Logger
}

// NewQuery builds the read path over the configured media root.
func NewQuery(cfg *config.Config, log logger.Logger) (*Query, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	src, err := buildSources(cfg, providerReg, providers.DefaultHTTPClient(cfg.HTTPTimeout), false)
	if err != nil {
		return nil, err
	}
	return newQuery(cfg, log, src)
}

func newQuery(cfg *config.Config, log logger.Logger, src sources) (*Query, error) {
	log = logger.Ensure(log)
	store, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	set, err := buildCollectors(cfg, collector.Deps{Store: store, Log: log}, src)
	if err != nil {
		return nil, fmt.Errorf("build collectors: %w", err)
	}

	// A nil *CityClient must stay a nil interface.
	var city reader.CityLookup
	if src.city != nil {
		city = src.city
	}
	r, err := reader.New(set.country, set.rates, set.weather, set.news, city, log)
	if err != nil {
		return nil, err
	}
	return &Query{reader: r, log: log}, nil
}

// Find returns the info for the first cached country matching location, or nil.
func (q *Query) Find(ctx context.Context, location string) (*domain.LocationInfo, error) {
	if q == nil || q.reader == nil {
		return nil, fmt.Errorf("query is not initialized")
	}
	info, err := q.reader.Find(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", location, err)
	}
	if info == nil {
		q.log.InfoObj("no cached country matches", "query", location)
	}
	return info, nil
}
