package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/locinfo/internal/cache"
	"github.com/samvad-hq/locinfo/internal/logger"
	"github.com/samvad-hq/locinfo/internal/metrics"
)

// Package collector keeps the per-domain snapshot caches up to date and exposes
// typed read accessors over them.

// Cache domains. Each names the collector and its cache entry or area.
const (
	DomainCountry       = "country"
	DomainCurrencyRates = "currency_rates"
	DomainWeather       = "weather"
	DomainNews          = "news"
)

const defaultConcurrency = 4

// errNothingToStore marks a provider answer that is valid but must not be cached.
var errNothingToStore = errors.New("nothing to store")

// Deps are the collaborators shared by every collector.
type Deps struct {
	Store       *cache.Store
	Log         logger.Logger
	Metrics     *metrics.Recorder
	Announcer   *Announcer
	Concurrency int
}

// base implements the refresh policy shared by all collectors.
type base struct {
	domain string
	ttl    time.Duration
	deps   Deps
	log    logger.Logger
}

func newBase(domain string, ttl time.Duration, deps Deps) (base, error) {
	if deps.Store == nil {
		return base{}, fmt.Errorf("%s collector: cache store is required", domain)
	}
	if ttl <= 0 {
		return base{}, fmt.Errorf("%s collector: ttl must be positive", domain)
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = defaultConcurrency
	}
	return base{domain: domain, ttl: ttl, deps: deps, log: logger.Ensure(deps.Log)}, nil
}

func (b base) Domain() string          { return b.domain }
func (b base) CacheTTL() time.Duration { return b.ttl }

// refresh fetches and persists key when it is stale. Provider failures and empty
// answers leave the existing entry alone and are not returned; only cache I/O errors are.
func (b base) refresh(ctx context.Context, key string, fetch func(context.Context) (json.RawMessage, error)) (bool, error) {
	stale, err := b.deps.Store.IsStale(key, b.ttl)
	if err != nil {
		return false, err
	}
	if !stale {
		b.deps.Metrics.Fresh(b.domain)
		b.log.DebugObj("cache entry fresh", "cache_refresh", map[string]any{
			"domain": b.domain,
			"key":    key,
		})
		return false, nil
	}

	doc, err := fetch(ctx)
	switch {
	case errors.Is(err, errNothingToStore):
		b.log.InfoObj("provider answer not cached", "cache_refresh", map[string]any{
			"domain": b.domain,
			"key":    key,
		})
		return false, nil
	case err != nil:
		b.deps.Metrics.ProviderFailed(b.domain)
		b.log.WarnObj("provider call failed; keeping cached entry", "cache_refresh", map[string]any{
			"domain": b.domain,
			"key":    key,
			"error":  err.Error(),
		})
		return false, nil
	case cache.IsEmptyDocument(doc):
		b.deps.Metrics.ProviderFailed(b.domain)
		b.log.WarnObj("provider returned no data; keeping cached entry", "cache_refresh", map[string]any{
			"domain": b.domain,
			"key":    key,
		})
		return false, nil
	}

	if err := b.deps.Store.Write(key, doc); err != nil {
		b.deps.Metrics.WriteFailed(b.domain)
		b.log.ErrorObj("cache write failed", "cache_refresh", map[string]any{
			"domain": b.domain,
			"key":    key,
			"error":  err.Error(),
		})
		return false, err
	}

	b.deps.Metrics.Refreshed(b.domain)
	b.log.InfoObj("cache entry refreshed", "cache_refresh", map[string]any{
		"domain": b.domain,
		"key":    key,
		"bytes":  len(doc),
	})
	b.deps.Announcer.Refreshed(ctx, b.domain, key, doc)
	return true, nil
}

// readJSON decodes the cached entry into out. A missing entry reports ok=false.
// A corrupt entry is logged and also reported as absent.
func (b base) readJSON(key string, out any) (bool, error) {
	raw, ok, err := b.deps.Store.Read(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		b.log.ErrorObj("cache entry is malformed; treating as absent", "cache_read", map[string]any{
			"domain": b.domain,
			"key":    key,
			"path":   b.deps.Store.Path(key),
			"error":  err.Error(),
		})
		return false, nil
	}
	return true, nil
}
