package collector

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/locinfo/internal/cache"
	"github.com/samvad-hq/locinfo/internal/metrics"
)

// orderedWeather fails the test if weather is requested before the country cache exists.
type orderedWeather struct {
	*fakeSource
	env        *testEnv
	outOfOrder atomic.Bool
}

func (o *orderedWeather) Current(ctx context.Context, query string) (json.RawMessage, error) {
	if !o.env.exists(countryKey) {
		o.outOfOrder.Store(true)
	}
	return o.fakeSource.Current(ctx, query)
}

type harness struct {
	env      *testEnv
	countryS *fakeSource
	ratesS   *fakeSource
	weatherS *orderedWeather
	newsS    *fakeSource
	orch     *Orchestrator
}

func newHarness(t *testing.T, deps func(*testEnv) Deps) *harness {
	t.Helper()
	env := newTestEnv(t)
	if deps != nil {
		env.deps = deps(env)
	}
	h := &harness{
		env:      env,
		countryS: newFakeSource().set("eu", balticDoc),
		ratesS:   newFakeSource().set("rub", `{"base": "RUB", "date": "2022-09-14", "rates": {"EUR": 0.016503}}`),
		weatherS: &orderedWeather{
			fakeSource: newFakeSource().set("Riga,LV", weatherDoc).set("Tallinn,EE", weatherDoc).set("Mariehamn,AX", weatherDoc),
			env:        env,
		},
		newsS: newFakeSource().set("lv", latviaNewsDoc),
	}

	country, err := NewCountryCollector(env.deps, h.countryS, "eu", 365*24*time.Hour)
	if err != nil {
		t.Fatalf("country: %v", err)
	}
	rates, err := NewCurrencyRatesCollector(env.deps, h.ratesS, "rub", 24*time.Hour)
	if err != nil {
		t.Fatalf("rates: %v", err)
	}
	weather, err := NewWeatherCollector(env.deps, h.weatherS, weatherTTL)
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	news, err := NewNewsCollector(env.deps, h.newsS, country, time.Hour)
	if err != nil {
		t.Fatalf("news: %v", err)
	}
	h.orch, err = NewOrchestrator(country, rates, weather, news, env.deps.Log, env.deps.Metrics)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return h
}

func TestOrchestratorRunPopulatesEveryCache(t *testing.T) {
	rec := metrics.New()
	h := newHarness(t, func(e *testEnv) Deps {
		d := e.deps
		d.Metrics = rec
		return d
	})

	summary, err := h.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Locations != 3 {
		t.Fatalf("summary locations = %d", summary.Locations)
	}
	if summary.Duration <= 0 {
		t.Fatalf("summary duration not recorded")
	}
	if h.weatherS.outOfOrder.Load() {
		t.Fatalf("weather ran before the country cache existed")
	}

	for _, key := range []string{
		countryKey,
		ratesKey,
		cache.Key(DomainWeather, "riga_lv"),
		cache.Key(DomainWeather, "tallinn_ee"),
		cache.Key(DomainWeather, "mariehamn_ax"),
		cache.Key(DomainNews, "latvia_lv"),
	} {
		if !h.env.exists(key) {
			t.Fatalf("missing cache entry %s", key)
		}
	}

	if _, err := h.orch.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	calls := h.countryS.total() + h.ratesS.total() + h.weatherS.total() + h.newsS.total()
	if calls != 6 {
		t.Fatalf("second run must be served from cache, total calls=%d", calls)
	}
}

func TestOrchestratorToleratesProviderOutages(t *testing.T) {
	h := newHarness(t, nil)
	h.countryS.fail("eu", errProviderDown)
	h.ratesS.fail("rub", errProviderDown)

	summary, err := h.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("provider outages must not fail the run: %v", err)
	}
	if summary.Locations != 0 || h.weatherS.total() != 0 || h.newsS.total() != 0 {
		t.Fatalf("nothing downstream should run without countries")
	}
}

func TestOrchestratorStopsOnCancelledContext(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.orch.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if h.weatherS.total() != 0 || h.newsS.total() != 0 {
		t.Fatalf("later phases must not run after cancellation")
	}
}

func TestNewOrchestratorRequiresCollectors(t *testing.T) {
	if _, err := NewOrchestrator(nil, nil, nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}
