package collector

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/samvad-hq/locinfo/internal/cache"
	"github.com/samvad-hq/locinfo/internal/domain"
)

const weatherTTL = 10700 * time.Second

func TestWeatherCollectRefreshesOnlyStaleLocations(t *testing.T) {
	env := newTestEnv(t)
	riga, tallinn := loc("Riga", "LV"), loc("Tallinn", "EE")
	rigaKey := cache.Key(DomainWeather, riga.CacheName())
	tallinnKey := cache.Key(DomainWeather, tallinn.CacheName())

	env.seed(t, rigaKey, weatherDoc, weatherTTL+time.Minute)
	env.seed(t, tallinnKey, weatherDoc, time.Minute)
	rigaBefore, tallinnBefore := env.mtime(t, rigaKey), env.mtime(t, tallinnKey)

	src := newFakeSource().
		set("Riga,LV", `{"main": {"temp": 9.5}, "weather": [{"description": "fog"}]}`).
		set("Tallinn,EE", weatherDoc)
	w, err := NewWeatherCollector(env.deps, src, weatherTTL)
	if err != nil {
		t.Fatalf("NewWeatherCollector: %v", err)
	}

	if err := w.Collect(context.Background(), domain.NewLocationSet(riga, tallinn)); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if src.total() != 1 || src.count("Riga,LV") != 1 {
		t.Fatalf("expected exactly one call for the stale entry, calls=%v", src.calls)
	}
	if env.mtime(t, rigaKey).Equal(rigaBefore) {
		t.Fatalf("refreshed entry mtime did not change")
	}
	if !env.mtime(t, tallinnKey).Equal(tallinnBefore) {
		t.Fatalf("fresh entry was rewritten")
	}

	got, ok, err := w.Read(riga)
	if err != nil || !ok {
		t.Fatalf("Read ok=%v err=%v", ok, err)
	}
	if got.Temp != 9.5 || got.Description != "fog" {
		t.Fatalf("unexpected weather %#v", got)
	}
}

func TestWeatherCollectFailureIsolatedPerLocation(t *testing.T) {
	env := newTestEnv(t)
	src := newFakeSource().
		fail("Riga,LV", errProviderDown).
		set("Vilnius,LT", weatherDoc)
	w, _ := NewWeatherCollector(env.deps, src, weatherTTL)

	err := w.Collect(context.Background(), domain.NewLocationSet(loc("Riga", "LV"), loc("Vilnius", "LT"), loc("", "XX")))
	if err != nil {
		t.Fatalf("provider failures must not surface: %v", err)
	}
	if _, ok, _ := w.Read(loc("Riga", "LV")); ok {
		t.Fatalf("failed location must have no entry")
	}
	if _, ok, _ := w.Read(loc("Vilnius", "LT")); !ok {
		t.Fatalf("healthy location must be cached")
	}
	if src.count(",XX") != 0 {
		t.Fatalf("invalid location must not reach the provider")
	}
}

func TestWeatherReadMapsProviderDocument(t *testing.T) {
	env := newTestEnv(t)
	mariehamn := loc("Mariehamn", "AX")
	env.seed(t, cache.Key(DomainWeather, "mariehamn_ax"), weatherDoc, 0)
	w, _ := NewWeatherCollector(env.deps, newFakeSource(), weatherTTL)

	got, ok, err := w.Read(mariehamn)
	if err != nil || !ok {
		t.Fatalf("Read ok=%v err=%v", ok, err)
	}
	want := domain.Weather{Temp: 13.92, Pressure: 1008, Humidity: 87, WindSpeed: 5.14, Visibility: 10000, Description: "light rain", Timezone: 10800}
	if *got != want {
		t.Fatalf("Read = %#v, want %#v", *got, want)
	}

	if _, ok, err := w.Read(loc("Oslo", "NO")); ok || err != nil {
		t.Fatalf("never collected location: ok=%v err=%v", ok, err)
	}
}

func TestCurrencyRatesCollectAndRead(t *testing.T) {
	env := newTestEnv(t)
	src := newFakeSource().set("rub", `{"success": true, "base": "RUB", "date": "2022-09-14", "rates": {"EUR": 0.016503, "USD": 0.016556}}`)
	r, err := NewCurrencyRatesCollector(env.deps, src, "RUB", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewCurrencyRatesCollector: %v", err)
	}

	if _, ok, _ := r.Read(); ok {
		t.Fatalf("expected absence before collection")
	}
	if err := r.Collect(context.Background()); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if err := r.Collect(context.Background()); err != nil {
		t.Fatalf("second Collect: %v", err)
	}
	if src.count("rub") != 1 {
		t.Fatalf("expected one provider call, got %d", src.count("rub"))
	}

	rates, ok, err := r.Read()
	if err != nil || !ok {
		t.Fatalf("Read ok=%v err=%v", ok, err)
	}
	if rates.Base != "RUB" || rates.Date != "2022-09-14" {
		t.Fatalf("unexpected snapshot %#v", rates)
	}
	perEUR, ok := rates.BasePerUnit("EUR")
	if !ok || math.Abs(perEUR-60.59) > 0.01 {
		t.Fatalf("RUB per EUR = %v", perEUR)
	}
}

func TestCurrencyRatesCollectKeepsCacheOnFailure(t *testing.T) {
	env := newTestEnv(t)
	const cached = `{"base": "RUB", "date": "2022-09-13", "rates": {"EUR": 0.0165}}`
	env.seed(t, ratesKey, cached, 72*time.Hour)
	r, _ := NewCurrencyRatesCollector(env.deps, newFakeSource().set("rub", "null"), "rub", 24*time.Hour)

	if err := r.Collect(context.Background()); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if env.content(t, ratesKey) != cached {
		t.Fatalf("cache was overwritten with a falsy answer")
	}
}
