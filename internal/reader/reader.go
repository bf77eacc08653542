package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samvad-hq/locinfo/internal/domain"
	"github.com/samvad-hq/locinfo/internal/logger"
)

// Package reader resolves a free-text query to a cached country and gathers
// everything known about it from the collector caches.

// matchThreshold is the minimum similarity for a query word to match a name.
const matchThreshold = 0.67

type CountryReader interface {
	Read() ([]domain.Country, bool, error)
}

type RatesReader interface {
	Read() (*domain.CurrencyRates, bool, error)
}

type WeatherReader interface {
	Read(loc domain.Location) (*domain.Weather, bool, error)
}

type NewsReader interface {
	Read(slug string) ([]domain.Article, bool, error)
}

// CityLookup is the live city provider; a nil document means no such city.
type CityLookup interface {
	Lookup(ctx context.Context, name string) (json.RawMessage, error)
}

// Reader answers location queries from the caches.
type Reader struct {
	countries CountryReader
	rates     RatesReader
	weather   WeatherReader
	news      NewsReader
	city      CityLookup
	log       logger.Logger
}

// New wires a Reader. city may be nil, in which case capital details are never available.
func New(countries CountryReader, rates RatesReader, weather WeatherReader, news NewsReader, city CityLookup, log logger.Logger) (*Reader, error) {
	if countries == nil || rates == nil || weather == nil || news == nil {
		return nil, fmt.Errorf("reader requires country, rates, weather and news readers")
	}
	return &Reader{
		countries: countries,
		rates:     rates,
		weather:   weather,
		news:      news,
		city:      city,
		log:       logger.Ensure(log),
	}, nil
}

// Find returns the info for the first cached country matching query, or nil when
// nothing matches. Missing parts (weather, rates, capital, news) are left empty.
func (r *Reader) Find(ctx context.Context, query string) (*domain.LocationInfo, error) {
	country, err := r.FindCountry(query)
	if err != nil || country == nil {
		return nil, err
	}

	info := &domain.LocationInfo{Country: *country}

	if w, ok, err := r.weather.Read(country.Location()); err != nil {
		return nil, err
	} else if ok {
		info.Weather = w
	}

	if rates, ok, err := r.rates.Read(); err != nil {
		return nil, err
	} else if ok {
		info.CurrencyBase = rates.Base
		info.CurrencyRates = make(map[string]float64)
		for _, code := range country.CurrencyCodes() {
			if perUnit, ok := rates.BasePerUnit(code); ok {
				info.CurrencyRates[code] = perUnit
			}
		}
	}

	info.Capital = r.lookupCity(ctx, country.Capital)

	if articles, ok, err := r.news.Read(country.Slug()); err != nil {
		return nil, err
	} else if ok {
		info.News = articles
	}
	return info, nil
}

// FindCountry returns the first cached country matching query, in cache order.
func (r *Reader) FindCountry(query string) (*domain.Country, error) {
	countries, ok, err := r.countries.Read()
	if err != nil || !ok {
		return nil, err
	}
	for i := range countries {
		if Match(query, countries[i]) {
			return &countries[i], nil
		}
	}
	return nil, nil
}

func (r *Reader) lookupCity(ctx context.Context, name string) *domain.City {
	if r.city == nil || strings.TrimSpace(name) == "" {
		return nil
	}
	doc, err := r.city.Lookup(ctx, name)
	if err != nil {
		r.log.WarnObj("city lookup failed", "city_lookup", map[string]any{
			"city":  name,
			"error": err.Error(),
		})
		return nil
	}
	if doc == nil {
		return nil
	}
	var city domain.City
	if err := json.Unmarshal(doc, &city); err != nil {
		r.log.WarnObj("city document is malformed", "city_lookup", map[string]any{
			"city":  name,
			"error": err.Error(),
		})
		return nil
	}
	return &city
}

// Match reports whether query names the country. It matches when the whole query
// is contained in the capital or an alternate spelling, or when any query word is
// similar enough to one of them. Comparison ignores case.
func Match(query string, c domain.Country) bool {
	full := strings.ToLower(strings.TrimSpace(query))
	names := make([]string, 0, len(c.AltSpellings)+1)
	names = append(names, strings.ToLower(c.Capital))
	for _, s := range c.AltSpellings {
		names = append(names, strings.ToLower(s))
	}

	for _, word := range strings.Fields(full) {
		for _, name := range names {
			if name == "" {
				continue
			}
			if strings.Contains(name, full) || similarity(word, name) > matchThreshold {
				return true
			}
		}
	}
	return false
}
