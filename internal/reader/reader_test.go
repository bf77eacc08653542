package reader

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/samvad-hq/locinfo/internal/domain"
)

type fakeCountries struct{ list []domain.Country }

func (f fakeCountries) Read() ([]domain.Country, bool, error) {
	return f.list, len(f.list) > 0, nil
}

type fakeRates struct{ rates *domain.CurrencyRates }

func (f fakeRates) Read() (*domain.CurrencyRates, bool, error) {
	return f.rates, f.rates != nil, nil
}

type fakeWeather map[domain.Location]domain.Weather

func (f fakeWeather) Read(loc domain.Location) (*domain.Weather, bool, error) {
	w, ok := f[loc]
	if !ok {
		return nil, false, nil
	}
	return &w, true, nil
}

type fakeNews map[string][]domain.Article

func (f fakeNews) Read(slug string) ([]domain.Article, bool, error) {
	a, ok := f[slug]
	return a, ok, nil
}

type fakeCity struct {
	doc   string
	err   error
	calls []string
}

func (f *fakeCity) Lookup(_ context.Context, name string) (json.RawMessage, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	if f.doc == "" {
		return nil, nil
	}
	return json.RawMessage(f.doc), nil
}

var (
	latvia = domain.Country{
		Capital:      "Riga",
		Alpha2Code:   "LV",
		AltSpellings: []string{"LV", "Republic of Latvia", "Latvijas Republika"},
		Currencies:   []domain.CurrencyInfo{{Code: "EUR"}},
		Name:         "Latvia",
		Population:   1961600,
	}
	aland = domain.Country{
		Capital:      "Mariehamn",
		Alpha2Code:   "AX",
		AltSpellings: []string{"AX", "Aaland", "Aland", "Ahvenanmaa"},
		Currencies:   []domain.CurrencyInfo{{Code: "EUR"}},
		Name:         "Åland Islands",
		Population:   28875,
	}
	czechia = domain.Country{
		Capital:      "Prague",
		Alpha2Code:   "CZ",
		AltSpellings: []string{"CZ", "Česká republika"},
		Currencies:   []domain.CurrencyInfo{{Code: "CZK"}},
		Name:         "Czech Republic",
	}
)

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"abcd", "bcde", 0.75},
		{"riga", "riga", 1},
		{"riga", "rīga", 0.75},
		{"", "", 1},
		{"abc", "", 0},
		{"tokyo", "riga", 0},
		{"rigga", "riga", 8.0 / 9.0},
	}
	for _, tc := range cases {
		if got := similarity(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("similarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMatch(t *testing.T) {
	cases := []struct {
		query   string
		country domain.Country
		want    bool
	}{
		{"Riga", latvia, true},
		{"riga", latvia, true},
		{"Latvia", latvia, true},
		{"Rigga", latvia, true},
		{"Tokyo", latvia, false},
		{"", latvia, false},
		{"Mariehamn", aland, true},
		{"Aland islands", aland, true},
		{"Prague old town", czechia, true},
		{"Bratislava", czechia, false},
	}
	for _, tc := range cases {
		if got := Match(tc.query, tc.country); got != tc.want {
			t.Fatalf("Match(%q, %s) = %v, want %v", tc.query, tc.country.Name, got, tc.want)
		}
	}
}

func newReader(t *testing.T, city *fakeCity) *Reader {
	t.Helper()
	r, err := New(
		fakeCountries{list: []domain.Country{latvia, aland, czechia}},
		fakeRates{rates: &domain.CurrencyRates{Base: "RUB", Date: "2022-09-14", Rates: map[string]float64{"EUR": 0.016503}}},
		fakeWeather{latvia.Location(): {Temp: 9.5, Description: "fog", Timezone: 10800}},
		fakeNews{"latvia_lv": {{Title: "Riga opens new bridge", URL: "https://lsm.lv/a/1"}}},
		city,
		nil,
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestFindGathersEverything(t *testing.T) {
	city := &fakeCity{doc: `{"name": "Riga", "latitude": 56.946, "longitude": 24.10589, "country": {"code": "LV", "name": "Latvia"}, "geo_id": 456172}`}
	r := newReader(t, city)

	info, err := r.Find(context.Background(), "riga")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if info == nil || info.Country.Name != "Latvia" {
		t.Fatalf("unexpected info %#v", info)
	}
	if info.Weather == nil || info.Weather.Description != "fog" {
		t.Fatalf("weather %#v", info.Weather)
	}
	if info.CurrencyBase != "RUB" || math.Abs(info.CurrencyRates["EUR"]-60.595) > 0.001 {
		t.Fatalf("rates %v %v", info.CurrencyBase, info.CurrencyRates)
	}
	if info.Capital == nil || info.Capital.GeoID != 456172 || info.Capital.Country.Code != "LV" {
		t.Fatalf("capital %#v", info.Capital)
	}
	if len(info.News) != 1 {
		t.Fatalf("news %v", info.News)
	}
	if len(city.calls) != 1 || city.calls[0] != "Riga" {
		t.Fatalf("city lookups %v", city.calls)
	}
}

func TestFindToleratesMissingParts(t *testing.T) {
	r := newReader(t, &fakeCity{err: errors.New("quota exceeded")})

	info, err := r.Find(context.Background(), "Prague")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if info == nil || info.Country.Alpha2Code != "CZ" {
		t.Fatalf("unexpected info %#v", info)
	}
	if info.Weather != nil || info.Capital != nil || info.News != nil {
		t.Fatalf("missing parts must stay empty: %#v", info)
	}
	if _, ok := info.CurrencyRates["CZK"]; ok {
		t.Fatalf("rate without a quote must be skipped")
	}
}

func TestFindNoMatch(t *testing.T) {
	r := newReader(t, nil)
	info, err := r.Find(context.Background(), "Atlantis")
	if err != nil || info != nil {
		t.Fatalf("expected no match, got %#v err=%v", info, err)
	}

	empty, _ := New(fakeCountries{}, fakeRates{}, fakeWeather{}, fakeNews{}, nil, nil)
	if info, err := empty.Find(context.Background(), "Riga"); err != nil || info != nil {
		t.Fatalf("empty cache: %#v err=%v", info, err)
	}
}
