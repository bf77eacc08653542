package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Domain contains core models shared by collectors, the reader and the renderer.

var validate = validator.New(validator.WithRequiredStructEnabled())

// Location identifies a capital for weather lookups. Comparable, so it can key a LocationSet.
type Location struct {
	Capital    string `json:"capital" validate:"required"`
	Alpha2Code string `json:"alpha2code" validate:"len=2"`
}

// Validate enforces a non-empty capital and a two-character country code.
func (l Location) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("invalid location %q/%q: %w", l.Capital, l.Alpha2Code, err)
	}
	return nil
}

// CacheName is the lower-cased "capital_code" weather cache entry name.
func (l Location) CacheName() string {
	return strings.ToLower(l.Capital + "_" + l.Alpha2Code)
}

// Query is the "capital,code" string the weather provider expects.
func (l Location) Query() string {
	return l.Capital + "," + l.Alpha2Code
}

// LocationSet is an unordered set of locations.
type LocationSet map[Location]struct{}

// NewLocationSet returns a fresh set holding locs.
func NewLocationSet(locs ...Location) LocationSet {
	set := make(LocationSet, len(locs))
	for _, l := range locs {
		set[l] = struct{}{}
	}
	return set
}

func (s LocationSet) Add(l Location) { s[l] = struct{}{} }

func (s LocationSet) Has(l Location) bool {
	_, ok := s[l]
	return ok
}

// CurrencyInfo is a currency reference inside a country record.
type CurrencyInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

// Language is a spoken language inside a country record.
type Language struct {
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

// Country is the full country record as persisted in the country cache.
type Country struct {
	Capital      string         `json:"capital"`
	Alpha2Code   string         `json:"alpha2code" validate:"len=2"`
	AltSpellings []string       `json:"alt_spellings"`
	Currencies   []CurrencyInfo `json:"currencies"`
	Flag         string         `json:"flag"`
	Languages    []Language     `json:"languages"`
	Name         string         `json:"name" validate:"required"`
	Population   int64          `json:"population" validate:"gte=0"`
	Subregion    string         `json:"subregion"`
	Timezones    []string       `json:"timezones"`
	Area         *float64       `json:"area"`
}

// Validate checks the record invariants.
func (c Country) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid country %q: %w", c.Name, err)
	}
	return nil
}

// Location returns the weather key for the country's capital.
func (c Country) Location() Location {
	return Location{Capital: c.Capital, Alpha2Code: c.Alpha2Code}
}

// Slug is the lower-cased "name_with_underscores_code" news cache entry name.
func (c Country) Slug() string {
	return CountrySlug(c.Name, c.Alpha2Code)
}

// CurrencyCodes returns the distinct currency codes of the country.
func (c Country) CurrencyCodes() []string {
	seen := make(map[string]struct{}, len(c.Currencies))
	out := make([]string, 0, len(c.Currencies))
	for _, cur := range c.Currencies {
		if cur.Code == "" {
			continue
		}
		if _, ok := seen[cur.Code]; ok {
			continue
		}
		seen[cur.Code] = struct{}{}
		out = append(out, cur.Code)
	}
	return out
}

// LanguageSet returns the distinct languages of the country in first-seen order.
func (c Country) LanguageSet() []Language {
	return UniqueLanguages(c.Languages)
}

// UniqueLanguages drops repeated (name, native name) pairs, keeping the first occurrence.
func UniqueLanguages(langs []Language) []Language {
	seen := make(map[Language]struct{}, len(langs))
	out := make([]Language, 0, len(langs))
	for _, l := range langs {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// CountrySlug builds the news cache entry name from a display name and alpha-2 code.
func CountrySlug(name, alpha2 string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_") + "_" + alpha2)
}

// SlugCode extracts the trailing country code from a slug.
func SlugCode(slug string) string {
	idx := strings.LastIndex(slug, "_")
	if idx < 0 {
		return slug
	}
	return slug[idx+1:]
}

// CurrencyRates is the rates snapshot: units of each currency per one unit of Base.
type CurrencyRates struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// BasePerUnit returns how many units of Base buy one unit of code.
func (r CurrencyRates) BasePerUnit(code string) (float64, bool) {
	rate, ok := r.Rates[code]
	if !ok || rate == 0 {
		return 0, false
	}
	return 1 / rate, true
}

// Weather is the current weather snapshot for a location.
type Weather struct {
	Temp        float64 `json:"temp"`
	Pressure    int     `json:"pressure"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Visibility  int     `json:"visibility"`
	Description string  `json:"description"`
	Timezone    int     `json:"timezone"` // offset from UTC in seconds
}

// Article is a single news headline.
type Article struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Content     string    `json:"content,omitempty"`
	URL         string    `json:"url"`
}

// ArticleID derives a stable identifier from the article URL.
func ArticleID(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// CountryShortInfo is the country reference inside a city record.
type CountryShortInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// City is the live city lookup result for a capital.
type City struct {
	Country       CountryShortInfo `json:"country"`
	GeoID         int64            `json:"geo_id"`
	Latitude      float64          `json:"latitude"`
	Longitude     float64          `json:"longitude"`
	Name          string           `json:"name"`
	StateOrRegion string           `json:"state_or_region"`
}

// LocationInfo is everything known about a queried location. Nil parts are unavailable.
type LocationInfo struct {
	Country       Country
	Weather       *Weather
	CurrencyBase  string
	CurrencyRates map[string]float64 // base per unit of each of the country's currencies
	Capital       *City
	News          []Article
}
