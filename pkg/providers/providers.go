package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Package providers holds the provider endpoint registry and the JSON API clients built on it.

// Provider ids known to the registry.
const (
	IDCountry  = "country"
	IDCurrency = "currency"
	IDWeather  = "weather"
	IDNews     = "news"
	IDCity     = "city"
)

// Provider describes one upstream endpoint. Entries from a registry file override the built-in defaults by id.
type Provider struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	SourceURL      string         `json:"source_url" yaml:"source_url"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	Config         map[string]any `json:"config" yaml:"config"`
}

type registryFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

func defaultProviders() []Provider {
	return []Provider{
		{ID: IDCountry, Name: "apilayer geo countries", SourceURL: "https://api.apilayer.com/geo/country"},
		{ID: IDCurrency, Name: "apilayer fixer rates", SourceURL: "https://api.apilayer.com/fixer/latest"},
		{ID: IDWeather, Name: "openweathermap current weather", SourceURL: "https://api.openweathermap.org/data/2.5/weather"},
		{ID: IDNews, Name: "newsapi top headlines", SourceURL: "https://newsapi.org/v2/top-headlines"},
		{ID: IDCity, Name: "apilayer geo cities", SourceURL: "https://api.apilayer.com/geo/city"},
	}
}

// Registry is the resolved set of provider endpoints.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	idx       map[string]Provider
}

// DefaultRegistry returns the built-in endpoints.
func DefaultRegistry() *Registry {
	reg, _ := newRegistry(nil)
	return reg
}

// LoadRegistry loads endpoint overrides from a YAML/JSON file. An empty path yields the defaults.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRegistry(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open providers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	reg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(reg.Providers) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}
	return newRegistry(reg.Providers)
}

func newRegistry(overrides []Provider) (*Registry, error) {
	defaults := defaultProviders()
	idx := make(map[string]Provider, len(defaults))
	for _, p := range defaults {
		idx[p.ID] = sanitizeProvider(p)
	}

	seen := make(map[string]struct{}, len(overrides))
	for i, o := range overrides {
		o = sanitizeProvider(o)
		base, ok := idx[o.ID]
		if !ok {
			return nil, fmt.Errorf("provider[%d]: unknown provider id %q", i, o.ID)
		}
		if _, dup := seen[o.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", o.ID)
		}
		seen[o.ID] = struct{}{}

		merged := mergeProvider(base, o)
		if err := validateProvider(merged); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		idx[o.ID] = merged
	}

	reg := &Registry{idx: idx}
	for _, p := range defaults {
		reg.providers = append(reg.providers, idx[p.ID])
	}
	return reg, nil
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("providers file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s providers: %w", name, err)
	}
	return reg, nil
}

func sanitizeProvider(p Provider) Provider {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	p.Name = strings.TrimSpace(p.Name)
	p.SourceURL = strings.TrimSpace(p.SourceURL)
	if p.RequestDelayMs < 0 {
		p.RequestDelayMs = 0
	}
	return p
}

// mergeProvider layers the non-empty fields of o over base.
func mergeProvider(base, o Provider) Provider {
	if o.Name != "" {
		base.Name = o.Name
	}
	if o.SourceURL != "" {
		base.SourceURL = o.SourceURL
	}
	if o.RequestDelayMs > 0 {
		base.RequestDelayMs = o.RequestDelayMs
	}
	if len(o.Config) > 0 {
		cfg := make(map[string]any, len(base.Config)+len(o.Config))
		for k, v := range base.Config {
			cfg[k] = v
		}
		for k, v := range o.Config {
			cfg[k] = v
		}
		base.Config = cfg
	}
	return base
}

func validateProvider(p Provider) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.SourceURL == "" {
		return fmt.Errorf("source_url is required for provider %q", p.ID)
	}
	if !strings.HasPrefix(p.SourceURL, "http://") && !strings.HasPrefix(p.SourceURL, "https://") {
		return fmt.Errorf("source_url for provider %q must be http(s)", p.ID)
	}
	return nil
}

// ByID returns the provider entry for the given id.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	id = strings.ToLower(strings.TrimSpace(id))

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idx[id]
	return p, ok
}

// All returns a copy of every registered provider.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// RequestDelay returns the minimum spacing between requests to the provider; zero disables pacing.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}
