package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CityClient looks up a city by name. It is used live by the query path, never cached.
type CityClient struct {
	ep     *endpoint
	apiKey string
}

// NewCityClient builds the city client. The apilayer key is required.
func NewCityClient(cfg Provider, client HTTPClient, apiKey string) (*CityClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, cfg.ID)
	}
	return &CityClient{ep: newEndpoint(cfg, client), apiKey: apiKey}, nil
}

// Lookup returns the first matching city document, or nil when the provider knows no such city.
func (c *CityClient) Lookup(ctx context.Context, name string) (json.RawMessage, error) {
	target, err := buildURL(c.ep.cfg.SourceURL, []string{"name", name}, nil)
	if err != nil {
		return nil, err
	}
	doc, err := c.ep.getJSON(ctx, target, withHeader(Headers(c.ep.cfg), "apikey", c.apiKey))
	if err != nil {
		return nil, err
	}

	var matches []json.RawMessage
	if err := json.Unmarshal(doc, &matches); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, c.ep.cfg.ID, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}
