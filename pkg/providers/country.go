package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CountryClient lists the countries of a regional bloc.
type CountryClient struct {
	ep     *endpoint
	apiKey string
}

// NewCountryClient builds the country client. The apilayer key is required.
func NewCountryClient(cfg Provider, client HTTPClient, apiKey string) (*CountryClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, cfg.ID)
	}
	return &CountryClient{ep: newEndpoint(cfg, client), apiKey: apiKey}, nil
}

// Countries returns the raw country array for bloc (e.g. "eu").
func (c *CountryClient) Countries(ctx context.Context, bloc string) (json.RawMessage, error) {
	target, err := buildURL(c.ep.cfg.SourceURL, []string{"regional_bloc", bloc}, nil)
	if err != nil {
		return nil, err
	}
	return c.ep.getJSON(ctx, target, withHeader(Headers(c.ep.cfg), "apikey", c.apiKey))
}
