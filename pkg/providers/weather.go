package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// WeatherClient fetches current weather by "city,code" query, in metric units.
type WeatherClient struct {
	ep     *endpoint
	apiKey string
}

// NewWeatherClient builds the weather client. The openweather key is required.
func NewWeatherClient(cfg Provider, client HTTPClient, apiKey string) (*WeatherClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, cfg.ID)
	}
	return &WeatherClient{ep: newEndpoint(cfg, client), apiKey: apiKey}, nil
}

// Current returns the raw current-weather document for query.
func (c *WeatherClient) Current(ctx context.Context, query string) (json.RawMessage, error) {
	target, err := buildURL(c.ep.cfg.SourceURL, nil, url.Values{
		"units": {"metric"},
		"q":     {query},
		"appid": {c.apiKey},
	})
	if err != nil {
		return nil, err
	}
	return c.ep.getJSON(ctx, target, Headers(c.ep.cfg))
}
