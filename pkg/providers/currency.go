package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// CurrencyClient fetches the latest exchange rates for a base currency.
type CurrencyClient struct {
	ep     *endpoint
	apiKey string
}

// NewCurrencyClient builds the rates client. The apilayer key is required.
func NewCurrencyClient(cfg Provider, client HTTPClient, apiKey string) (*CurrencyClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, cfg.ID)
	}
	return &CurrencyClient{ep: newEndpoint(cfg, client), apiKey: apiKey}, nil
}

type ratesEnvelope struct {
	Success *bool `json:"success"`
	Error   *struct {
		Info string `json:"info"`
	} `json:"error"`
}

// Rates returns the raw {base, date, rates} document. An explicit "success": false is unavailable.
func (c *CurrencyClient) Rates(ctx context.Context, base string) (json.RawMessage, error) {
	target, err := buildURL(c.ep.cfg.SourceURL, nil, url.Values{"base": {base}})
	if err != nil {
		return nil, err
	}
	doc, err := c.ep.getJSON(ctx, target, withHeader(Headers(c.ep.cfg), "apikey", c.apiKey))
	if err != nil {
		return nil, err
	}

	var env ratesEnvelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, c.ep.cfg.ID, err)
	}
	if env.Success != nil && !*env.Success {
		info := "unknown error"
		if env.Error != nil && env.Error.Info != "" {
			info = env.Error.Info
		}
		return nil, fmt.Errorf("%w: %s reported failure: %s", ErrUnavailable, c.ep.cfg.ID, info)
	}
	return doc, nil
}
