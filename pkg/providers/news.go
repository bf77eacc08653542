package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const defaultNewsCategory = "general"

// supportedNewsCountries are the two-letter codes the headlines endpoint accepts.
var supportedNewsCountries = map[string]struct{}{
	"ae": {}, "ar": {}, "at": {}, "au": {}, "be": {}, "bg": {}, "br": {}, "ca": {}, "ch": {},
	"cn": {}, "co": {}, "cu": {}, "cz": {}, "de": {}, "eg": {}, "fr": {}, "gb": {}, "gr": {},
	"hk": {}, "hu": {}, "id": {}, "ie": {}, "il": {}, "in": {}, "it": {}, "jp": {}, "kr": {},
	"lt": {}, "lv": {}, "ma": {}, "mx": {}, "my": {}, "ng": {}, "nl": {}, "no": {}, "nz": {},
	"ph": {}, "pl": {}, "pt": {}, "ro": {}, "rs": {}, "ru": {}, "sa": {}, "se": {}, "sg": {},
	"si": {}, "sk": {}, "th": {}, "tr": {}, "tw": {}, "ua": {}, "us": {}, "ve": {}, "za": {},
}

// NewsSupported reports whether the headlines endpoint serves the country code.
func NewsSupported(code string) bool {
	_, ok := supportedNewsCountries[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// NewsClient fetches top headlines per country.
type NewsClient struct {
	ep     *endpoint
	apiKey string
}

// NewNewsClient builds the headlines client. The news key is required.
func NewNewsClient(cfg Provider, client HTTPClient, apiKey string) (*NewsClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, cfg.ID)
	}
	return &NewsClient{ep: newEndpoint(cfg, client), apiKey: apiKey}, nil
}

// TopHeadlines returns the raw {totalResults, articles} document for the country code.
func (c *NewsClient) TopHeadlines(ctx context.Context, code string) (json.RawMessage, error) {
	target, err := buildURL(c.ep.cfg.SourceURL, nil, url.Values{
		"country":  {strings.ToLower(code)},
		"category": {ConfigString(c.ep.cfg, ConfigCategoryKey, defaultNewsCategory)},
		"apiKey":   {c.apiKey},
	})
	if err != nil {
		return nil, err
	}
	return c.ep.getJSON(ctx, target, Headers(c.ep.cfg))
}
