package providers

import "strings"

// Keys understood in a provider's config block.
const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"
	ConfigCategoryKey       = "category"
)

// headerKeys maps config keys to the request headers they override.
var headerKeys = []struct{ key, header string }{
	{ConfigUserAgentKey, "User-Agent"},
	{ConfigAcceptKey, "Accept"},
	{ConfigAcceptLanguageKey, "Accept-Language"},
	{ConfigCacheControlKey, "Cache-Control"},
}

// ConfigString returns the trimmed string at key in the provider config, or fallback
// when the key is absent, not a string, or blank.
func ConfigString(cfg Provider, key, fallback string) string {
	val, ok := cfg.Config[key].(string)
	if !ok {
		return fallback
	}
	if trimmed := strings.TrimSpace(val); trimmed != "" {
		return trimmed
	}
	return fallback
}

// Headers returns the header overrides configured for a provider. Blank values are skipped
// so the HTTP client defaults apply.
func Headers(cfg Provider) map[string]string {
	headers := make(map[string]string, len(headerKeys))
	for _, hk := range headerKeys {
		if v := ConfigString(cfg, hk.key, ""); v != "" {
			headers[hk.header] = v
		}
	}
	return headers
}
