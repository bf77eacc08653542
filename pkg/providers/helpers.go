package providers

import (
	"fmt"
	"net/url"
	"strings"
)

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// buildURL appends escaped path segments and query parameters to base.
func buildURL(base string, segments []string, query url.Values) (string, error) {
	target := strings.TrimRight(base, "/")
	for _, seg := range segments {
		target += "/" + url.PathEscape(seg)
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse source_url %q: %w", base, err)
	}
	if len(query) > 0 {
		q := parsed.Query()
		for k, vals := range query {
			for _, v := range vals {
				q.Set(k, v)
			}
		}
		parsed.RawQuery = q.Encode()
	}
	return parsed.String(), nil
}

// withHeader returns a copy of headers with key set to value.
func withHeader(headers map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	out[key] = value
	return out
}
