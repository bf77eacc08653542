package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/samvad-hq/locinfo/pkg/httpclient"
)

const (
	breakerTripAfter   = 5
	breakerOpenTimeout = time.Minute
	providerUserAgent  = "locinfo-collector/1.0"
)

// DefaultHTTPClient returns the shared resty-backed client for provider calls.
func DefaultHTTPClient(timeout time.Duration) HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return httpclient.NewRestyClient(timeout, httpclient.WithUserAgent(providerUserAgent))
}

// endpoint performs paced, circuit-broken JSON GETs against one provider.
type endpoint struct {
	cfg     Provider
	client  HTTPClient
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func newEndpoint(cfg Provider, client HTTPClient) *endpoint {
	if client == nil {
		client = DefaultHTTPClient(0)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if delay := cfg.RequestDelay(); delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.ID,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
	})

	return &endpoint{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		breaker: breaker,
	}
}

// getJSON fetches target and returns the body when the answer is 200 with valid JSON.
func (e *endpoint) getJSON(ctx context.Context, target string, headers map[string]string) (json.RawMessage, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s pacing: %v", ErrUnavailable, e.cfg.ID, err)
	}

	out, err := e.breaker.Execute(func() (interface{}, error) {
		resp, err := e.client.Get(ctx, target, headers)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch %s: %v", ErrUnavailable, e.cfg.ID, err)
		}

		body := resp.Body()
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("%w: %s returned status %d body: %s", ErrUnavailable, e.cfg.ID, resp.StatusCode(), responseSnippet(body))
		}
		if !json.Valid(body) {
			return nil, fmt.Errorf("%w: %s body: %s", ErrMalformed, e.cfg.ID, responseSnippet(body))
		}
		return json.RawMessage(body), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s circuit open: %v", ErrUnavailable, e.cfg.ID, err)
		}
		return nil, err
	}
	return out.(json.RawMessage), nil
}
