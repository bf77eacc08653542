package httpclient

import "context"

// Response is the part of an HTTP answer provider clients inspect.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client performs GETs on behalf of provider clients; tests substitute fakes.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
