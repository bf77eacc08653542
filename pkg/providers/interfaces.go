package providers

import (
	"errors"

	"github.com/samvad-hq/locinfo/pkg/httpclient"
)

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client

var (
	// ErrUnavailable covers transport failures, non-200 answers and an open circuit.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrMalformed means the provider answered 200 with a body that is not usable JSON.
	ErrMalformed = errors.New("provider response malformed")
	// ErrMissingAPIKey is returned by constructors of keyed providers.
	ErrMissingAPIKey = errors.New("provider api key is missing")
)
