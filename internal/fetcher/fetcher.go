package fetcher

import "context"

// Doer is the core interface for talking to the analytics backend.
// A Doer performs exactly one HTTP round trip per call and never retries
// on its own unless the underlying client was configured to.
type Doer interface {
	// Do sends the request and returns the raw 2xx response body.
	// Any failure is reported as a *FetchError.
	Do(ctx context.Context, req Request) ([]byte, error)
}

// Request describes a single call against the backend base URL.
type Request struct {
	// Method is the HTTP method, GET when empty
	Method string

	// Path is appended to the client base URL, e.g. /api/analytics/overview
	Path string

	// Query holds the query string parameters
	Query map[string]string

	// Key names the rate limit bucket for this request, usually the feed name.
	// Requests with an empty key are not rate limited.
	Key string
}
