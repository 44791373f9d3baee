package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"salesdash/internal/fetcher"
)

// DefaultInterval is the refresh cadence used when a feed does not set one
const DefaultInterval = 60 * time.Second

// Feed describes one named, independently polled data source.
// A Feed is a value and must not be modified once handed to a Runner;
// build a new one instead.
type Feed[T any] struct {
	// Name identifies the feed and names its rate limit bucket, e.g. "overview"
	Name string

	// Label is used in user-facing messages, e.g. "sales trends"
	Label string

	// Endpoint is the path relative to the backend base URL
	Endpoint string

	// Interval is the time between two poller triggers
	Interval time.Duration

	// Query holds the query string parameters sent with every fetch
	Query map[string]string

	// Parse turns a 2xx response body into the feed record
	Parse func([]byte) (T, error)
}

// label returns the human-readable feed name
func (f Feed[T]) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// interval returns the refresh cadence, falling back to DefaultInterval
func (f Feed[T]) interval() time.Duration {
	if f.Interval > 0 {
		return f.Interval
	}
	return DefaultInterval
}

// JSON is the default parser: it decodes the body into a T
func JSON[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Fetch performs one GET for the feed and parses the result.
// Every error is a *fetcher.FetchError.
func Fetch[T any](ctx context.Context, doer fetcher.Doer, f Feed[T]) (T, error) {
	var zero T

	body, err := doer.Do(ctx, fetcher.Request{
		Method: http.MethodGet,
		Path:   f.Endpoint,
		Query:  f.Query,
		Key:    f.Name,
	})
	if err != nil {
		return zero, err
	}

	parse := f.Parse
	if parse == nil {
		parse = JSON[T]
	}

	v, err := parse(body)
	if err != nil {
		return zero, fetcher.NewParseError(err)
	}
	return v, nil
}

// ErrorMessage formats a fetch failure the way it is shown next to the feed
func ErrorMessage(label string, err error) string {
	return fmt.Sprintf("Failed to fetch %s: %s", label, fetcher.Message(err))
}
