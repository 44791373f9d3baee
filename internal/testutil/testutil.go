package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"salesdash/internal/fetcher"
)

// MockDoer is a mock implementation of the fetcher.Doer interface for testing
type MockDoer struct {
	DoFunc func(ctx context.Context, req fetcher.Request) ([]byte, error)

	mu    sync.Mutex
	calls []fetcher.Request
}

// Do implements the Doer interface
func (m *MockDoer) Do(ctx context.Context, req fetcher.Request) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.DoFunc != nil {
		return m.DoFunc(ctx, req)
	}
	return []byte(`{}`), nil
}

// Calls returns every request received so far
func (m *MockDoer) Calls() []fetcher.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fetcher.Request(nil), m.calls...)
}

// NewMockDoer creates a mock that answers every request with the same body and error
func NewMockDoer(body string, err error) *MockDoer {
	return &MockDoer{
		DoFunc: func(ctx context.Context, req fetcher.Request) ([]byte, error) {
			if err != nil {
				return nil, err
			}
			return []byte(body), nil
		},
	}
}

// Backend is a programmable fake of the analytics API. Every path answers
// with the registered status and body and counts the calls it receives.
type Backend struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]response
	hits      map[string]int
	queries   map[string][]string
}

type response struct {
	status int
	body   string
}

// NewBackend starts a fake backend. Unregistered paths answer 404 with a detail body.
func NewBackend() *Backend {
	b := &Backend{
		responses: make(map[string]response),
		hits:      make(map[string]int),
		queries:   make(map[string][]string),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

// Set registers the answer for method and path, e.g. Set("GET", "/api/analytics/overview", 200, `{...}`)
func (b *Backend) Set(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[method+" "+path] = response{status: status, body: body}
}

// Hits returns how many requests method and path received
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

// Queries returns the raw query strings received for method and path, in order
func (b *Backend) Queries(method, path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries[method+" "+path]...)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	b.mu.Lock()
	b.hits[key]++
	b.queries[key] = append(b.queries[key], r.URL.RawQuery)
	resp, ok := b.responses[key]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
		return
	}

	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}
