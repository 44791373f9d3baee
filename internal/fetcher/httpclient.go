package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"resty.dev/v3"

	"salesdash/internal/ratelimit"
)

// RequestIDHeader carries a per-call id the backend can log for correlation
const RequestIDHeader = "X-Request-ID"

const (
	defaultTimeout          = 10 * time.Second
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second
)

// ClientConfig holds the settings for the backend HTTP client
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	Limiter    *ratelimit.Limiter
}

// Client is the resty-backed Doer used by every feed and by the simulation action
type Client struct {
	http    *resty.Client
	limiter *ratelimit.Limiter
}

// NewClient creates a Client for the given configuration
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		http:    NewHTTPClient(cfg),
		limiter: cfg.Limiter,
	}
}

// NewHTTPClient creates a new HTTP client. Retries are off unless RetryCount is positive,
// in which case only transient failures are retried with exponential backoff.
func NewHTTPClient(cfg ClientConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetLogger(slogLogger{}).
		SetRetryCount(cfg.RetryCount)

	if cfg.RetryCount > 0 {
		client.
			SetRetryWaitTime(defaultRetryWaitTime).
			SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
			AddRetryConditions(retryCondition).
			AddRetryHooks(retryHook)
	}

	return client
}

// Do implements Doer
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	if c.limiter != nil && req.Key != "" {
		if err := c.limiter.Wait(ctx, req.Key); err != nil {
			return nil, ClassifyTransportError(err)
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	requestID := uuid.NewString()
	r := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID)
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}

	resp, err := r.Execute(method, req.Path)
	if err != nil {
		return nil, ClassifyTransportError(err)
	}

	body := resp.Bytes()
	if !resp.IsSuccess() {
		slog.Debug("backend returned error status",
			"method", method, "path", req.Path, "status_code", resp.StatusCode(), "request_id", requestID)
		return nil, NewHTTPError(resp.StatusCode(), errorDetail(body))
	}

	return body, nil
}

// Close releases idle connections held by the underlying client
func (c *Client) Close() error {
	return c.http.Close()
}

// errorDetail extracts the "detail" string from an error body, if there is one
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	return ""
}

// retryCondition determines whether a request should be retried based on the response and error
func retryCondition(r *resty.Response, err error) bool {
	// Retry on network errors
	if err != nil {
		return true
	}

	return isRetryableStatus(r.StatusCode())
}

// retryHook logs retry attempts for observability
func retryHook(r *resty.Response, err error) {
	if err != nil {
		slog.Debug("retrying request due to error",
			"url", r.Request.URL,
			"attempt", r.Request.Attempt,
			"error", err.Error())
		return
	}

	slog.Debug("retrying request due to status code",
		"url", r.Request.URL,
		"attempt", r.Request.Attempt,
		"status_code", r.StatusCode())
}

// slogLogger routes resty's internal messages into slog
type slogLogger struct{}

func (slogLogger) Errorf(format string, v ...any) { slog.Error(fmt.Sprintf(format, v...)) }
func (slogLogger) Warnf(format string, v ...any)  { slog.Warn(fmt.Sprintf(format, v...)) }
func (slogLogger) Debugf(format string, v ...any) { slog.Debug(fmt.Sprintf(format, v...)) }
