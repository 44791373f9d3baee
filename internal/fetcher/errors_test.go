package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *FetchError
		want string
	}{
		{"http with detail", NewHTTPError(500, "DB down"), "http error (status 500): DB down"},
		{"http without detail", NewHTTPError(404, ""), "http error (status 404): HTTP error 404"},
		{"network", NewNetworkError(errors.New("connection refused")), "network error: connection refused"},
		{"validation", NewValidationError("bad input"), "validation error: bad input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNewHTTPError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{400, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, NewHTTPError(tt.status, "").Retryable)
		})
	}
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrorTypeTimeout},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, ErrorTypeTimeout},
		{"refused", errors.New("connection refused"), ErrorTypeNetwork},
		{"canceled", context.Canceled, ErrorTypeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := ClassifyTransportError(tt.err)
			assert.Equal(t, tt.want, fe.Type)
			assert.ErrorIs(t, fe, tt.err)
		})
	}
}

func TestClassifyTransportError_KeepsFetchError(t *testing.T) {
	orig := NewHTTPError(502, "")
	assert.Same(t, orig, ClassifyTransportError(fmt.Errorf("wrapped: %w", orig)))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "DB down", Message(NewHTTPError(500, "DB down")))
	assert.Equal(t, "DB down", Message(fmt.Errorf("refresh: %w", NewHTTPError(500, "DB down"))))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewParseError(errors.New("unexpected end")))
	require.True(t, IsType(err, ErrorTypeParse))
	assert.False(t, IsType(err, ErrorTypeHTTP))
	assert.False(t, IsType(errors.New("x"), ErrorTypeNetwork))
}
