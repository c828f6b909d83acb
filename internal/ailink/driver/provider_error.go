package driver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind classifies a provider failure for retry decisions.
type ErrorKind string

const (
	KindAuth          ErrorKind = "auth"
	KindRateLimit     ErrorKind = "rate_limit"
	KindContentFilter ErrorKind = "content_filter"
	KindRefusal       ErrorKind = "refusal"
	KindTimeout       ErrorKind = "timeout"
	KindTransport     ErrorKind = "transport"
	KindBadRequest    ErrorKind = "bad_request"
	KindUnavailable   ErrorKind = "unavailable"
)

// ProviderError is returned when a provider request fails.
//
// Drivers populate RawResponse with the provider response body bytes.
// RawResponse must never include API keys.
type ProviderError struct {
	Provider    string
	Kind        ErrorKind
	StatusCode  int
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed (%s): status %d: %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed (%s): %s", e.Provider, e.Kind, e.Message)
}

// Retryable reports whether the failure is worth another attempt.
// Auth, rate-limit, content-filter, and refusal errors are terminal for the
// attempt; timeouts and transport faults are not.
func (e *ProviderError) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindTimeout, KindTransport, KindUnavailable:
		return true
	default:
		return false
	}
}

// KindFromStatus maps an HTTP status code to an error kind.
func KindFromStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindUnavailable
	case status >= 400:
		return KindBadRequest
	default:
		return KindTransport
	}
}

// WrapTransport converts a low-level HTTP error into a ProviderError.
func WrapTransport(provider string, err error) *ProviderError {
	kind := KindTransport
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = KindTimeout
	}
	return &ProviderError{Provider: provider, Kind: kind, Message: err.Error()}
}

// IsRetryable reports whether an error may be retried by the caller.
// Unknown errors are treated as non-retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Retryable()
	}
	var empty *EmptyResponseError
	return errors.As(err, &empty)
}

// EmptyResponseError signals that the provider returned no usable text.
// It is retryable up to the caller's bound, then surfaced as a failed attempt.
type EmptyResponseError struct {
	Provider string
}

func (e *EmptyResponseError) Error() string {
	if e == nil || strings.TrimSpace(e.Provider) == "" {
		return "provider returned no usable content"
	}
	return fmt.Sprintf("%s returned no usable content", e.Provider)
}
