package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Error kinds callers branch on. None of them are retried by this package;
// whether to resubmit is the caller's decision.
var (
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrPaymentRequired = errors.New("payment required")
	ErrGateway         = errors.New("completion gateway error")
	ErrUnavailable     = errors.New("completion service unreachable")
)

// APIError is a classified completion failure. StatusCode is zero when no
// HTTP response was received.
type APIError struct {
	Kind       error
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// newStatusError maps an upstream HTTP status to an error kind.
func newStatusError(statusCode int, err error) *APIError {
	kind := ErrGateway
	switch statusCode {
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	case http.StatusPaymentRequired:
		kind = ErrPaymentRequired
	}
	return &APIError{Kind: kind, StatusCode: statusCode, Err: err}
}

func newTransportError(err error) *APIError {
	return &APIError{Kind: ErrUnavailable, Err: err}
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// logFailure records the classified error server-side. The status code is
// logged here and never returned to end users.
func logFailure(ctx context.Context, provider string, err *APIError) {
	switch {
	case errors.Is(err, context.Canceled):
		slog.InfoContext(ctx, "completion abandoned: request cancelled", "provider", provider)
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrPaymentRequired):
		slog.WarnContext(ctx, "completion rejected by provider",
			"provider", provider,
			"status_code", err.StatusCode,
			"error", err.Err)
	case err.StatusCode != 0:
		slog.ErrorContext(ctx, "completion gateway error",
			"provider", provider,
			"status_code", err.StatusCode,
			"error", err.Err)
	default:
		slog.ErrorContext(ctx, "completion request failed", "provider", provider, "error", err.Err)
	}
}
