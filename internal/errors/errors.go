package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a gateway failure
type Kind string

const (
	KindTimeout               Kind = "timeout"
	KindTransport             Kind = "transport"
	KindHTTPStatus            Kind = "http_status"
	KindRateLimited           Kind = "rate_limited"
	KindCredentialUnavailable Kind = "credential_unavailable"
	KindCredentialInvalid     Kind = "credential_invalid"
	KindCancelled             Kind = "cancelled"
	KindCacheUnavailable      Kind = "cache_unavailable"
)

// GatewayError represents a classified gateway failure. StatusCode is only
// set for KindHTTPStatus and KindRateLimited; RetryAfter is only set for
// KindRateLimited when the server supplied a hint.
type GatewayError struct {
	Kind       Kind
	Message    string
	StatusCode int
	RetryAfter time.Duration
	Cause      error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to an error
func (e *GatewayError) WithContext(key string, value interface{}) *GatewayError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Retryable reports whether the failure class may succeed on a later
// attempt: transport faults, 5xx responses, and rate limiting. 4xx
// responses other than 429 are terminal, as are credential and
// cancellation failures.
func (e *GatewayError) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindTimeout, KindRateLimited:
		return true
	case KindHTTPStatus:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// NewTimeoutError creates a timeout error for one attempt
func NewTimeoutError(message string, cause error) *GatewayError {
	return &GatewayError{Kind: KindTimeout, Message: message, Cause: cause, Context: make(map[string]interface{})}
}

// NewTransportError creates a connection-level error
func NewTransportError(message string, cause error) *GatewayError {
	return &GatewayError{Kind: KindTransport, Message: message, Cause: cause, Context: make(map[string]interface{})}
}

// NewHTTPStatusError creates an error for a non-2xx response
func NewHTTPStatusError(statusCode int, message string) *GatewayError {
	return &GatewayError{Kind: KindHTTPStatus, StatusCode: statusCode, Message: message, Context: make(map[string]interface{})}
}

// NewRateLimitedError creates a 429 error with an optional retry-after hint
func NewRateLimitedError(message string, retryAfter time.Duration) *GatewayError {
	return &GatewayError{Kind: KindRateLimited, StatusCode: 429, Message: message, RetryAfter: retryAfter, Context: make(map[string]interface{})}
}

// NewCredentialUnavailableError creates an error for a service with no
// usable credential
func NewCredentialUnavailableError(serviceID string) *GatewayError {
	return &GatewayError{
		Kind:    KindCredentialUnavailable,
		Message: fmt.Sprintf("no valid credential for service %s", serviceID),
		Context: map[string]interface{}{"service": serviceID},
	}
}

// NewCredentialInvalidError creates an error for a credential rejected by
// structural validation
func NewCredentialInvalidError(serviceID string) *GatewayError {
	return &GatewayError{
		Kind:    KindCredentialInvalid,
		Message: fmt.Sprintf("credential for service %s failed validation", serviceID),
		Context: map[string]interface{}{"service": serviceID},
	}
}

// NewCancelledError creates an error for a caller-cancelled operation
func NewCancelledError(cause error) *GatewayError {
	return &GatewayError{Kind: KindCancelled, Message: "operation cancelled by caller", Cause: cause, Context: make(map[string]interface{})}
}

// NewCacheUnavailableError creates an error for an unreachable cache tier.
// These are absorbed inside the cache layer and never surfaced to callers.
func NewCacheUnavailableError(tier string, cause error) *GatewayError {
	return &GatewayError{
		Kind:    KindCacheUnavailable,
		Message: fmt.Sprintf("cache tier %s unavailable", tier),
		Cause:   cause,
		Context: map[string]interface{}{"tier": tier},
	}
}

// IsKind checks if the error is a GatewayError of a specific kind
func IsKind(err error, kind Kind) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind == kind
	}
	return false
}

// AsGatewayError extracts a GatewayError from an error chain
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
