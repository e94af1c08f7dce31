package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *GatewayError
		want bool
	}{
		{"timeout", NewTimeoutError("t", nil), true},
		{"transport", NewTransportError("t", nil), true},
		{"rate limited", NewRateLimitedError("t", time.Second), true},
		{"500", NewHTTPStatusError(500, "t"), true},
		{"503", NewHTTPStatusError(503, "t"), true},
		{"400", NewHTTPStatusError(400, "t"), false},
		{"404", NewHTTPStatusError(404, "t"), false},
		{"credential unavailable", NewCredentialUnavailableError("openai"), false},
		{"credential invalid", NewCredentialInvalidError("openai"), false},
		{"cancelled", NewCancelledError(nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	gwErr := NewTimeoutError("attempt timed out", nil)
	wrapped := fmt.Errorf("operation failed: %w", gwErr)

	if !IsKind(wrapped, KindTimeout) {
		t.Error("IsKind failed to match through a wrapped chain")
	}
	if IsKind(wrapped, KindTransport) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(fmt.Errorf("plain"), KindTimeout) {
		t.Error("IsKind matched a non-gateway error")
	}
}

func TestErrorIncludesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	gwErr := NewTransportError("transport failure", cause)

	msg := gwErr.Error()
	if msg != "transport: transport failure (caused by: connection refused)" {
		t.Errorf("Error() = %q", msg)
	}
	if gwErr.Unwrap() != cause {
		t.Error("Unwrap did not return the cause")
	}
}

func TestWithContext(t *testing.T) {
	gwErr := NewHTTPStatusError(503, "server error").WithContext("attempt", 2)
	if gwErr.Context["attempt"] != 2 {
		t.Errorf("context = %v", gwErr.Context)
	}
}
