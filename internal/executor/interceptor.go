package executor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bjpl/describe-it-sub001/internal/errors"
	"github.com/bjpl/describe-it-sub001/internal/models"

	"github.com/google/uuid"
)

// RequestInterceptor mutates or augments the outgoing request. Request
// interceptors run in registration order before attempt #1 and before
// every retry.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// ResponseInterceptor runs only on a successful response and may transform
// the decoded body.
type ResponseInterceptor func(ctx context.Context, resp *models.Response) error

// ErrorInterceptor runs on every failure, including ones that will be
// retried. It may enrich or reclassify the error, but reclassification
// never overrides the retry decision already made from the raw outcome.
type ErrorInterceptor func(ctx context.Context, gwErr *errors.GatewayError)

// requestIDHeader carries the per-operation trace id
const requestIDHeader = "X-Request-ID"

// RequestIDInterceptor stamps each outgoing request with a fresh uuid,
// letting provider-side logs be correlated with gateway attempts.
func RequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *http.Request) error {
		req.Header.Set(requestIDHeader, uuid.NewString())
		return nil
	}
}

// CredentialInterceptor injects the resolved credential for the request's
// service using the service's auth scheme. The credential value is carried
// on the request context by the executor.
func CredentialInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *http.Request) error {
		cred, ok := credentialFromContext(ctx)
		if !ok || cred.value == "" {
			return nil
		}
		switch cred.service {
		case "pexels":
			req.Header.Set("Authorization", cred.value)
		case "unsplash":
			req.Header.Set("Authorization", "Client-ID "+cred.value)
		case "anthropic":
			req.Header.Set("x-api-key", cred.value)
		default:
			req.Header.Set("Authorization", "Bearer "+cred.value)
		}
		return nil
	}
}

type credentialContextKey struct{}

type contextCredential struct {
	service string
	value   string
}

// WithCredential attaches the resolved credential for interceptors
func WithCredential(ctx context.Context, service, value string) context.Context {
	return context.WithValue(ctx, credentialContextKey{}, contextCredential{service: service, value: value})
}

func credentialFromContext(ctx context.Context) (contextCredential, bool) {
	cred, ok := ctx.Value(credentialContextKey{}).(contextCredential)
	return cred, ok
}

// runRequestInterceptors applies the pipeline in registration order. A
// failing interceptor aborts the attempt; the failure is reported with the
// interceptor's position so misbehaving pipelines are identifiable.
func runRequestInterceptors(ctx context.Context, interceptors []RequestInterceptor, req *http.Request) error {
	for i, interceptor := range interceptors {
		if err := safeRequestInterceptor(ctx, interceptor, req); err != nil {
			return fmt.Errorf("request interceptor %d: %w", i, err)
		}
	}
	return nil
}

// safeRequestInterceptor isolates a panic inside one interceptor
func safeRequestInterceptor(ctx context.Context, interceptor RequestInterceptor, req *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return interceptor(ctx, req)
}
