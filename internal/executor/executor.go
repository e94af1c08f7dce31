package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bjpl/describe-it-sub001/internal/errors"
	"github.com/bjpl/describe-it-sub001/internal/logger"
	"github.com/bjpl/describe-it-sub001/internal/models"

	"go.uber.org/zap"
)

// Transport performs one HTTP exchange. The surrounding HTTP layer
// supplies it; the default wraps http.DefaultClient. The executor owns
// timeouts, so transports should not apply their own.
type Transport func(ctx context.Context, req *http.Request) (*http.Response, error)

// DefaultTransport issues requests through http.DefaultClient
func DefaultTransport() Transport {
	return func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return http.DefaultClient.Do(req.WithContext(ctx))
	}
}

// Executor executes one logical operation with bounded per-attempt
// timeout, bounded retries with exponential backoff, and an ordered
// interceptor pipeline. Attempts within one Execute call are strictly
// sequential; independent Execute calls share nothing but the interceptor
// slices, which are fixed after construction.
type Executor struct {
	transport        Transport
	policy           RetryPolicy
	defaultTimeout   time.Duration
	reqInterceptors  []RequestInterceptor
	respInterceptors []ResponseInterceptor
	errInterceptors  []ErrorInterceptor

	// sleep waits out the backoff delay, returning early with the context
	// error on cancellation. Injected so tests assert delays without
	// actually waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Executor
type Option func(*Executor)

// WithTransport replaces the default HTTP transport
func WithTransport(t Transport) Option {
	return func(e *Executor) { e.transport = t }
}

// WithRetryPolicy replaces the default retry policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Executor) { e.policy = p }
}

// WithDefaultTimeout sets the per-attempt timeout used when an operation
// carries no override
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Executor) { e.defaultTimeout = d }
}

// WithRequestInterceptor appends a request interceptor
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(e *Executor) { e.reqInterceptors = append(e.reqInterceptors, i) }
}

// WithResponseInterceptor appends a response interceptor
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(e *Executor) { e.respInterceptors = append(e.respInterceptors, i) }
}

// WithErrorInterceptor appends an error interceptor
func WithErrorInterceptor(i ErrorInterceptor) Option {
	return func(e *Executor) { e.errInterceptors = append(e.errInterceptors, i) }
}

func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// New creates an executor with the default transport, retry policy, and a
// 30 second per-attempt timeout unless overridden by options.
func New(opts ...Option) *Executor {
	e := &Executor{
		transport:      DefaultTransport(),
		policy:         DefaultRetryPolicy(),
		defaultTimeout: 30 * time.Second,
		sleep:          sleepWithContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the operation to completion: at most MaxAttempts attempts
// for idempotent or read operations, exactly one otherwise. The last
// observed error is surfaced when attempts are exhausted. Cancellation of
// the caller's context wins over any scheduled retry and yields a
// Cancelled error, distinct from a per-attempt Timeout.
func (e *Executor) Execute(ctx context.Context, op models.Operation) (*models.Response, *errors.GatewayError) {
	maxAttempts := e.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if !op.Idempotent && !op.ReadOnly() {
		// Retrying a non-idempotent operation risks duplicating its effect.
		maxAttempts = 1
	}

	var lastErr *errors.GatewayError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError(ctx.Err()).WithContext("attempt", attempt)
		}

		resp, gwErr := e.attempt(ctx, op, attempt)
		if gwErr == nil {
			resp.Attempts = attempt
			e.runResponseInterceptors(ctx, resp)
			return resp, nil
		}

		if gwErr.Kind == errors.KindCancelled {
			e.runErrorInterceptors(ctx, gwErr)
			return nil, gwErr
		}

		// The retry decision comes from the raw outcome, before error
		// interceptors get a chance to reclassify.
		retryable := gwErr.Retryable()

		gwErr.WithContext("attempt", attempt)
		e.runErrorInterceptors(ctx, gwErr)
		lastErr = gwErr

		if !retryable || attempt == maxAttempts {
			break
		}

		delay := e.policy.DelayFor(attempt)
		logger.GetLogger().Debug("Retrying operation",
			zap.String("service", op.Service),
			zap.String("url", op.URL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(gwErr))

		if err := e.sleep(ctx, delay); err != nil {
			return nil, errors.NewCancelledError(err).WithContext("attempt", attempt)
		}
	}

	return nil, lastErr
}

// attempt performs one bounded attempt: interceptors, transport call,
// status classification.
func (e *Executor) attempt(ctx context.Context, op models.Operation, attempt int) (*models.Response, *errors.GatewayError) {
	timeout := e.defaultTimeout
	if op.TimeoutOverride > 0 {
		timeout = op.TimeoutOverride
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := e.buildRequest(attemptCtx, op)
	if err != nil {
		return nil, errors.NewTransportError("failed to build request", err)
	}

	if err := runRequestInterceptors(attemptCtx, e.reqInterceptors, req); err != nil {
		return nil, errors.NewTransportError("request interceptor failed", err)
	}

	httpResp, err := e.transport(attemptCtx, req)
	if err != nil {
		return nil, e.classifyTransportError(ctx, attemptCtx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, e.classifyTransportError(ctx, attemptCtx, err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.NewRateLimitedError("rate limited by service", parseRetryAfter(httpResp))
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, errors.NewHTTPStatusError(httpResp.StatusCode,
			fmt.Sprintf("service returned status %d", httpResp.StatusCode))
	}

	return &models.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    flattenHeaders(httpResp.Header),
		Body:       body,
	}, nil
}

// buildRequest constructs the attempt's http request from the immutable
// operation, copying the header map so interceptors never mutate the
// caller's operation.
func (e *Executor) buildRequest(ctx context.Context, op models.Operation) (*http.Request, error) {
	var body io.Reader
	if len(op.Body) > 0 {
		body = bytes.NewReader(op.Body)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, op.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range op.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// classifyTransportError maps a transport failure onto the taxonomy.
// Caller cancellation is checked on the parent context so it is never
// misreported as an attempt timeout.
func (e *Executor) classifyTransportError(parentCtx, attemptCtx context.Context, err error) *errors.GatewayError {
	if stderrors.Is(parentCtx.Err(), context.Canceled) {
		return errors.NewCancelledError(parentCtx.Err())
	}
	if stderrors.Is(attemptCtx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError("attempt exceeded timeout", err)
	}
	return errors.NewTransportError("transport failure", err)
}

// runResponseInterceptors applies response interceptors in registration
// order. A failing interceptor is logged and stops the pipeline; the
// response stays as transformed so far.
func (e *Executor) runResponseInterceptors(ctx context.Context, resp *models.Response) {
	for i, interceptor := range e.respInterceptors {
		if err := safeResponseInterceptor(ctx, interceptor, resp); err != nil {
			logger.GetLogger().Warn("Response interceptor failed",
				zap.Int("interceptor", i), zap.Error(err))
			return
		}
	}
}

func safeResponseInterceptor(ctx context.Context, interceptor ResponseInterceptor, resp *models.Response) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return interceptor(ctx, resp)
}

// runErrorInterceptors applies error interceptors to every failure,
// including ones about to be retried. Panics are recorded on the error's
// context rather than crashing the executor loop.
func (e *Executor) runErrorInterceptors(ctx context.Context, gwErr *errors.GatewayError) {
	for i, interceptor := range e.errInterceptors {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					gwErr.WithContext(fmt.Sprintf("error_interceptor_%d_panic", i), fmt.Sprint(rec))
					logger.GetLogger().Warn("Error interceptor panicked",
						zap.Int("interceptor", i), zap.Any("panic", rec))
				}
			}()
			interceptor(ctx, gwErr)
		}()
	}
}

// parseRetryAfter extracts the Retry-After hint from a 429, in seconds
// form only. HTTP-date values are rare from the services involved and are
// ignored.
func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for k := range header {
		flat[k] = header.Get(k)
	}
	return flat
}

// sleepWithContext waits for the delay or the context, whichever ends
// first. Cancellation always wins over a scheduled retry.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
