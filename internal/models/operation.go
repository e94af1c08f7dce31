package models

import (
	"time"
)

// Operation describes one outbound call to an external service. It is
// immutable once constructed: the executor copies header maps before
// mutating anything, so the same value may be passed in again safely.
type Operation struct {
	// Service is the credential service id the call authenticates as
	// (e.g. "openai", "pexels").
	Service string

	Method  string
	URL     string
	Headers map[string]string
	Body    []byte

	// TimeoutOverride bounds each attempt when non-zero; otherwise the
	// executor default applies.
	TimeoutOverride time.Duration

	// Idempotent marks the operation as safe to retry. GET and HEAD
	// operations are treated as idempotent regardless.
	Idempotent bool

	// CacheKey enables read-through/write-through caching when set.
	CacheKey string
	CacheTTL time.Duration

	// Credential overrides credential resolution for this call. Highest
	// priority source when non-empty.
	Credential string
}

// ReadOnly reports whether the operation is a read by HTTP semantics
func (o *Operation) ReadOnly() bool {
	return o.Method == "GET" || o.Method == "HEAD"
}

// Response is the executor's provider-agnostic result of a successful call
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"body,omitempty"`

	// Attempts is how many attempts the executor made, including the
	// successful one. Exposed for observability only.
	Attempts int `json:"attempts"`

	// FromCache is true when the gateway served the response from the
	// tiered cache without any network attempt.
	FromCache bool `json:"from_cache"`
}
