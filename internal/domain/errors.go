package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrValidation signals malformed or missing client input.
	ErrValidation = errors.New("validation failed")
	// ErrRateLimited signals that the local per-client rate limit was hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstreamQuota signals that an upstream model provider reported quota or capacity exhaustion.
	ErrUpstreamQuota = errors.New("upstream quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerativeModelError signals a generative model failure.
	ErrGenerativeModelError = errors.New("generative model error")
	// ErrModelOutputParse signals model output that is not parseable JSON.
	ErrModelOutputParse = errors.New("model output is not valid json")
	// ErrSchemaValidation signals model output that does not match the result schema.
	ErrSchemaValidation = errors.New("model output schema violation")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// RateLimitedError wraps ErrRateLimited with the time the client should wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: retry after %ds", ErrRateLimited.Error(), e.RetryAfterSeconds())
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// RetryAfterSeconds rounds the wait up to whole seconds.
func (e *RateLimitedError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// NewRateLimited creates a rate limit error.
func NewRateLimited(retryAfter time.Duration) error {
	return &RateLimitedError{RetryAfter: retryAfter}
}

// SchemaValidationError wraps ErrSchemaValidation with every violation found.
type SchemaValidationError struct {
	Details []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSchemaValidation.Error(), strings.Join(e.Details, "; "))
}

func (e *SchemaValidationError) Unwrap() error { return ErrSchemaValidation }

// UpstreamError carries the provider response that caused a failure.
// Kind is one of ErrEmbeddingProviderError, ErrGenerativeModelError.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Kind       error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error %d: %s: %s", e.Provider, e.StatusCode, e.Message, e.Kind.Error())
	}
	return fmt.Sprintf("%s request failed: %s: %s", e.Provider, e.Message, e.Kind.Error())
}

func (e *UpstreamError) Unwrap() error { return e.Kind }
