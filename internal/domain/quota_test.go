package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", fmt.Errorf("generate: %w", ErrUpstreamQuota), true},
		{"upstream 429", &UpstreamError{Provider: "generation", StatusCode: http.StatusTooManyRequests,
			Message: "slow down", Kind: ErrGenerativeModelError}, true},
		{"upstream 500", &UpstreamError{Provider: "generation", StatusCode: http.StatusInternalServerError,
			Message: "boom", Kind: ErrGenerativeModelError}, false},
		{"message 429", errors.New("status 429 from provider"), true},
		{"message quota", errors.New("You exceeded your current Quota"), true},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED: try later"), true},
		{"plain", errors.New("connection reset"), false},
		{"schema", &SchemaValidationError{Details: []string{"matches: missing"}}, false},
		{"upstream 500 wrapped with item 429", fmt.Errorf("retrieve candidates: %w",
			fmt.Errorf("initialize vector store: %w",
				fmt.Errorf("embed catalog item 429: %w", &UpstreamError{Provider: "gemini",
					StatusCode: http.StatusInternalServerError, Message: "internal error",
					Kind: ErrEmbeddingProviderError}))), false},
		{"upstream message quota", fmt.Errorf("embed catalog item 7: %w", &UpstreamError{Provider: "gemini",
			StatusCode: http.StatusForbidden, Message: "RESOURCE_EXHAUSTED: daily limit",
			Kind: ErrEmbeddingProviderError}), true},
		{"upstream timeout wrapped with quota text", fmt.Errorf("quota check: generate ranking: %w", &UpstreamError{
			Provider: "gemini", Message: "request timed out", Kind: ErrGenerativeModelError}), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsQuotaError(tc.err))
		})
	}
}

func TestRateLimitedError_RoundsUp(t *testing.T) {
	err := NewRateLimited(1500 * time.Millisecond)
	var rl *RateLimitedError
	assert.True(t, errors.As(err, &rl))
	assert.Equal(t, 2, rl.RetryAfterSeconds())
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestSchemaValidationError_Unwrap(t *testing.T) {
	err := fmt.Errorf("validate: %w", &SchemaValidationError{Details: []string{"a", "b"}})
	assert.True(t, errors.Is(err, ErrSchemaValidation))
	assert.Contains(t, err.Error(), "a; b")
}
