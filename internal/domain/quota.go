package domain

import (
	"errors"
	"net/http"
	"strings"
)

// IsQuotaError reports whether err signals upstream quota or capacity exhaustion.
// Upstream error shapes are not a stable contract, so any one of these rules matches:
//   - err wraps ErrUpstreamQuota
//   - err wraps an *UpstreamError with status 429
//   - the provider text contains "429", "quota" (any case) or "RESOURCE_EXHAUSTED"
//
// The provider text is the *UpstreamError message when the chain carries one, so context added
// by wrapping layers (item ids, stage names) never matches. Only a chain without an
// *UpstreamError is matched on its full text.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUpstreamQuota) {
		return true
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode == http.StatusTooManyRequests || quotaText(upErr.Message)
	}
	return quotaText(err.Error())
}

func quotaText(msg string) bool {
	return strings.Contains(msg, "429") ||
		strings.Contains(strings.ToLower(msg), "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
