package openai

import (
	"context"
	"encoding/json"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/travelscout/internal/domain"
)

// parseAPIError converts a go-openai failure into *domain.UpstreamError wrapping kind,
// keeping the HTTP status so quota exhaustion stays distinguishable.
func parseAPIError(err error, provider string, kind error) error {
	up := &domain.UpstreamError{Provider: provider, Kind: kind, Message: err.Error()}

	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr):
		up.StatusCode = apiErr.HTTPStatusCode
		up.Message = apiErr.Message
		if apiErr.Type != "" {
			up.Message = apiErr.Type + ": " + apiErr.Message
		}
	case errors.As(err, &reqErr):
		up.StatusCode = reqErr.HTTPStatusCode
		if detail := extractDetail(reqErr.Body); detail != "" {
			up.Message = detail
		} else if len(reqErr.Body) > 0 {
			up.Message = string(reqErr.Body)
		}
	case errors.Is(err, context.DeadlineExceeded):
		up.Message = "request timed out"
	}

	return up
}

// extractDetail extracts a human-readable message from a JSON error body.
// Handles both {"detail": "..."} and Google-style {"error": {"status": "...", "message": "..."}}.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	if parsed.Error.Message != "" {
		if parsed.Error.Status != "" {
			return parsed.Error.Status + ": " + parsed.Error.Message
		}
		return parsed.Error.Message
	}
	return ""
}
