package domain

import "context"

// Generator is the generative model contract used by the ranking pipeline.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationRequest is a two-part prompt: system instructions plus the user request.
type GenerationRequest struct {
	System string
	User   string
}

// GenerationResult holds the raw model text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
