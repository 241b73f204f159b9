package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelscout/internal/config"
	"github.com/kailas-cloud/travelscout/internal/domain"
	"github.com/kailas-cloud/travelscout/internal/metrics"
)

var (
	_ domain.Generator     = (*Generator)(nil)
	_ domain.HealthChecker = (*Generator)(nil)
)

// Generator is a generative model client using the OpenAI-compatible chat completions API.
type Generator struct {
	client         *openai.Client
	model          string
	temperature    float32
	responseFormat *openai.ChatCompletionResponseFormat
	timeout        time.Duration
	provider       string
	logger         *zap.Logger
}

// GeneratorConfig holds the generative model settings.
type GeneratorConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float32
	ResponseFormat string         // config.ResponseFormat*
	SchemaName     string         // used with json_schema
	Schema         json.Marshaler // used with json_schema
	Timeout        time.Duration
	Provider       string
	Logger         *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generative model client.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		client:         newClient(cfg.APIKey, cfg.BaseURL),
		model:          cfg.Model,
		temperature:    cfg.Temperature,
		responseFormat: responseFormat(cfg),
		timeout:        cfg.Timeout,
		provider:       cfg.Provider,
		logger:         logger,
	}
}

func responseFormat(cfg *GeneratorConfig) *openai.ChatCompletionResponseFormat {
	switch cfg.ResponseFormat {
	case config.ResponseFormatJSONSchema:
		if cfg.Schema == nil {
			return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
		}
		name := cfg.SchemaName
		if name == "" {
			name = "result"
		}
		return &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: cfg.Schema,
			},
		}
	case config.ResponseFormatJSONObject:
		return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	default:
		return nil
	}
}

// Generate implements domain.Generator with a single chat completion call.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	chatReq := openai.ChatCompletionRequest{
		Model:          g.model,
		Messages:       messages,
		Temperature:    g.temperature,
		ResponseFormat: g.responseFormat,
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)

	if err != nil {
		g.recordStatus("error")
		return domain.GenerationResult{}, parseAPIError(err, g.provider, domain.ErrGenerativeModelError)
	}
	if len(resp.Choices) == 0 {
		g.recordStatus("error")
		return domain.GenerationResult{}, fmt.Errorf("no choices in completion: %w", domain.ErrGenerativeModelError)
	}

	g.recordStatus("success")
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		g.logger.Warn("completion truncated by token limit",
			zap.String("model", g.model),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	}

	return domain.GenerationResult{
		Text:             choice.Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (g *Generator) recordStatus(status string) {
	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, status).Inc()
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
