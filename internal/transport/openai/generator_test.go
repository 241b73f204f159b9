package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelscout/internal/config"
	"github.com/kailas-cloud/travelscout/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type       string `json:"type"`
		JSONSchema *struct {
			Name   string          `json:"name"`
			Schema json.RawMessage `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

func chatServer(t *testing.T, content string, inspect func(chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(req)
		}

		resp := map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

type rawSchema string

func (s rawSchema) MarshalJSON() ([]byte, error) { return []byte(s), nil }

func TestGenerator_Generate(t *testing.T) {
	server := chatServer(t, `{"matches":[]}`, func(req chatRequest) {
		assert.Equal(t, "gen-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be precise", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "find a beach", req.Messages[1].Content)

		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_schema", req.ResponseFormat.Type)
		require.NotNil(t, req.ResponseFormat.JSONSchema)
		assert.Equal(t, "travel_matches", req.ResponseFormat.JSONSchema.Name)
		assert.JSONEq(t, `{"type":"object"}`, string(req.ResponseFormat.JSONSchema.Schema))
	})
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Model:          "gen-model",
		ResponseFormat: config.ResponseFormatJSONSchema,
		SchemaName:     "travel_matches",
		Schema:         rawSchema(`{"type":"object"}`),
		Timeout:        5 * time.Second,
		Provider:       "test",
		Logger:         zap.NewNop(),
	})

	result, err := gen.Generate(context.Background(), domain.GenerationRequest{System: "be precise", User: "find a beach"})
	require.NoError(t, err)
	assert.Equal(t, `{"matches":[]}`, result.Text)
	assert.Equal(t, 120, result.PromptTokens)
	assert.Equal(t, 30, result.CompletionTokens)
}

func TestGenerator_ResponseFormats(t *testing.T) {
	tests := []struct {
		format   string
		wantType string
	}{
		{config.ResponseFormatJSONObject, "json_object"},
		{config.ResponseFormatText, ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			server := chatServer(t, "{}", func(req chatRequest) {
				if tt.wantType == "" {
					assert.Nil(t, req.ResponseFormat)
					return
				}
				require.NotNil(t, req.ResponseFormat)
				assert.Equal(t, tt.wantType, req.ResponseFormat.Type)
			})
			defer server.Close()

			gen := NewGenerator(&GeneratorConfig{
				APIKey: "k", BaseURL: server.URL, Model: "m", ResponseFormat: tt.format, Provider: "test",
			})
			_, err := gen.Generate(context.Background(), domain.GenerationRequest{User: "q"})
			require.NoError(t, err)
		})
	}
}

func TestGenerator_OmitsEmptySystemMessage(t *testing.T) {
	server := chatServer(t, "{}", func(req chatRequest) {
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
	})
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{APIKey: "k", BaseURL: server.URL, Model: "m", Provider: "test"})
	_, err := gen.Generate(context.Background(), domain.GenerationRequest{User: "q"})
	require.NoError(t, err)
}

func TestGenerator_QuotaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{APIKey: "k", BaseURL: server.URL, Model: "m", Provider: "test"})
	_, err := gen.Generate(context.Background(), domain.GenerationRequest{User: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerativeModelError)
	assert.True(t, domain.IsQuotaError(err))
}

func TestGenerator_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{APIKey: "k", BaseURL: server.URL, Model: "m", Provider: "test"})
	_, err := gen.Generate(context.Background(), domain.GenerationRequest{User: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerativeModelError)
	assert.False(t, domain.IsQuotaError(err))
}
