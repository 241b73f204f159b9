package ranking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/kailas-cloud/travelscout/internal/domain"
)

// SchemaName names the declared result schema in structured-output requests.
const SchemaName = "travel_matches"

const systemPromptTemplate = `You are a Smart Travel Scout. Your task is to help users find the best-matching travel experiences from the provided candidates.

STRICT RULES:
1. You must ONLY suggest items from the provided candidates below.
2. If no items match, return an empty "matches" array and explain why in the "explanation" field.
3. For each match, provide a brief reasoning why it matches the user's intent (tags, location, price).
4. Do NOT hallucinate or suggest destinations outside the list.
5. Output MUST be valid JSON matching this schema:
   {
     "matches": [{ "id": number, "reasoning": string, "confidence": number }],
     "explanation": string
   }
   "confidence" is a number between 0 and 1.

CANDIDATES:
%s
`

// BuildPrompt renders the two-part prompt: rules plus the verbatim candidate set, then the user request.
func BuildPrompt(query string, candidates []domain.CatalogItem) (domain.GenerationRequest, error) {
	if candidates == nil {
		candidates = []domain.CatalogItem{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(candidates); err != nil {
		return domain.GenerationRequest{}, fmt.Errorf("encode candidates: %w", err)
	}
	return domain.GenerationRequest{
		System: fmt.Sprintf(systemPromptTemplate, strings.TrimRight(buf.String(), "\n")),
		User:   fmt.Sprintf("User request: %q", query),
	}, nil
}

// ResultSchema declares the model output contract for structured-output capable backends.
func ResultSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"matches": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"id": {
							Type:        jsonschema.Integer,
							Description: "The ID of the matched travel item from the candidates",
						},
						"reasoning": {
							Type:        jsonschema.String,
							Description: "A brief explanation of why this item matches the user's request",
						},
						"confidence": {
							Type:        jsonschema.Number,
							Description: "Confidence score of the match, between 0 and 1",
						},
					},
					Required: []string{"id", "reasoning", "confidence"},
				},
			},
			"explanation": {
				Type:        jsonschema.String,
				Description: "A summary of why these items were selected or why no matches were found",
			},
		},
		Required: []string{"matches", "explanation"},
	}
}
