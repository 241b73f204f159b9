package ranking

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kailas-cloud/travelscout/internal/domain"
)

// outputSchema is the contract model output is checked against. It is stricter than ResultSchema
// because structured-output backends ignore numeric bounds.
const outputSchema = `{
  "type": "object",
  "required": ["matches", "explanation"],
  "properties": {
    "matches": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "reasoning", "confidence"],
        "properties": {
          "id": {"type": "number"},
          "reasoning": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "explanation": {"type": "string"}
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(outputSchema))
})

type modelMatch struct {
	ID         float64 `json:"id"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

type modelOutput struct {
	Matches     []modelMatch `json:"matches"`
	Explanation string       `json:"explanation"`
}

// stripCodeFences removes a surrounding markdown fence (``` or ```json) from model text.
func stripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseModelOutput is the structural stage: fence stripping plus a generic JSON decode.
func parseModelOutput(text string) (any, []byte, error) {
	cleaned := []byte(stripCodeFences(text))

	var tree any
	if err := json.Unmarshal(cleaned, &tree); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrModelOutputParse, err)
	}
	return tree, cleaned, nil
}

// validateSchema is the strict stage: the tree must satisfy outputSchema in full before it is
// decoded into the typed record. Every violation is reported.
func validateSchema(tree any, raw []byte) (modelOutput, error) {
	schema, err := compiledSchema()
	if err != nil {
		return modelOutput{}, fmt.Errorf("compile output schema: %w", err)
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(tree))
	if err != nil {
		return modelOutput{}, fmt.Errorf("validate model output: %w", err)
	}
	if !res.Valid() {
		details := make([]string, 0, len(res.Errors()))
		for _, desc := range res.Errors() {
			details = append(details, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		sort.Strings(details)
		return modelOutput{}, &domain.SchemaValidationError{Details: details}
	}

	var out modelOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return modelOutput{}, &domain.SchemaValidationError{Details: []string{err.Error()}}
	}
	return out, nil
}

// filterHallucinations keeps only matches whose id is in the candidate set and attaches the item.
// It returns the surviving matches in model order and the number dropped.
func filterHallucinations(matches []modelMatch, candidates []domain.CatalogItem) ([]domain.RankedMatch, int) {
	byID := make(map[int]domain.CatalogItem, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	out := make([]domain.RankedMatch, 0, len(matches))
	dropped := 0
	for _, m := range matches {
		if m.ID != math.Trunc(m.ID) || math.Abs(m.ID) > math.MaxInt32 {
			dropped++
			continue
		}
		item, ok := byID[int(m.ID)]
		if !ok {
			dropped++
			continue
		}
		out = append(out, domain.RankedMatch{
			ID:         item.ID,
			Reasoning:  m.Reasoning,
			Confidence: m.Confidence,
			Item:       item.Clone(),
		})
	}
	return out, dropped
}
