package ranking

import (
	"context"

	"github.com/kailas-cloud/travelscout/internal/domain"
	"github.com/kailas-cloud/travelscout/internal/usecase/ratelimit"
)

// RateLimiter gates requests per client key.
type RateLimiter interface {
	Check(key string) ratelimit.Decision
}

// Retriever returns the candidate set for a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]domain.CatalogItem, error)
}

// Generator calls the generative model.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}
