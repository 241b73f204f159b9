package health

import "context"

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// UpstreamChecker checks a model provider's availability.
type UpstreamChecker interface {
	HealthCheck(ctx context.Context) error
}

// ReadinessReporter reports whether the vector store has embedded the catalog.
type ReadinessReporter interface {
	Ready() bool
}
