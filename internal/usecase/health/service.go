package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the ranking pipeline cannot serve requests.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckPending indicates a lazily initialized component that has not started yet.
	CheckPending CheckResult = "pending"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Components lists what the service probes. Nil fields are skipped.
type Components struct {
	Embedding   UpstreamChecker
	Generation  UpstreamChecker
	Cache       CachePinger
	VectorStore ReadinessReporter
}

// Service coordinates health checks.
type Service struct {
	c Components
}

// New creates a Service.
func New(c Components) *Service {
	return &Service{c: c}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.c.Embedding != nil {
		checks["embedding"] = result(s.c.Embedding.HealthCheck(ctx))
	}
	if s.c.Generation != nil {
		checks["generation"] = result(s.c.Generation.HealthCheck(ctx))
	}
	if s.c.Cache != nil {
		checks["cache"] = result(s.c.Cache.Ping(ctx))
	}
	if s.c.VectorStore != nil {
		if s.c.VectorStore.Ready() {
			checks["vector_store"] = CheckOK
		} else {
			checks["vector_store"] = CheckPending
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	// Without either model the pipeline cannot answer a single query.
	if checks["embedding"] == CheckError || checks["generation"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
