package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an inference provider is failing; searches that
	// do not need the failing provider still work.
	Degraded Status = "degraded"
	// Unhealthy indicates the search index is unreachable. No mode can
	// serve results without it.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks. The index is the hard dependency;
// the embedding and intent providers only degrade the report.
type Service struct {
	index     IndexPinger
	embedding ProviderChecker
	intent    ProviderChecker
}

// New creates a Service. embedding and intent can be nil.
func New(index IndexPinger, embedding, intent ProviderChecker) *Service {
	return &Service{index: index, embedding: embedding, intent: intent}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	indexOK := true
	if err := s.index.Ping(ctx); err != nil {
		checks["index"] = CheckError
		indexOK = false
	} else {
		checks["index"] = CheckOK
	}

	providersOK := true
	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
			providersOK = false
		} else {
			checks["embedding"] = CheckOK
		}
	}
	if s.intent != nil {
		if err := s.intent.HealthCheck(ctx); err != nil {
			checks["intent"] = CheckError
			providersOK = false
		} else {
			checks["intent"] = CheckOK
		}
	}

	switch {
	case !indexOK:
		return Report{Status: Unhealthy, Checks: checks}
	case !providersOK:
		return Report{Status: Degraded, Checks: checks}
	default:
		return Report{Status: Healthy, Checks: checks}
	}
}
