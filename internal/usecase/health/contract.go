package health

import "context"

// IndexPinger checks search index availability.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an inference provider's availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
