// Package health aggregates component availability for the health endpoint.
package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// Status is the aggregated health verdict.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the embedding provider is down but the service
	// still answers via keyword retrieval.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// Report carries per-component results alongside the verdict.
type Report struct {
	Status Status
	Checks map[string]string
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// Check probes each component. The database is load-bearing, so its failure
// makes the whole service unhealthy; a dead embedding provider only
// degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]string)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = Unhealthy
	} else {
		checks["database"] = "ok"
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = err.Error()
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["embedding"] = "ok"
		}
	}

	return Report{Status: status, Checks: checks}
}
