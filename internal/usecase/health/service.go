package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means search still answers but with reduced quality:
	// the embedding provider or the product index is unavailable.
	Degraded Status = "degraded"
	// Unhealthy means the search store itself is unreachable and no
	// query can be served at all.
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

// Service probes the dependencies a search request flows through: the store,
// the embedding provider and the product index.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	catalog   IndexChecker
}

// New creates a Service. embedding and catalog can be nil.
func New(db DBPinger, embedding EmbeddingChecker, catalog IndexChecker) *Service {
	return &Service{db: db, embedding: embedding, catalog: catalog}
}

// Check runs health checks against all components. A store failure reads as
// Unhealthy; assist-side failures only degrade, because lexical retrieval
// and deterministic fallbacks keep queries answerable.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.catalog != nil {
		if err := s.catalog.IndexReady(ctx); err != nil {
			checks["catalog_index"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["catalog_index"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
