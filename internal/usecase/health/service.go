package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates a component that is not configured.
	CheckMissing CheckResult = "missing"
)

// DefaultCheckTimeout bounds each component probe.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
// Credentials carries presence flags only, never values.
type Report struct {
	Status      Status
	Checks      map[string]CheckResult
	Credentials map[string]bool
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	creds     CredentialReporter
	timeout   time.Duration
}

// New creates a Service. db and embedding are nil when not configured; creds can be nil.
func New(db DBPinger, embedding EmbeddingChecker, creds CredentialReporter) *Service {
	return &Service{db: db, embedding: embedding, creds: creds, timeout: DefaultCheckTimeout}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["database"] = s.probe(ctx, s.db)
	if s.embedding != nil {
		checks["embedding"] = s.probe(ctx, pingFunc(s.embedding.HealthCheck))
	}

	var creds map[string]bool
	if s.creds != nil {
		creds = s.creds.Presence()
		checks["credentials"] = CheckOK
		for _, present := range creds {
			if !present {
				checks["credentials"] = CheckMissing
				break
			}
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Credentials: creds}
}

func (s *Service) probe(ctx context.Context, p DBPinger) CheckResult {
	if p == nil {
		return CheckMissing
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
