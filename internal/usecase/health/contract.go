package health

import "context"

// DBPinger checks content store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CredentialReporter reports which credentials are configured, by name.
type CredentialReporter interface {
	Presence() map[string]bool
}
