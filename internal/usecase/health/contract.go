package health

import "context"

// DBPinger checks quota store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CorpusInfo reports the loaded speaker roster.
type CorpusInfo interface {
	Len() int
}
