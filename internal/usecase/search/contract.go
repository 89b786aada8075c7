package search

import (
	"context"

	"github.com/kailas-cloud/speakerdex/internal/domain"
)

// Embedder vectorizes the query text for the semantic stage.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// StageRecorder observes which stage answered each query. Optional.
type StageRecorder interface {
	RecordStage(stage string)
}
