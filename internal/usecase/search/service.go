package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/speakerdex/internal/domain"
	"github.com/kailas-cloud/speakerdex/internal/domain/search/request"
	"github.com/kailas-cloud/speakerdex/internal/domain/search/result"
	"github.com/kailas-cloud/speakerdex/internal/domain/speaker"
	logpkg "github.com/kailas-cloud/speakerdex/internal/logger"
)

// Stage labels reported to the StageRecorder.
const (
	RecordedName        = "name"
	RecordedSemantic    = "semantic"
	RecordedUnavailable = "unavailable"
)

var errNoEmbedder = errors.New("no embedder configured")

// Service is the hybrid retriever: fuzzy name match first, semantic ranking as fallback.
type Service struct {
	corpus    *speaker.Corpus
	embed     Embedder
	threshold float64
	stages    StageRecorder
}

// New creates a search service over an immutable corpus. embed may be nil,
// in which case every semantic lookup is unavailable.
func New(corpus *speaker.Corpus, embed Embedder) *Service {
	return &Service{
		corpus:    corpus,
		embed:     embed,
		threshold: DefaultNameMatchThreshold,
	}
}

// WithNameThreshold overrides the fuzzy score needed for a name match.
func (s *Service) WithNameThreshold(threshold float64) *Service {
	if threshold > 0 {
		s.threshold = threshold
	}
	return s
}

// WithStageRecorder attaches a recorder notified once per search.
func (s *Service) WithStageRecorder(r StageRecorder) *Service {
	s.stages = r
	return s
}

// Search runs the name stage and, only if it finds nothing, the semantic stage.
// Provider failures never surface as errors: the outcome is marked Degraded instead.
func (s *Service) Search(ctx context.Context, req *request.Request) result.Outcome {
	log := logpkg.FromContext(ctx)

	match := s.MatchName(req.Query())
	if match.Found() {
		log.Debug("Found by name match",
			zap.String("full_name", match.Speaker().FullName()),
			zap.Float64("score", match.Score()),
		)
		s.record(RecordedName)
		return result.Outcome{
			Stage:   result.StageName,
			Results: []result.Result{result.FromName(match.Speaker())},
		}
	}

	log.Debug("Running semantic search",
		zap.Float64("best_name_score", match.Score()),
		zap.Int("top_k", req.TopK()),
	)

	semantic := s.Semantic(ctx, req.Query(), req.TopK())
	if !semantic.Available() {
		log.Error("Semantic search unavailable", zap.Error(semantic.Err()))
		s.record(RecordedUnavailable)
		return result.Outcome{Stage: result.StageSemantic, Degraded: true}
	}

	s.record(RecordedSemantic)
	return result.Outcome{Stage: result.StageSemantic, Results: semantic.Results()}
}

// MatchName scores query against every speaker name.
func (s *Service) MatchName(query string) result.NameMatch {
	idx, score := bestName(query, s.corpus.Names())
	if idx >= 0 && score >= s.threshold {
		return result.ExactMatch(s.corpus.At(idx), score)
	}
	return result.NoMatch(score)
}

// Semantic embeds query and ranks the corpus by cosine similarity.
func (s *Service) Semantic(ctx context.Context, query string, topK int) result.SemanticOutcome {
	if s.embed == nil {
		return result.Unavailable(errNoEmbedder)
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return result.Unavailable(fmt.Errorf("vectorize query: %w", err))
	}

	domain.UsageFromContext(ctx).AddTokens(embResult.TotalTokens)

	if got, want := len(embResult.Embedding), s.corpus.Dimensions(); got != want {
		return result.Unavailable(fmt.Errorf("%w: query vector has %d dimensions, corpus has %d",
			domain.ErrVectorDimMismatch, got, want))
	}

	return result.Ranked(rankTopK(s.corpus, embResult.Embedding, topK))
}

func (s *Service) record(stage string) {
	if s.stages != nil {
		s.stages.RecordStage(stage)
	}
}
