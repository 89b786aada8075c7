// Package chi exposes the speaker search API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/speakerdex/internal/domain"
	domquota "github.com/kailas-cloud/speakerdex/internal/domain/quota"
	"github.com/kailas-cloud/speakerdex/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/speakerdex/internal/logger"
	"github.com/kailas-cloud/speakerdex/internal/metrics"
	healthuc "github.com/kailas-cloud/speakerdex/internal/usecase/health"
	quotauc "github.com/kailas-cloud/speakerdex/internal/usecase/quota"
	searchuc "github.com/kailas-cloud/speakerdex/internal/usecase/search"
)

// maxBodyBytes caps the POST /search body.
const maxBodyBytes = 64 << 10

// Server holds the HTTP handlers.
type Server struct {
	search        *searchuc.Service
	quota         *quotauc.Service
	health        *healthuc.Service
	defaultTopK   int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. defaultTopK applies when a search
// body omits top_k.
func NewServer(
	search *searchuc.Service,
	quota *quotauc.Service,
	health *healthuc.Service,
	defaultTopK int,
	logger *zap.Logger,
) *Server {
	if defaultTopK <= 0 {
		defaultTopK = request.DefaultTopK
	}
	return &Server{
		search:        search,
		quota:         quota,
		health:        health,
		defaultTopK:   defaultTopK,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// RemainingSearches handles GET /remaining-searches.
func (s *Server) RemainingSearches(w http.ResponseWriter, r *http.Request) {
	remaining, err := s.quota.Remaining(r.Context(), ClientID(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, remainingResponse{RemainingSearches: remaining})
}

// Search handles POST /search. A search slot is reserved atomically before
// the search runs; invalid requests and rejected clients consume nothing.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, "")
		return
	}

	topK := s.defaultTopK
	if body.TopK != nil {
		topK = *body.TopK
	}
	req, err := request.New(body.Query, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	clientID := ClientID(r)
	log := s.log(r).With(zap.String("client_id", clientID))
	ctx := logpkg.ContextWithLogger(r.Context(), log)

	used, err := s.quota.CheckAndConsume(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			metrics.RecordQuotaRejection()
			log.Info("Search limit reached")
		}
		s.handleDomainError(w, r, err)
		return
	}

	log.Info("Received search query", zap.String("query", req.Query()), zap.Int("top_k", req.TopK()))

	ctx, usage := domain.NewContextWithUsage(ctx)
	outcome := s.search.Search(ctx, &req)

	setEmbeddingHeaders(w, usage)
	w.Header().Set("X-Search-Stage", string(outcome.Stage))
	if outcome.Degraded {
		w.Header().Set("X-Search-Degraded", "true")
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Results:           resultsToItems(outcome.Results),
		RemainingSearches: domquota.Remaining(s.quota.MaxSearches(), used),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Speakers: report.Speakers,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) log(r *http.Request) *zap.Logger {
	return logpkg.FromContextOr(r.Context(), s.logger)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}
