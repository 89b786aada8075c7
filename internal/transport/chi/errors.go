package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/speakerdex/internal/domain"
)

// Client-facing error texts.
const (
	msgInvalidBody    = "Invalid request body"
	msgQueryRequired  = "Query is required"
	msgQueryTooLong   = "Query is too long"
	msgLimitReached   = "Search limit reached"
	msgLimitDetail    = "You have reached your maximum number of searches"
	msgInternalError  = "Internal Server Error"
	msgInternalDetail = "internal error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrQueryRequired, http.StatusBadRequest, msgQueryRequired, ""),
		sentinelHandler(domain.ErrQueryTooLong, http.StatusBadRequest, msgQueryTooLong, ""),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, msgLimitReached, msgLimitDetail),
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, msg, detail string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg, detail)
		return true
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrStorageUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return msgInternalDetail
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.log(r).Error("Unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgInternalError, safeDomainMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorResponse{Error: msg, Message: detail})
}
