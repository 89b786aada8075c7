package domain

import "errors"

var (
	// ErrQueryRequired signals an empty or blank search query.
	ErrQueryRequired = errors.New("query is required")
	// ErrQueryTooLong signals a query above the accepted length.
	ErrQueryTooLong = errors.New("query too long")
	// ErrQuotaExceeded signals that a client has used up its searches.
	ErrQuotaExceeded = errors.New("search limit reached")
	// ErrStorageUnavailable signals a failing quota store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidCorpus signals a speaker corpus that cannot be searched.
	ErrInvalidCorpus = errors.New("invalid corpus")
)
