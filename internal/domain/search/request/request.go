package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/speakerdex/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in bytes.
	MaxQueryLength = 4096
	DefaultTopK    = 5
	MaxTopK        = 100
)

// Request is a validated search query.
type Request struct {
	query string
	topK  int
}

// New validates and normalizes search parameters.
// The query is trimmed; topK <= 0 takes DefaultTopK and is clamped to MaxTopK.
func New(query string, topK int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.ErrQueryRequired
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w (max %d bytes)", domain.ErrQueryTooLong, MaxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return Request{query: query, topK: topK}, nil
}

// Query returns the trimmed search text.
func (r *Request) Query() string { return r.query }

// TopK returns the number of semantic results to return.
func (r *Request) TopK() int { return r.topK }
