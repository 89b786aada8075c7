package speaker

import (
	"fmt"

	"github.com/kailas-cloud/speakerdex/internal/domain"
)

// Corpus is the read-only set of speakers, shared by reference between requests.
type Corpus struct {
	speakers []Speaker
	names    []string
	dim      int
}

// NewCorpus takes ownership of speakers. All embeddings must share one length.
func NewCorpus(speakers []Speaker) (*Corpus, error) {
	if len(speakers) == 0 {
		return nil, fmt.Errorf("%w: no speakers", domain.ErrInvalidCorpus)
	}

	dim := len(speakers[0].embedding)
	names := make([]string, len(speakers))
	for i := range speakers {
		if got := len(speakers[i].embedding); got != dim {
			return nil, fmt.Errorf("%w: speaker %q has %d dimensions, expected %d",
				domain.ErrVectorDimMismatch, speakers[i].fullName, got, dim)
		}
		names[i] = speakers[i].fullName
	}

	return &Corpus{speakers: speakers, names: names, dim: dim}, nil
}

// Len returns the number of speakers.
func (c *Corpus) Len() int { return len(c.speakers) }

// At returns the i-th speaker in corpus order.
func (c *Corpus) At(i int) *Speaker { return &c.speakers[i] }

// Names returns the full names in corpus order. Callers must not modify it.
func (c *Corpus) Names() []string { return c.names }

// Dimensions returns the embedding length shared by every speaker.
func (c *Corpus) Dimensions() int { return c.dim }
