// Package speaker holds the immutable speaker corpus searched by speakerdex.
package speaker

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/speakerdex/internal/domain"
	"github.com/kailas-cloud/speakerdex/internal/domain/session"
)

// Profile holds the optional descriptive attributes of a speaker.
// Empty strings mean the attribute is absent.
type Profile struct {
	Title       string
	Company     string
	Bio         string
	LinkedinURL string
	PhotoURL    string
}

// Speaker is one conference speaker with its precomputed embedding.
type Speaker struct {
	fullName  string
	profile   Profile
	sessions  string
	embedding []float32
}

// New validates and creates a speaker.
func New(fullName string, profile Profile, sessions string, embedding []float32) (Speaker, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return Speaker{}, fmt.Errorf("%w: full name is required", domain.ErrInvalidCorpus)
	}
	if len(embedding) == 0 {
		return Speaker{}, fmt.Errorf("%w: speaker %q has no embedding", domain.ErrInvalidCorpus, fullName)
	}
	return Speaker{
		fullName:  fullName,
		profile:   profile,
		sessions:  sessions,
		embedding: embedding,
	}, nil
}

// FullName returns the speaker name used for fuzzy lookups.
func (s *Speaker) FullName() string { return s.fullName }

// Profile returns the descriptive attributes.
func (s *Speaker) Profile() Profile { return s.profile }

// EncodedSessions returns the raw delimiter-encoded session list.
func (s *Speaker) EncodedSessions() string { return s.sessions }

// Sessions parses the encoded session list.
func (s *Speaker) Sessions() []session.Session { return session.Parse(s.sessions) }

// Embedding returns the precomputed embedding. Callers must not modify it.
func (s *Speaker) Embedding() []float32 { return s.embedding }
