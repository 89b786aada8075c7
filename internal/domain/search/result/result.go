package result

import "github.com/kailas-cloud/speakerdex/internal/domain/speaker"

// Stage names the retrieval stage that produced an outcome.
type Stage string

// Retrieval stages.
const (
	StageName     Stage = "name"
	StageSemantic Stage = "semantic"
)

// Result is a single search hit. Semantic hits carry a cosine similarity.
type Result struct {
	speaker       *speaker.Speaker
	similarity    float64
	hasSimilarity bool
}

// FromName creates a name-stage hit (no similarity).
func FromName(s *speaker.Speaker) Result {
	return Result{speaker: s}
}

// FromSemantic creates a semantic-stage hit.
func FromSemantic(s *speaker.Speaker, similarity float64) Result {
	return Result{speaker: s, similarity: similarity, hasSimilarity: true}
}

// Speaker returns the matched speaker (shared, read-only).
func (r *Result) Speaker() *speaker.Speaker { return r.speaker }

// Similarity returns the cosine similarity and whether it is set.
func (r *Result) Similarity() (float64, bool) { return r.similarity, r.hasSimilarity }

// NameMatch is the outcome of the fuzzy name stage: ExactMatch or NoMatch.
type NameMatch struct {
	speaker *speaker.Speaker
	score   float64
}

// ExactMatch reports a name scoring at or above the threshold.
func ExactMatch(s *speaker.Speaker, score float64) NameMatch {
	return NameMatch{speaker: s, score: score}
}

// NoMatch reports that no name cleared the threshold. bestScore is kept for logging.
func NoMatch(bestScore float64) NameMatch {
	return NameMatch{score: bestScore}
}

// Found reports whether this is an ExactMatch.
func (m NameMatch) Found() bool { return m.speaker != nil }

// Speaker returns the matched speaker, nil for NoMatch.
func (m NameMatch) Speaker() *speaker.Speaker { return m.speaker }

// Score returns the fuzzy score on a 0-100 scale.
func (m NameMatch) Score() float64 { return m.score }

// SemanticOutcome is the outcome of the semantic stage: Ranked or Unavailable.
type SemanticOutcome struct {
	results []Result
	err     error
}

// Ranked wraps results sorted by descending similarity.
func Ranked(results []Result) SemanticOutcome {
	return SemanticOutcome{results: results}
}

// Unavailable reports that the embedding provider could not serve the query.
func Unavailable(err error) SemanticOutcome {
	return SemanticOutcome{err: err}
}

// Available reports whether results were ranked.
func (o SemanticOutcome) Available() bool { return o.err == nil }

// Results returns the ranked results (nil when unavailable).
func (o SemanticOutcome) Results() []Result { return o.results }

// Err returns the provider failure for Unavailable outcomes.
func (o SemanticOutcome) Err() error { return o.err }

// Outcome is what a search returns to its caller.
type Outcome struct {
	Stage   Stage
	Results []Result
	// Degraded is set when the semantic stage was needed but unavailable.
	Degraded bool
}
