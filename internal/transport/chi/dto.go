package chi

import (
	"github.com/kailas-cloud/speakerdex/internal/domain/search/result"
	"github.com/kailas-cloud/speakerdex/internal/domain/session"
	"github.com/kailas-cloud/speakerdex/internal/domain/speaker"
)

// searchRequest is the POST /search body.
type searchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

type searchResponse struct {
	Results           []speakerItem `json:"results"`
	RemainingSearches int64         `json:"remaining_searches"`
}

type remainingResponse struct {
	RemainingSearches int64 `json:"remaining_searches"`
}

// speakerItem renders absent optional attributes as JSON null.
type speakerItem struct {
	FullName    string        `json:"full_name"`
	Title       *string       `json:"title"`
	Company     *string       `json:"company"`
	Bio         *string       `json:"bio"`
	LinkedinURL *string       `json:"linkedin_url"`
	Sessions    []sessionItem `json:"sessions"`
	PhotoURL    *string       `json:"photo_url"`
	Similarity  *float64      `json:"similarity,omitempty"`
}

type sessionItem struct {
	Title string  `json:"title"`
	Role  *string `json:"role"`
	URL   *string `json:"url"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Speakers int               `json:"speakers"`
}

func resultsToItems(results []result.Result) []speakerItem {
	items := make([]speakerItem, len(results))
	for i := range results {
		items[i] = resultToItem(&results[i])
	}
	return items
}

func resultToItem(r *result.Result) speakerItem {
	item := speakerToItem(r.Speaker())
	if sim, ok := r.Similarity(); ok {
		item.Similarity = &sim
	}
	return item
}

func speakerToItem(sp *speaker.Speaker) speakerItem {
	p := sp.Profile()
	return speakerItem{
		FullName:    sp.FullName(),
		Title:       optional(p.Title),
		Company:     optional(p.Company),
		Bio:         optional(p.Bio),
		LinkedinURL: optional(p.LinkedinURL),
		Sessions:    sessionsToItems(sp.Sessions()),
		PhotoURL:    optional(p.PhotoURL),
	}
}

func sessionsToItems(ss []session.Session) []sessionItem {
	items := make([]sessionItem, len(ss))
	for i, s := range ss {
		items[i] = sessionItem{
			Title: s.Title(),
			Role:  optional(s.Role()),
			URL:   optional(s.URL()),
		}
	}
	return items
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
