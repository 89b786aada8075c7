package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// DefaultNameMatchThreshold is the minimum fuzzy score for a name match.
const DefaultNameMatchThreshold = 85.0

// tokenWeight scales token-based ratios below an exact character match.
const tokenWeight = 0.95

// Partial matching applies once one string is at least partialLengthRatio
// times longer than the other. Very uneven pairs get the lower weight.
const (
	partialLengthRatio = 1.5
	partialWeight      = 0.9
	longPartialRatio   = 8.0
	longPartialWeight  = 0.6
)

// bestName returns the index and score of the highest-scoring name.
// Ties keep the earliest name. Returns -1 for an empty list.
func bestName(query string, names []string) (int, float64) {
	q := normalizeName(query)
	best, bestScore := -1, -1.0
	for i, name := range names {
		score := nameScore(q, normalizeName(name))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestScore
}

// nameScore is a weighted ratio on a 0-100 scale over normalized strings.
// Similar lengths take the best of the plain ratio and the token sort/set
// ratios. Uneven lengths replace the token ratios with partial ratios, so a
// prefix such as a first name can still match the full name.
func nameScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	score := ratio(a, b)

	short, long := len(a), len(b)
	if short > long {
		short, long = long, short
	}
	lenRatio := float64(long) / float64(short)

	if lenRatio < partialLengthRatio {
		return max(score, tokenWeight*max(tokenSortRatio(a, b), tokenSetRatio(a, b)))
	}

	scale := partialWeight
	if lenRatio > longPartialRatio {
		scale = longPartialWeight
	}
	score = max(score, scale*partialRatio(a, b))
	return max(score, tokenWeight*scale*partialTokenRatio(a, b))
}

// ratio is the normalized InDel similarity: 100 * (1 - dist / (len(a)+len(b))).
// A substitution costs 2 (delete + insert).
func ratio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 100 * (1 - float64(dist)/float64(total))
}

// partialRatio is the best ratio of the shorter string against any window of
// the longer one, including windows cut off at either end. Windows whose
// boundary byte does not occur in the shorter string are skipped.
func partialRatio(a, b string) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	n, m := len(a), len(b)
	if n == 0 {
		return 0
	}

	var inNeedle [256]bool
	for i := 0; i < n; i++ {
		inNeedle[a[i]] = true
	}

	best := 0.0
	try := func(window string) bool {
		if r := ratio(a, window); r > best {
			best = r
		}
		return best == 100
	}
	for i := 1; i < n; i++ {
		if inNeedle[b[i-1]] && try(b[:i]) {
			return best
		}
	}
	for i := 0; i < m-n; i++ {
		if inNeedle[b[i+n-1]] && try(b[i:i+n]) {
			return best
		}
	}
	for i := m - n; i < m; i++ {
		if inNeedle[b[i]] && try(b[i:]) {
			return best
		}
	}
	return best
}

// partialTokenRatio is 100 when the strings share a token, else the partial
// ratio of their sorted tokens.
func partialTokenRatio(a, b string) float64 {
	ta := tokenSet(a)
	for t := range tokenSet(b) {
		if _, ok := ta[t]; ok {
			return 100
		}
	}
	return partialRatio(sortedTokens(a), sortedTokens(b))
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func tokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)

	var common, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}

	// One side's tokens are a subset of the other's.
	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	sect := strings.Join(common, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := ratio(combinedA, combinedB)
	if sect != "" {
		if r := ratio(sect, combinedA); r > best {
			best = r
		}
		if r := ratio(sect, combinedB); r > best {
			best = r
		}
	}
	return best
}

// normalizeName lower-cases, replaces non-alphanumerics with spaces and collapses whitespace.
func normalizeName(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}
