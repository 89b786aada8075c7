package search

import (
	"math"
	"sort"

	"github.com/kailas-cloud/speakerdex/internal/domain/search/result"
	"github.com/kailas-cloud/speakerdex/internal/domain/speaker"
)

// cosineSimilarity returns dot(a, b) / (|a| * |b|), or 0 when either vector is zero.
// a and b must have the same length.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankTopK scores every speaker against query and returns the topK best,
// strictly by descending similarity with ties in corpus order.
func rankTopK(corpus *speaker.Corpus, query []float32, topK int) []result.Result {
	n := corpus.Len()
	scored := make([]result.Result, n)
	for i := 0; i < n; i++ {
		sp := corpus.At(i)
		scored[i] = result.FromSemantic(sp, cosineSimilarity(query, sp.Embedding()))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		si, _ := scored[i].Similarity()
		sj, _ := scored[j].Similarity()
		return si > sj
	})

	if topK < n {
		scored = scored[:topK]
	}
	return scored
}
