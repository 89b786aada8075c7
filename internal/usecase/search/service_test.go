package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/speakerdex/internal/domain"
	"github.com/kailas-cloud/speakerdex/internal/domain/search/request"
	"github.com/kailas-cloud/speakerdex/internal/domain/search/result"
	"github.com/kailas-cloud/speakerdex/internal/domain/speaker"
)

// --- Mocks ---

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
	got    string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.got = text
	return m.result, m.err
}

type mockRecorder struct {
	stages []string
}

func (m *mockRecorder) RecordStage(stage string) { m.stages = append(m.stages, stage) }

// --- Helpers ---

func testCorpus(t *testing.T) *speaker.Corpus {
	t.Helper()
	rows := []struct {
		name string
		vec  []float32
	}{
		{"Jane Doe", []float32{1, 0, 0}},
		{"Ravi Kumar", []float32{0, 1, 0}},
		{"Mei Lin", []float32{0.7, 0.7, 0}},
		{"Carlos Mendes", []float32{0, 0, 1}},
	}
	speakers := make([]speaker.Speaker, len(rows))
	for i, r := range rows {
		s, err := speaker.New(r.name, speaker.Profile{Company: "Acme"}, "", r.vec)
		if err != nil {
			t.Fatalf("new speaker: %v", err)
		}
		speakers[i] = s
	}
	c, err := speaker.NewCorpus(speakers)
	if err != nil {
		t.Fatalf("new corpus: %v", err)
	}
	return c
}

func mustRequest(t *testing.T, query string, topK int) *request.Request {
	t.Helper()
	r, err := request.New(query, topK)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return &r
}

// --- Tests ---

func TestSearch_ExactNameSkipsEmbedding(t *testing.T) {
	emb := &mockEmbedder{}
	rec := &mockRecorder{}
	svc := New(testCorpus(t), emb).WithStageRecorder(rec)

	out := svc.Search(context.Background(), mustRequest(t, "Jane Doe", 5))

	if out.Stage != result.StageName {
		t.Errorf("Stage = %q, want %q", out.Stage, result.StageName)
	}
	if len(out.Results) != 1 || out.Results[0].Speaker().FullName() != "Jane Doe" {
		t.Fatalf("unexpected results: %+v", out.Results)
	}
	if _, ok := out.Results[0].Similarity(); ok {
		t.Error("name match must not carry similarity")
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times, want 0", emb.calls)
	}
	if len(rec.stages) != 1 || rec.stages[0] != RecordedName {
		t.Errorf("recorded stages = %v", rec.stages)
	}
}

func TestSearch_FirstNameMatchesByName(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(testCorpus(t), emb)

	out := svc.Search(context.Background(), mustRequest(t, "carlos", 5))

	if out.Stage != result.StageName {
		t.Fatalf("Stage = %q, want %q", out.Stage, result.StageName)
	}
	if len(out.Results) != 1 || out.Results[0].Speaker().FullName() != "Carlos Mendes" {
		t.Fatalf("unexpected results: %+v", out.Results)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times, want 0", emb.calls)
	}
}

func TestSearch_FuzzyName(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(testCorpus(t), emb)

	out := svc.Search(context.Background(), mustRequest(t, "ravi kumarr", 5))

	if out.Stage != result.StageName || out.Results[0].Speaker().FullName() != "Ravi Kumar" {
		t.Fatalf("expected fuzzy match on Ravi Kumar, got %+v", out)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times, want 0", emb.calls)
	}
}

func TestSearch_FallsThroughToSemantic(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{1, 0.1, 0},
		TotalTokens: 6,
	}}
	rec := &mockRecorder{}
	svc := New(testCorpus(t), emb).WithStageRecorder(rec)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	out := svc.Search(ctx, mustRequest(t, "jetson robotics deployment", 3))

	if out.Stage != result.StageSemantic || out.Degraded {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if emb.calls != 1 || emb.got != "jetson robotics deployment" {
		t.Errorf("embedder calls=%d got=%q", emb.calls, emb.got)
	}
	want := []string{"Jane Doe", "Mei Lin", "Ravi Kumar"}
	if len(out.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(out.Results), len(want))
	}
	for i, name := range want {
		if got := out.Results[i].Speaker().FullName(); got != name {
			t.Errorf("position %d: got %q, want %q", i, got, name)
		}
		if _, ok := out.Results[i].Similarity(); !ok {
			t.Errorf("position %d: missing similarity", i)
		}
	}
	if usage.TotalTokens != 6 {
		t.Errorf("usage tokens = %d, want 6", usage.TotalTokens)
	}
	if len(rec.stages) != 1 || rec.stages[0] != RecordedSemantic {
		t.Errorf("recorded stages = %v", rec.stages)
	}
}

func TestSearch_TopKAboveCorpusReturnsAll(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0, 1, 0}}}
	svc := New(testCorpus(t), emb)

	out := svc.Search(context.Background(), mustRequest(t, "cuda kernels", 50))

	if len(out.Results) != 4 {
		t.Fatalf("got %d results, want 4", len(out.Results))
	}
	if out.Results[0].Speaker().FullName() != "Ravi Kumar" {
		t.Errorf("top result = %q", out.Results[0].Speaker().FullName())
	}
}

func TestSearch_EmbeddingFailureDegrades(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	rec := &mockRecorder{}
	svc := New(testCorpus(t), emb).WithStageRecorder(rec)

	out := svc.Search(context.Background(), mustRequest(t, "generative ai for drug discovery", 5))

	if !out.Degraded {
		t.Error("expected Degraded outcome")
	}
	if len(out.Results) != 0 {
		t.Errorf("expected no results, got %d", len(out.Results))
	}
	if emb.calls != 1 {
		t.Errorf("embedder calls = %d, want exactly 1 (no retries)", emb.calls)
	}
	if len(rec.stages) != 1 || rec.stages[0] != RecordedUnavailable {
		t.Errorf("recorded stages = %v", rec.stages)
	}
}

func TestSemantic_DimensionMismatch(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	svc := New(testCorpus(t), emb)

	out := svc.Semantic(context.Background(), "anything", 5)

	if out.Available() {
		t.Fatal("expected unavailable outcome")
	}
	if !errors.Is(out.Err(), domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", out.Err())
	}
}

func TestSemantic_NoEmbedder(t *testing.T) {
	svc := New(testCorpus(t), nil)

	if out := svc.Semantic(context.Background(), "anything", 5); out.Available() {
		t.Fatal("expected unavailable outcome without embedder")
	}
}

func TestMatchName_Threshold(t *testing.T) {
	svc := New(testCorpus(t), nil)

	if m := svc.MatchName("Mei Lin"); !m.Found() {
		t.Fatal("expected match at default threshold")
	}

	strict := New(testCorpus(t), nil).WithNameThreshold(99.5)
	if m := strict.MatchName("Mei Lynn"); m.Found() {
		t.Errorf("expected no match at strict threshold, score %.2f", m.Score())
	}

	if m := svc.MatchName("distributed training at scale"); m.Found() {
		t.Errorf("unexpected match %q (score %.2f)", m.Speaker().FullName(), m.Score())
	}
}
