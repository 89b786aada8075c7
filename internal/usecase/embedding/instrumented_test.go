package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/speakerdex/internal/domain"
)

type mockEmbedder struct {
	result   domain.EmbeddingResult
	err      error
	deadline time.Time
	block    bool
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	m.deadline, _ = ctx.Deadline()
	if m.block {
		<-ctx.Done()
		return domain.EmbeddingResult{}, ctx.Err()
	}
	return m.result, m.err
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 100,
		TotalTokens:  100,
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", time.Second, zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Embedding))
	}
	if result.TotalTokens != 100 {
		t.Fatalf("expected 100 total tokens, got %d", result.TotalTokens)
	}
}

func TestInstrumentedEmbedder_AppliesDeadline(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	p := NewInstrumentedEmbedder(inner, "test", "m", 0, zap.NewNop())

	start := time.Now()
	if _, err := p.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.deadline.IsZero() {
		t.Fatal("inner call had no deadline")
	}
	if d := inner.deadline.Sub(start); d > DefaultTimeout+time.Second || d < DefaultTimeout-time.Second {
		t.Errorf("deadline %v away, want about %v", d, DefaultTimeout)
	}
}

func TestInstrumentedEmbedder_Timeout(t *testing.T) {
	inner := &mockEmbedder{block: true}
	p := NewInstrumentedEmbedder(inner, "test", "m", 20*time.Millisecond, zap.NewNop())

	_, err := p.Embed(context.Background(), "q")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	cause := errors.New("api error")
	inner := &mockEmbedder{err: cause}
	p := NewInstrumentedEmbedder(inner, "test", "m", time.Second, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, cause) || !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("unexpected error chain: %v", err)
	}
}
