package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/speakerdex/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  robotics  ", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "robotics" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), DefaultTopK)
	}
}

func TestNew_TopK(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, DefaultTopK},
		{1, 1},
		{20, 20},
		{MaxTopK + 1, MaxTopK},
	}
	for _, tc := range tests {
		r, err := New("q", tc.in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.TopK() != tc.want {
			t.Errorf("New(q, %d).TopK() = %d, want %d", tc.in, r.TopK(), tc.want)
		}
	}
}

func TestNew_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := New(q, 5); !errors.Is(err, domain.ErrQueryRequired) {
			t.Errorf("New(%q) error = %v, want ErrQueryRequired", q, err)
		}
	}
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", MaxQueryLength+1), 5)
	if !errors.Is(err, domain.ErrQueryTooLong) {
		t.Fatalf("expected ErrQueryTooLong, got %v", err)
	}
}
