package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/speakerdex/internal/domain"
	"github.com/kailas-cloud/speakerdex/internal/domain/speaker"
)

const sampleCSV = `full_name,title,company,bio,linkedin_url,sessions,photo_url,embedding
Jane Doe,CTO,Acme,Builds things,https://linkedin.com/in/jane,"Keynote (Speaker) - [🔗 Session Link](http://x/1)",,"[1, 0, 0]"
Ravi Kumar,,,,,,,"[0, 1, 0]"
Mei Lin,Researcher,Lab,,,"A | B",https://img/mei.png,"[0.7, 0.7, 0]"
`

func TestLoadReader(t *testing.T) {
	c, err := New(2, zap.NewNop()).LoadReader(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if c.Dimensions() != 3 {
		t.Fatalf("Dimensions = %d, want 3", c.Dimensions())
	}

	wantNames := []string{"Jane Doe", "Ravi Kumar", "Mei Lin"}
	for i, want := range wantNames {
		if got := c.Names()[i]; got != want {
			t.Errorf("name[%d] = %q, want %q", i, got, want)
		}
	}

	jane := c.At(0)
	if jane.Profile().Title != "CTO" || jane.Profile().PhotoURL != "" {
		t.Errorf("unexpected profile: %+v", jane.Profile())
	}
	sessions := jane.Sessions()
	if len(sessions) != 1 || sessions[0].Role() != "Speaker" || sessions[0].URL() != "http://x/1" {
		t.Errorf("unexpected sessions: %+v", sessions)
	}

	ravi := c.At(1)
	if ravi.Profile() != (speaker.Profile{}) {
		t.Errorf("expected empty optional fields, got %+v", ravi.Profile())
	}
	if len(ravi.Sessions()) != 0 {
		t.Errorf("expected no sessions, got %d", len(ravi.Sessions()))
	}

	if got := c.At(2).Embedding(); got[0] != 0.7 || got[1] != 0.7 {
		t.Errorf("embedding order not preserved: %v", got)
	}
}

func TestLoadReader_ColumnOrderAndBOM(t *testing.T) {
	in := "\ufeffEmbedding,Full_Name\n\"[0.5,0.5]\",Solo\n"
	c, err := New(1, nil).LoadReader(context.Background(), strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if c.At(0).FullName() != "Solo" || c.Dimensions() != 2 {
		t.Fatalf("unexpected corpus: %q dim=%d", c.At(0).FullName(), c.Dimensions())
	}
}

func TestLoadReader_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty file", ""},
		{"header only", "full_name,embedding\n"},
		{"missing name column", "title,embedding\nx,\"[1]\"\n"},
		{"missing embedding column", "full_name,title\nx,y\n"},
		{"bad json", "full_name,embedding\nA,not-json\n"},
		{"empty vector", "full_name,embedding\nA,[]\n"},
		{"blank name", "full_name,embedding\n ,\"[1]\"\n"},
		{"ragged row", "full_name,embedding\nA,\"[1]\",extra\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(2, nil).LoadReader(context.Background(), strings.NewReader(tc.in))
			if !errors.Is(err, domain.ErrInvalidCorpus) {
				t.Fatalf("expected ErrInvalidCorpus, got %v", err)
			}
		})
	}
}

func TestLoadReader_DimensionMismatch(t *testing.T) {
	in := "full_name,embedding\nA,\"[1,0]\"\nB,\"[1,0,0]\"\n"
	_, err := New(2, nil).LoadReader(context.Background(), strings.NewReader(in))
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestLoadReader_ManyRowsKeepOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("full_name,embedding\n")
	const n = 200
	for i := 0; i < n; i++ {
		b.WriteString("Speaker ")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(",\"[")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(",1]\"\n")
	}

	c, err := New(8, nil).LoadReader(context.Background(), strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	for i := 0; i < n; i++ {
		if got := c.At(i).Embedding()[0]; got != float32(i) {
			t.Fatalf("row %d decoded as %v", i, got)
		}
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speakers.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := New(0, zap.NewNop()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d", c.Len())
	}

	if _, err := New(0, nil).Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadReader_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(1, nil).LoadReader(ctx, strings.NewReader(sampleCSV))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
