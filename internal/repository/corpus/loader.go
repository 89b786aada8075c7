// Package corpus loads the speaker roster from a CSV export whose embedding
// column holds a JSON float array per row.
package corpus

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/speakerdex/internal/domain"
	"github.com/kailas-cloud/speakerdex/internal/domain/speaker"
)

// Column names of the corpus CSV.
const (
	ColFullName    = "full_name"
	ColTitle       = "title"
	ColCompany     = "company"
	ColBio         = "bio"
	ColLinkedinURL = "linkedin_url"
	ColSessions    = "sessions"
	ColPhotoURL    = "photo_url"
	ColEmbedding   = "embedding"
)

// row is one CSV record before its embedding is decoded.
type row struct {
	line    int
	name    string
	profile speaker.Profile
	session string
	rawVec  string
}

// Loader reads a corpus file and builds a speaker.Corpus.
type Loader struct {
	workers int
	logger  *zap.Logger
}

// New creates a loader. workers <= 0 uses one worker per CPU.
func New(workers int, logger *zap.Logger) *Loader {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{workers: workers, logger: logger}
}

// Load opens path and parses it with LoadReader.
func (l *Loader) Load(ctx context.Context, path string) (*speaker.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	c, err := l.LoadReader(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load corpus %s: %w", path, err)
	}
	l.logger.Info("Corpus loaded",
		zap.String("path", path),
		zap.Int("speakers", c.Len()),
		zap.Int("dimensions", c.Dimensions()),
	)
	return c, nil
}

// LoadReader parses CSV from r. Rows keep file order; embeddings are decoded
// concurrently on a bounded worker pool.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader) (*speaker.Corpus, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	vectors, err := l.decodeEmbeddings(ctx, rows)
	if err != nil {
		return nil, err
	}

	speakers := make([]speaker.Speaker, 0, len(rows))
	for i, rw := range rows {
		sp, err := speaker.New(rw.name, rw.profile, rw.session, vectors[i])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", rw.line, err)
		}
		speakers = append(speakers, sp)
	}
	return speaker.NewCorpus(speakers)
}

func readRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty corpus file", domain.ErrInvalidCorpus)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", domain.ErrInvalidCorpus, err)
	}

	cols := indexColumns(header)
	for _, required := range []string{ColFullName, ColEmbedding} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", domain.ErrInvalidCorpus, required)
		}
	}

	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCorpus, err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, row{
			line: line,
			name: get(rec, ColFullName),
			profile: speaker.Profile{
				Title:       get(rec, ColTitle),
				Company:     get(rec, ColCompany),
				Bio:         get(rec, ColBio),
				LinkedinURL: get(rec, ColLinkedinURL),
				PhotoURL:    get(rec, ColPhotoURL),
			},
			session: get(rec, ColSessions),
			rawVec:  get(rec, ColEmbedding),
		})
	}
	return rows, nil
}

// indexColumns maps normalized header names to positions. A UTF-8 BOM on the
// first column is dropped.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		h = strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func (l *Loader) decodeEmbeddings(ctx context.Context, rows []row) ([][]float32, error) {
	vectors := make([][]float32, len(rows))
	if len(rows) == 0 {
		return vectors, nil
	}

	pool, err := ants.NewPool(l.workers)
	if err != nil {
		return nil, fmt.Errorf("create decode pool: %w", err)
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := range rows {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		i := i
		submitErr := pool.Submit(func() {
			defer wg.Done()
			vec, err := decodeVector(rows[i].rawVec)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("line %d: %w", rows[i].line, err))
				mu.Unlock()
				return
			}
			vectors[i] = vec
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit decode task: %w", submitErr)
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCorpus, errors.Join(errs...))
	}
	return vectors, nil
}

func decodeVector(raw string) ([]float32, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty embedding")
	}
	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	return vec, nil
}
