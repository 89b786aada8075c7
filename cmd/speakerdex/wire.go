package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/speakerdex/internal/config"
	"github.com/kailas-cloud/speakerdex/internal/db"
	dbBadger "github.com/kailas-cloud/speakerdex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/speakerdex/internal/db/redis"
	"github.com/kailas-cloud/speakerdex/internal/domain"
	"github.com/kailas-cloud/speakerdex/internal/domain/speaker"
	logpkg "github.com/kailas-cloud/speakerdex/internal/logger"
	"github.com/kailas-cloud/speakerdex/internal/metrics"
	corpusrepo "github.com/kailas-cloud/speakerdex/internal/repository/corpus"
	"github.com/kailas-cloud/speakerdex/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/speakerdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/speakerdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/speakerdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/speakerdex/internal/usecase/search"
)

// app carries what every command needs: config, logger and cleanups.
type app struct {
	env     string
	cfg     *config.Config
	logger  *zap.Logger
	closers []func()
}

func setup(c *cli.Context) (*app, error) {
	env := c.String("env")

	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{env: env, cfg: &cfg, logger: logger}
	a.onClose(func() { _ = logger.Sync() })
	return a, nil
}

func (a *app) onClose(fn func()) { a.closers = append(a.closers, fn) }

// close runs cleanups in reverse registration order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// openStore connects the quota store selected by database.driver and waits
// until it answers.
func openStore(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case config.DriverBadger:
		store, err = dbBadger.NewStore(dbBadger.Config{
			Path:     cfg.Path,
			InMemory: cfg.Path == "",
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s store: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

func loadCorpus(ctx context.Context, cfg *config.CorpusConfig, logger *zap.Logger) (*speaker.Corpus, error) {
	corpus, err := corpusrepo.New(cfg.LoaderWorkers, logger).Load(ctx, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return corpus, nil
}

// embedders holds the query embedding chain and the provider it ends in.
type embedders struct {
	query  domain.Embedder
	health healthuc.EmbeddingChecker
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// A nil store disables the cache.
func buildEmbedder(cfg *config.EmbeddingConfig, store db.KVStore, logger *zap.Logger) embedders {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})
	if cfg.APIKey == "" {
		logger.Warn("Embedding API key is empty, semantic search will likely fail")
	}

	var embedder domain.Embedder = base
	if store != nil && cfg.Cache.Enabled {
		embedder = embcache.New(base, store, embcache.Options{
			Model: base.Model(),
			TTL:   time.Duration(cfg.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, base.Provider(), base.Model(), cfg.Timeout(), logger,
	)

	logger.Info("Embedder created",
		zap.String("provider", base.Provider()),
		zap.String("model", base.Model()),
		zap.Bool("cache", store != nil && cfg.Cache.Enabled),
	)
	return embedders{query: embedder, health: base}
}

func buildSearch(cfg *config.Config, corpus *speaker.Corpus, embedder domain.Embedder) *searchuc.Service {
	return searchuc.New(corpus, embedder).
		WithNameThreshold(cfg.Search.NameMatchThreshold).
		WithStageRecorder(metrics.StageRecorder{})
}

// expectedDimensions is the query vector length the embedding config will
// produce, or 0 when it cannot be known up front.
func expectedDimensions(cfg *config.EmbeddingConfig) int {
	if cfg.Dimensions > 0 {
		return cfg.Dimensions
	}
	if def := domain.DefaultVectorConfig(); cfg.Model == def.Model {
		return def.Dimensions
	}
	return 0
}

// warnOnDimensionMismatch flags a corpus the semantic stage can never match.
func warnOnDimensionMismatch(cfg *config.EmbeddingConfig, corpus *speaker.Corpus, logger *zap.Logger) {
	want := expectedDimensions(cfg)
	if want == 0 || want == corpus.Dimensions() {
		return
	}
	logger.Warn("Corpus embeddings do not match the embedding model, semantic search will fail",
		zap.String("model", cfg.Model),
		zap.Int("model_dimensions", want),
		zap.Int("corpus_dimensions", corpus.Dimensions()),
	)
}
