package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	domquota "github.com/kailas-cloud/speakerdex/internal/domain/quota"
	"github.com/kailas-cloud/speakerdex/internal/domain/search/request"
	"github.com/kailas-cloud/speakerdex/internal/metrics"
	quotarepo "github.com/kailas-cloud/speakerdex/internal/repository/quota"
	chiTransport "github.com/kailas-cloud/speakerdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/speakerdex/internal/usecase/health"
	quotauc "github.com/kailas-cloud/speakerdex/internal/usecase/quota"
	"github.com/kailas-cloud/speakerdex/internal/version"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "speakerdex",
		Usage:   "Hybrid name and semantic search over a conference speaker roster",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name, selects config/<env>.yaml",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file, overrides --env lookup",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
			},
			{
				Name:      "search",
				Usage:     "Run one query against the corpus without touching any quota",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of semantic results, 0 uses search.default_top_k",
					},
				},
			},
			{
				Name:      "quota",
				Usage:     "Show the quota entry of a client",
				ArgsUsage: "<client-id>",
				Action:    quotaCommand,
			},
		},
	}
}

func serveCommand(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger

	logger.Info("Starting speakerdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	store, err := openStore(c.Context, &cfg.Database, logger)
	if err != nil {
		return err
	}
	a.onClose(store.Close)
	logger.Info("Connected to database")

	corpus, err := loadCorpus(c.Context, &cfg.Corpus, logger)
	if err != nil {
		return err
	}

	warnOnDimensionMismatch(&cfg.Embedding, corpus, logger)

	emb := buildEmbedder(&cfg.Embedding, store, logger)
	searchSvc := buildSearch(cfg, corpus, emb.query)
	quotaSvc := quotauc.New(quotarepo.New(store, cfg.Storage.KeyPrefix), cfg.Quota.MaxSearches)
	healthSvc := healthuc.New(store, emb.health, corpus)

	server := chiTransport.NewServer(searchSvc, quotaSvc, healthSvc, cfg.Search.DefaultTopK, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// searchHit is one line of `speakerdex search` output.
type searchHit struct {
	FullName   string   `json:"full_name"`
	Company    string   `json:"company,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return cli.Exit("usage: speakerdex search <query>", 2)
	}

	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger

	topK := c.Int("top-k")
	if topK <= 0 {
		topK = cfg.Search.DefaultTopK
	}
	req, err := request.New(query, topK)
	if err != nil {
		return err
	}

	corpus, err := loadCorpus(c.Context, &cfg.Corpus, logger)
	if err != nil {
		return err
	}

	// The embedding cache is skipped here so the command never opens the
	// quota store, which an on-disk badger server may hold locked.
	emb := buildEmbedder(&cfg.Embedding, nil, logger)
	outcome := buildSearch(cfg, corpus, emb.query).Search(c.Context, &req)
	if outcome.Degraded {
		return cli.Exit("semantic search unavailable: embedding provider failed", 1)
	}

	enc := json.NewEncoder(c.App.Writer)
	for i := range outcome.Results {
		r := &outcome.Results[i]
		hit := searchHit{
			FullName: r.Speaker().FullName(),
			Company:  r.Speaker().Profile().Company,
		}
		if sim, ok := r.Similarity(); ok {
			hit.Similarity = &sim
		}
		if err := enc.Encode(hit); err != nil {
			return err
		}
	}
	return nil
}

func quotaCommand(c *cli.Context) error {
	clientID := strings.TrimSpace(c.Args().First())
	if clientID == "" {
		return cli.Exit("usage: speakerdex quota <client-id>", 2)
	}

	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	store, err := openStore(c.Context, &cfg.Database, a.logger)
	if err != nil {
		return err
	}
	a.onClose(store.Close)

	svc := quotauc.New(quotarepo.New(store, cfg.Storage.KeyPrefix), cfg.Quota.MaxSearches)
	entry, err := svc.Entry(c.Context, clientID)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "client:    %s\n", clientID)
	fmt.Fprintf(w, "used:      %d\n", entry.Used())
	fmt.Fprintf(w, "remaining: %d\n", domquota.Remaining(svc.MaxSearches(), entry.Used()))
	if !entry.LastUpdated().IsZero() {
		fmt.Fprintf(w, "last used: %s\n", entry.LastUpdated().Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "last used: never")
	}
	return nil
}
