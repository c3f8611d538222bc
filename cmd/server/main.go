package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/carepal-health/carepal/internal/api"
	"github.com/carepal-health/carepal/internal/classifier"
	"github.com/carepal-health/carepal/internal/config"
	"github.com/carepal-health/carepal/internal/domain"
	"github.com/carepal-health/carepal/internal/embedding"
	"github.com/carepal-health/carepal/internal/llm"
	"github.com/carepal-health/carepal/internal/service"
	"github.com/carepal-health/carepal/internal/store"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// Record store: CSV snapshots by default, Postgres when configured.
	var (
		recordStore domain.RecordStore
		pgStore     *store.PostgresStore
		ping        func(context.Context) error
	)
	switch backend := config.StoreBackend(); backend {
	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required for the postgres backend")
		}
		pg, err := store.NewPostgresStore(ctx, dbURL, logger)
		if err != nil {
			logger.Fatal("failed to open postgres store", zap.Error(err))
		}
		defer pg.Close()
		recordStore = pg
		pgStore = pg
		ping = pg.Ping
	case "csv":
		csvStore, err := store.NewCSVStore(config.DataDir(), logger)
		if err != nil {
			logger.Fatal("failed to load record snapshots", zap.Error(err))
		}
		recordStore = csvStore
	default:
		logger.Fatal("unknown store backend", zap.String("backend", backend))
	}

	knowledge := store.LoadKnowledge(config.DataDir(), logger)

	// External model clients. Each one degrades independently: a missing
	// classifier falls back to keyword/similarity classification, a missing
	// generator to canned replies.
	encoder, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey(), config.EmbeddingModel())
	if err != nil {
		logger.Fatal("embedding client initialization failed",
			zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
	}
	logger.Info("embedding client initialized",
		zap.String("provider", config.EmbeddingProvider()),
		zap.String("model", config.EmbeddingModel()))

	var generator domain.TextGenerator
	generator, err = llm.NewClient(config.LLMProvider(), config.LLMAPIKey())
	if err != nil {
		logger.Warn("text generator initialization failed, replies degrade to fixed messages",
			zap.String("provider", config.LLMProvider()), zap.Error(err))
		generator = nil
	} else {
		logger.Info("text generator initialized", zap.String("provider", config.LLMProvider()))
	}

	var seqClassifier domain.SequenceClassifier
	seqClassifier, err = classifier.NewClient(config.ClassifierProvider(), config.ClassifierBaseURL())
	if err != nil {
		logger.Warn("classifier initialization failed, falling back to keyword/similarity classification",
			zap.String("provider", config.ClassifierProvider()), zap.Error(err))
		seqClassifier = nil
	} else if err := service.VerifyClassifierContract(ctx, seqClassifier); err != nil {
		logger.Warn("classifier label contract mismatch, falling back to keyword/similarity classification",
			zap.Error(err))
		seqClassifier = nil
	} else {
		logger.Info("classifier initialized", zap.String("provider", config.ClassifierProvider()))
	}

	// Scope gate: encode the example corpus (reusing persisted embeddings on
	// the postgres backend) and build the similarity index over it.
	index := buildIndex(ctx, pgStore, encoder, logger)
	gate := service.NewSimilarityGate(index, encoder, config.SimilarityThreshold(), logger)

	app := api.NewApp(api.Deps{
		Store:      recordStore,
		Knowledge:  &knowledge,
		Gate:       gate,
		Classifier: seqClassifier,
		Generator:  generator,
		SessionTTL: service.DefaultSessionTTL,
		Ping:       ping,
		Logger:     logger,
	})

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// buildIndex assembles the similarity index over the labeled example corpus.
// On the postgres backend, embeddings persisted by a previous run are reused
// and only the examples missing one are re-encoded; the refreshed set is
// written back. On the CSV backend the corpus is encoded from scratch.
func buildIndex(ctx context.Context, pg *store.PostgresStore, encoder domain.EmbeddingClient, logger *zap.Logger) *service.SimilarityIndex {
	if pg != nil {
		examples, vectors, err := pg.LoadIntentExamples(ctx)
		if err != nil {
			logger.Fatal("failed to load intent examples from postgres", zap.Error(err))
		}
		encoded := 0
		for i, vec := range vectors {
			if vec != nil {
				continue
			}
			v, err := encoder.Embed(ctx, examples[i].Text)
			if err != nil {
				logger.Fatal("failed to encode intent example", zap.Error(err))
			}
			vectors[i] = v
			encoded++
		}
		if encoded > 0 {
			if err := pg.SaveExampleEmbeddings(ctx, examples, vectors); err != nil {
				logger.Warn("failed to persist example embeddings", zap.Error(err))
			}
		}
		index, err := service.NewSimilarityIndex(examples, vectors)
		if err != nil {
			logger.Fatal("failed to build similarity index", zap.Error(err))
		}
		logger.Info("similarity index ready",
			zap.Int("examples", len(examples)), zap.Int("newly_encoded", encoded))
		return index
	}

	examples, err := store.LoadIntentExamples(config.DataDir())
	if err != nil {
		logger.Fatal("failed to load intent example corpus", zap.Error(err))
	}
	index, _, err := service.BuildSimilarityIndex(ctx, encoder, examples, logger)
	if err != nil {
		logger.Fatal("failed to build similarity index", zap.Error(err))
	}
	logger.Info("similarity index ready", zap.Int("examples", len(examples)))
	return index
}

// newLogger builds a production zap logger at the configured level.
func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
