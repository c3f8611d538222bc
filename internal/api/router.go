package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/api/handlers"
	mw "github.com/carepal-health/carepal/internal/api/middleware"
	"github.com/carepal-health/carepal/internal/config"
	"github.com/carepal-health/carepal/internal/domain"
	"github.com/carepal-health/carepal/internal/service"
)

// Deps carries everything the router needs that is built at startup: the
// record store, the loaded knowledge files, the scope gate over the encoded
// example corpus, and the external model clients. Classifier and Generator
// may be nil; the pipeline degrades per component.
type Deps struct {
	Store      domain.RecordStore
	Knowledge  *domain.Knowledge
	Gate       *service.SimilarityGate
	Classifier domain.SequenceClassifier
	Generator  domain.TextGenerator
	SessionTTL time.Duration
	// Ping reports backend-store health; nil means nothing to check.
	Ping   func(context.Context) error
	Logger *zap.Logger
}

// App holds the router and session store for lifecycle management.
type App struct {
	Router       *chi.Mux
	Sessions     *service.SessionStore
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(deps Deps) *App {
	logger := deps.Logger

	// Services
	retriever := service.NewRetriever(deps.Store, deps.Knowledge, logger)
	domains := service.NewDomainClassifier(deps.Classifier, logger)
	intents := service.NewIntentClassifier(deps.Classifier, deps.Gate, logger)
	scheduler := service.NewAncScheduler(logger)
	composer := service.NewComposer(deps.Generator, scheduler, logger)
	chatSvc := service.NewChatService(deps.Gate, domains, intents, retriever, composer, logger)
	recommender := service.NewRecommender(retriever, deps.Store, deps.Generator, logger)
	authSvc := service.NewAuthService(deps.Store, logger)
	sessions := service.NewSessionStore(deps.SessionTTL)

	// Handlers
	authHandler := handlers.NewAuthHandler(authSvc, sessions)
	chatHandler := handlers.NewChatHandler(chatSvc, sessions)
	recommendHandler := handlers.NewRecommendHandler(recommender, sessions)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Sessions:  sessions,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(deps.Ping))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Login (no auth)
	r.Post("/v1/auth/login", authHandler.Login)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.SessionAuth(sessions))

		r.Post("/auth/logout", authHandler.Logout)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", chatHandler.Send)
			r.Get("/history", chatHandler.History)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", recommendHandler.Welcome)
			r.Get("/contextual", recommendHandler.Contextual)
		})
	})

	return app
}

func healthHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
