package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/epistate/internal/api/handlers"
	mw "github.com/Harshitk-cp/epistate/internal/api/middleware"
	"github.com/Harshitk-cp/epistate/internal/buildconfig"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/knowledge"
	"github.com/Harshitk-cp/epistate/internal/service"
	"github.com/Harshitk-cp/epistate/internal/store"
	"github.com/Harshitk-cp/epistate/internal/store/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the domain services exposed over HTTP.
type Services struct {
	Entities   *service.EntityService
	Concepts   *service.ConceptService
	References *service.ReferenceService
	Knowledge  *knowledge.Base
}

type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
}

// App holds the router and the pieces whose lifecycle the server manages.
type App struct {
	Router      *chi.Mux
	RateLimiter *mw.RateLimiter
	Metrics     *mw.Metrics
	startTime   time.Time
}

func NewApp(db Pinger, svc Services, opts Options, logger *zap.Logger) *App {
	entityHandler := handlers.NewEntityHandler(svc.Entities, svc.References, logger)
	triplesHandler := handlers.NewTriplesHandler(svc.Entities, logger)
	conceptHandler := handlers.NewConceptHandler(svc.Concepts, logger)
	referenceHandler := handlers.NewReferenceHandler(svc.References, logger)

	r := chi.NewRouter()
	app := &App{
		Router:      r,
		RateLimiter: mw.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		Metrics:     &mw.Metrics{},
		startTime:   time.Now(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.Metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiter.Middleware)

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler(svc.Knowledge))

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.BearerAuth(opts.APIKey))

		r.Route("/entities/{id}", func(r chi.Router) {
			r.Get("/state", entityHandler.State)
			r.Get("/history", entityHandler.History)
			r.Get("/facts", entityHandler.Facts)
			r.Post("/facts", entityHandler.Ingest)
			r.Post("/rebuild", entityHandler.Rebuild)
			r.Post("/rollback", entityHandler.Rollback)
			r.Post("/update", entityHandler.Update)
			r.Post("/score", entityHandler.Score)
		})

		r.Post("/score", entityHandler.ScoreAll)
		r.Post("/triples", triplesHandler.Ingest)

		r.Get("/concepts", conceptHandler.List)
		r.Put("/concepts", conceptHandler.Register)

		r.Get("/references", referenceHandler.List)
		r.Route("/references/{name}", func(r chi.Router) {
			r.Get("/", referenceHandler.Get)
			r.Put("/", referenceHandler.Define)
		})
	})

	return app
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
		})
	}
}

func (app *App) metricsHandler(kb *knowledge.Base) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		snap := kb.Snapshot()

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"requests":       app.Metrics.Snapshot(),
			"rate_limiter":   map[string]any{"clients": app.RateLimiter.Len()},
			"knowledge_base": map[string]any{
				"dimension": snap.Dim(),
				"concepts":  snap.Len(),
				"version":   snap.Version(),
			},
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"build":      buildconfig.VersionInfo(),
			"go_version": runtime.Version(),
		}
		writeJSON(w, http.StatusOK, response)
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.FactStore      = (*store.FactStore)(nil)
	_ domain.StateStore     = (*store.StateStore)(nil)
	_ domain.ConceptStore   = (*store.ConceptStore)(nil)
	_ domain.ReferenceStore = (*store.ReferenceStore)(nil)
	_ Pinger                = (*sqlite.DB)(nil)
	_ Pinger                = (*pgxpool.Pool)(nil)
)
