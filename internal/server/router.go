package server

import (
	"net/http"

	"github.com/asklore/asklore/internal/api"
	"github.com/asklore/asklore/internal/api/handlers"
	"github.com/asklore/asklore/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	// APIToken guards the query and ingest routes when set; empty leaves
	// them open, which is the expected mode for local use.
	APIToken string

	AskHandler     *handlers.AskHandler
	IngestHandler  *handlers.IngestHandler
	StatusHandler  *handlers.StatusHandler
	SourcesHandler *handlers.SourcesHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if cfg.APIToken != "" {
			r.Use(middleware.BearerAuth(cfg.APIToken))
		}

		r.Post("/ask", cfg.AskHandler.Ask)
		r.Post("/ingest", cfg.IngestHandler.Ingest)
		r.Get("/status", cfg.StatusHandler.Status)
		r.Get("/sources", cfg.SourcesHandler.List)
	})

	return r
}
