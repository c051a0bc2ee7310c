package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"meeting-search/internal/handlers"
	"meeting-search/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Service service.MeetingService
	// VectorStore is checked by the health endpoint. Nil when the Qdrant
	// mirror is disabled.
	VectorStore handlers.HealthChecker
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)

	healthHandler := handlers.NewHealthHandler(deps.VectorStore)
	ingestHandler := handlers.NewIngestHandler(deps.Service)
	uploadHandler := handlers.NewUploadHandler(deps.Service)
	searchHandler := handlers.NewSearchHandler(deps.Service)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Service)
	meetingsHandler := handlers.NewMeetingsHandler(deps.Service)
	sessionsHandler := handlers.NewSessionsHandler(deps.Service)

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Method(http.MethodPost, "/upload", uploadHandler)
			r.Method(http.MethodPost, "/ingest", ingestHandler)
			r.Method(http.MethodPost, "/search", searchHandler)

			r.Get("/analytics", analyticsHandler.Analytics)
			r.Get("/statistics", analyticsHandler.Statistics)

			r.Route("/meetings", func(r chi.Router) {
				r.Get("/", meetingsHandler.List)
				r.Get("/{id}", meetingsHandler.Get)
				r.Delete("/{id}", meetingsHandler.Delete)
				r.Get("/{id}/similar", meetingsHandler.Similar)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/info", sessionsHandler.Info)
				r.Delete("/current", sessionsHandler.EvictCurrent)
				r.Post("/clear-all", sessionsHandler.ClearAll)
			})
		})
	})

	return r
}
