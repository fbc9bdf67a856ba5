package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/custodia-labs/coursemate/internal/logger"
)

// RouterOptions configures optional parts of the router.
type RouterOptions struct {
	// StaticDir, when set, is served for every path no API route matches.
	StaticDir string

	// Metrics, when set, records request counts and serves /metrics.
	Metrics *Metrics
}

// NewRouter wires the handlers into a chi router.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(logger.Writer(), "", log.LstdFlags),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/", h.RootHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", h.QueryHandler)
		r.Get("/courses", h.CoursesHandler)
		r.Delete("/session/{sessionID}", h.ClearSessionHandler)
	})

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}
