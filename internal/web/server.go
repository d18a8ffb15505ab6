package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/breachwatch/hibp-relay/internal/config"
	"github.com/breachwatch/hibp-relay/internal/enrich"
	"github.com/breachwatch/hibp-relay/internal/metrics"
	"github.com/breachwatch/hibp-relay/internal/models"
)

const Version = "1.1.0"

type keyProvider interface {
	KeyFromRequest(r *http.Request) (string, *models.APIError)
}

type enricher interface {
	Observe(ctx context.Context, key string, observables []models.Observable) (map[string]enrich.FormattedDocs, *models.APIError)
	Refer(observables []models.Observable) []models.Reference
	Deliberate() map[string]any
}

type Server struct {
	config   *config.Config
	keys     keyProvider
	enricher enricher
	fetcher  enrich.Fetcher
	server   *http.Server
}

func NewServer(cfg *config.Config, keys keyProvider, e enricher, fetcher enrich.Fetcher) *Server {
	return &Server{
		config:   cfg,
		keys:     keys,
		enricher: e,
		fetcher:  fetcher,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/observe/observables", s.handleObserve)
	r.Post("/deliberate/observables", s.handleDeliberate)
	r.Post("/refer/observables", s.handleRefer)
	r.Post("/health", s.handleHealth)

	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return cors.Default().Handler(r)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.Web.ListenAddr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
	}

	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}
