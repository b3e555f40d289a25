// Package app assembles the HTTP router and the readiness probes.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/httpserver"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/observability"
	"github.com/AbilashEG/smart-hr-intake/internal/config"
)

// ParseOrigins splits a comma-separated origin list, trimming spaces.
// Empty input yields ["*"].
func ParseOrigins(s string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range strings.Split(s, ",") {
		// browsers send Origin without a trailing slash
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p == "" || seen[p] {
			continue
		}
		if p == "*" {
			return []string{"*"}
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.RequestID())
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-Match", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(httpserver.TimeoutMiddleware(cfg.RequestTimeout))

		// mutating endpoints may reach OCR and the generation backend
		v1.Group(func(wr chi.Router) {
			if cfg.RateLimitPerMin > 0 {
				wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
			}
			wr.Post("/upload", srv.UploadHandler())
			wr.Put("/candidates/{email}", srv.UpdateCandidateHandler())
			wr.Post("/candidates/{email}/tasks", srv.GenerateTasksHandler())
		})
		v1.Get("/candidates", srv.ListCandidatesHandler())
		v1.Get("/candidates/{email}", srv.GetCandidateHandler())
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", srv.ReadyzHandler())
	r.Handle("/metrics", promhttp.Handler())

	return httpserver.SecurityHeaders(r)
}
