package handlers

import (
	_ "embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"content-ontology/internal/config"
	"content-ontology/internal/database"
	"content-ontology/internal/mcpserver"
	"content-ontology/internal/metrics"
	"content-ontology/internal/middleware"
	"content-ontology/internal/ontology"
)

//go:embed manifest.json
var manifest []byte

// NewRouter wires every endpoint. /health and /manifest.json are public;
// /api and /mcp require the bearer key when one is configured.
func NewRouter(svc *ontology.Service, db *database.DB, cfg *config.Config) http.Handler {
	api := NewAPIHandler(svc)
	health := NewHealthHandler(db)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{"error": "Method not allowed"})
	})

	r.Method(http.MethodGet, "/health", middleware.WrapHandler(metrics.EndpointHealth, health.HandleHealth))
	r.Method(http.MethodGet, "/manifest.json", middleware.WrapHandler(metrics.EndpointManifest, handleManifest))

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.APIKey))

		r.Route("/api", func(r chi.Router) {
			getPost(r, "/query", metrics.EndpointQuery, api.HandleQuery)
			getPost(r, "/gaps", metrics.EndpointGaps, api.HandleGaps)
			getPost(r, "/brief", metrics.EndpointBrief, api.HandleBrief)
			getPost(r, "/context", metrics.EndpointContext, api.HandleContext)
			getPost(r, "/related", metrics.EndpointRelated, api.HandleRelated)
			getPost(r, "/summary", metrics.EndpointSummary, api.HandleSummary)
			getPost(r, "/performance", metrics.EndpointPerformance, api.HandlePerformance)
			getPost(r, "/top-performers", metrics.EndpointTopPerformers, api.HandleTopPerformers)
			getPost(r, "/performance-patterns", metrics.EndpointPerformancePatterns, api.HandlePerformancePatterns)
			getPost(r, "/sites", metrics.EndpointSites, api.HandleSites)

			r.Method(http.MethodPost, "/track", middleware.WrapHandler(metrics.EndpointTrack, api.HandleTrack))
			r.Method(http.MethodGet, "/analytics/tools", middleware.WrapHandler(metrics.EndpointAnalytics, api.HandleToolAnalytics))
		})

		r.Handle("/mcp", middleware.WrapHandler(metrics.EndpointMCP, mcpserver.Handler(svc).ServeHTTP))
	})

	return r
}

func getPost(r chi.Router, path, endpoint string, h http.HandlerFunc) {
	wrapped := middleware.WrapHandler(endpoint, h)
	r.Method(http.MethodGet, path, wrapped)
	r.Method(http.MethodPost, path, wrapped)
}

func handleManifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(manifest)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}
