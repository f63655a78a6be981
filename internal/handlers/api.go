package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"

	"content-ontology/internal/ontology"
)

// APIHandler serves the ontology operations as JSON endpoints
type APIHandler struct {
	svc    *ontology.Service
	logger *slog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(svc *ontology.Service) *APIHandler {
	return &APIHandler{
		svc:    svc,
		logger: slog.Default(),
	}
}

// operation adapts a service call taking P to an HTTP handler. GET
// parameters come from the query string, POST parameters from a JSON body.
func operation[P any](h *APIHandler, fn func(context.Context, P) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params P
		if err := decodeParams(r, &params); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
			return
		}

		result, err := fn(r.Context(), params)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// decodeParams binds request parameters into dst
func decodeParams(r *http.Request, dst interface{}) error {
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("invalid JSON body: %v", err)
		}
		return nil
	}

	query := r.URL.Query()
	if len(query) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(query))
	for key := range query {
		raw := query.Get(key)
		if !slices.Contains(ontology.IntFields, key) {
			values[key] = raw
			continue
		}
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s parameter", key)
		}
		values[key] = n
	}

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode query parameters: %w", err)
	}
	return json.Unmarshal(data, dst)
}

// writeError maps ontology error kinds to status codes
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ontology.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ontology.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ontology.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debug("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	writeJSON(w, status, map[string]interface{}{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// HandleQuery handles /api/query
func (h *APIHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.QueryParams) (any, error) {
		return h.svc.QueryInventory(ctx, p)
	})(w, r)
}

// HandleGaps handles /api/gaps
func (h *APIHandler) HandleGaps(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.GapsParams) (any, error) {
		return h.svc.ContentGaps(ctx, p)
	})(w, r)
}

// HandleBrief handles /api/brief
func (h *APIHandler) HandleBrief(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.BriefParams) (any, error) {
		return h.svc.GenerateBrief(ctx, p)
	})(w, r)
}

// HandleContext handles /api/context
func (h *APIHandler) HandleContext(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.ContextParams) (any, error) {
		return h.svc.BrandContext(ctx, p)
	})(w, r)
}

// HandleRelated handles /api/related
func (h *APIHandler) HandleRelated(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.RelatedParams) (any, error) {
		return h.svc.RelatedContent(ctx, p)
	})(w, r)
}

// HandleSummary handles /api/summary
func (h *APIHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.SummaryParams) (any, error) {
		return h.svc.InventorySummary(ctx, p)
	})(w, r)
}

// HandlePerformance handles /api/performance
func (h *APIHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.PerformanceParams) (any, error) {
		return h.svc.Performance(ctx, p)
	})(w, r)
}

// HandleTopPerformers handles /api/top-performers
func (h *APIHandler) HandleTopPerformers(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.TopPerformersParams) (any, error) {
		return h.svc.TopPerformers(ctx, p)
	})(w, r)
}

// HandlePerformancePatterns handles /api/performance-patterns
func (h *APIHandler) HandlePerformancePatterns(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.PatternsParams) (any, error) {
		return h.svc.PerformancePatterns(ctx, p)
	})(w, r)
}

// HandleSites handles /api/sites
func (h *APIHandler) HandleSites(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.SitesParams) (any, error) {
		return h.svc.Sites(ctx, p)
	})(w, r)
}

// HandleTrack handles POST /api/track. The caller's address is hashed
// before storage.
func (h *APIHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	client := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		client = host
	}

	operation(h, func(ctx context.Context, p ontology.TrackParams) (any, error) {
		return h.svc.TrackToolUsage(ctx, p, client)
	})(w, r)
}

// HandleToolAnalytics handles GET /api/analytics/tools
func (h *APIHandler) HandleToolAnalytics(w http.ResponseWriter, r *http.Request) {
	operation(h, func(ctx context.Context, p ontology.UsageParams) (any, error) {
		return h.svc.ToolUsageStats(ctx, p)
	})(w, r)
}
