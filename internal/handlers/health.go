package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"content-ontology/internal/database"
)

// HealthHandler reports liveness
type HealthHandler struct {
	db     *database.DB
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db, logger: slog.Default()}
}

// HandleHealth handles GET /health. A database that cannot be pinged is
// reported as degraded with status 503.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := h.db.Health(r.Context()); err != nil {
		h.logger.Error("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "degraded",
			"error":     err.Error(),
			"timestamp": now,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": now,
	})
}
