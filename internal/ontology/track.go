package ontology

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/google/uuid"

	"content-ontology/internal/database"
	"content-ontology/internal/metrics"
)

// TrackResult acknowledges a stored usage event
type TrackResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EventID string `json:"event_id"`
}

// HashClient derives the stored user identifier from a client address.
// Raw addresses are never persisted.
func HashClient(clientID string) string {
	if clientID == "" {
		clientID = "anonymous"
	}
	sum := sha256.Sum256([]byte(clientID))
	return hex.EncodeToString(sum[:])[:32]
}

// TrackToolUsage records one invocation of an assistant tool
func (s *Service) TrackToolUsage(ctx context.Context, p TrackParams, clientID string) (*TrackResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ToolCategory == "" {
		p.ToolCategory = DefaultToolCategory
	}

	event := &database.UsageEvent{
		EventID:      uuid.NewString(),
		UserIDHash:   HashClient(clientID),
		ToolName:     p.ToolName,
		ToolCategory: p.ToolCategory,
		DurationMS:   p.DurationMS,
		Status:       p.Status,
		ErrorType:    optional(p.ErrorType),
		ErrorMessage: optional(p.ErrorMessage),
	}
	if meta := strings.TrimSpace(string(p.Metadata)); meta != "" && meta != "null" {
		event.Metadata = &meta
	}

	if err := s.db.InsertUsageEvent(ctx, event); err != nil {
		return nil, upstream("store usage event", err)
	}
	metrics.ToolUsageEventsTotal.WithLabelValues(usageLabels(p.ToolName, p.Status)).Inc()

	s.logger.Debug("Tracked tool usage", "tool", p.ToolName, "status", p.Status, "event_id", event.EventID)

	return &TrackResult{
		Success: true,
		Message: "Event tracked",
		EventID: event.EventID,
	}, nil
}

// UsageResult summarizes tool usage over a window of days
type UsageResult struct {
	Days  int                  `json:"days"`
	Tools []database.ToolUsage `json:"tools"`
}

// ToolUsageStats aggregates usage events per tool
func (s *Service) ToolUsageStats(ctx context.Context, p UsageParams) (*UsageResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Days == 0 {
		p.Days = DefaultUsageWindowDays
	}

	tools, err := s.db.ToolUsageStats(ctx, p.Days)
	if err != nil {
		return nil, upstream("aggregate tool usage", err)
	}
	return &UsageResult{Days: p.Days, Tools: tools}, nil
}

// usageLabels keeps metric cardinality bounded by folding unknown tool
// names and statuses into "other"
func usageLabels(tool, status string) (string, string) {
	if !slices.Contains(ToolNames, tool) {
		tool = "other"
	}
	if !slices.Contains(ToolStatuses, status) {
		status = "other"
	}
	return tool, status
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
