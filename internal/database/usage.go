package database

import (
	"context"
	"fmt"

	"content-ontology/internal/metrics"
)

// UsageEvent is one tracked invocation of an assistant tool
type UsageEvent struct {
	EventID      string  `db:"event_id"`
	UserIDHash   string  `db:"user_id_hash"`
	ToolName     string  `db:"tool_name"`
	ToolCategory string  `db:"tool_category"`
	DurationMS   *int64  `db:"duration_ms"`
	Status       string  `db:"status"`
	ErrorType    *string `db:"error_type"`
	ErrorMessage *string `db:"error_message"`
	Metadata     *string `db:"metadata"`
}

// ToolUsage summarizes the tracked invocations of one tool
type ToolUsage struct {
	ToolName      string   `db:"tool_name" json:"tool_name"`
	Invocations   int      `db:"invocations" json:"invocations"`
	Errors        int      `db:"errors" json:"errors"`
	UniqueUsers   int      `db:"unique_users" json:"unique_users"`
	AvgDurationMS *float64 `db:"avg_duration_ms" json:"avg_duration_ms"`
	LastUsed      string   `db:"last_used" json:"last_used"`
}

// InsertUsageEvent stores a tool usage event
func (db *DB) InsertUsageEvent(ctx context.Context, e *UsageEvent) (err error) {
	done := observe(metrics.DBOpInsertUsageEvent)
	defer func() { done(err) }()

	_, err = db.conn.NamedExecContext(ctx, `
		INSERT INTO skill_usage_events
			(event_id, user_id_hash, tool_name, tool_category, duration_ms, status,
			 error_type, error_message, metadata)
		VALUES
			(:event_id, :user_id_hash, :tool_name, :tool_category, :duration_ms, :status,
			 :error_type, :error_message, :metadata)`, e)
	if err != nil {
		return fmt.Errorf("failed to insert usage event: %w", err)
	}
	return nil
}

// ToolUsageStats aggregates usage events of the last days per tool, most
// used first
func (db *DB) ToolUsageStats(ctx context.Context, days int) (stats []ToolUsage, err error) {
	done := observe(metrics.DBOpToolUsageStats)
	defer func() { done(err) }()

	stats = []ToolUsage{}
	err = db.conn.SelectContext(ctx, &stats, `
		SELECT
			tool_name,
			COUNT(*) AS invocations,
			SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END) AS errors,
			COUNT(DISTINCT user_id_hash) AS unique_users,
			AVG(duration_ms) AS avg_duration_ms,
			MAX(created_at) AS last_used
		FROM skill_usage_events
		WHERE created_at >= datetime('now', ?)
		GROUP BY tool_name
		ORDER BY invocations DESC, tool_name`, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tool usage: %w", err)
	}
	return stats, nil
}
