package database

import (
	"context"
	"fmt"
	"strings"

	"content-ontology/internal/metrics"
)

// PageFilter narrows an inventory query. Empty fields add no constraint.
type PageFilter struct {
	SiteID      string
	Topic       string
	ContentType string
	FunnelStage string
	Audience    string // substring of any audience tag
	Search      string // substring of path or title
	Limit       int
}

// PageSummary is the fixed projection returned by inventory queries
type PageSummary struct {
	Path         string  `db:"path" json:"path"`
	Title        *string `db:"title" json:"title"`
	ContentType  *string `db:"content_type" json:"content_type"`
	PrimaryTopic *string `db:"primary_topic" json:"primary_topic"`
	FunnelStage  *string `db:"funnel_stage" json:"funnel_stage"`
	Summary      *string `db:"summary" json:"summary"`
	SiteID       *string `db:"site_id" json:"site_id"`
}

// QueryPages returns pages matching every non-empty filter field, ordered
// by path. Filter values are always bound as parameters.
func (db *DB) QueryPages(ctx context.Context, f PageFilter) (pages []PageSummary, err error) {
	done := observe(metrics.DBOpQueryPages)
	defer func() { done(err) }()

	var (
		where []string
		args  []interface{}
	)

	if f.SiteID != "" {
		where = append(where, "p.site_id = ?")
		args = append(args, f.SiteID)
	}
	if f.Topic != "" {
		where = append(where, "p.primary_topic = ?")
		args = append(args, f.Topic)
	}
	if f.ContentType != "" {
		where = append(where, "p.content_type = ?")
		args = append(args, f.ContentType)
	}
	if f.FunnelStage != "" {
		where = append(where, "p.funnel_stage = ?")
		args = append(args, f.FunnelStage)
	}
	if f.Audience != "" {
		where = append(where, "p.path IN (SELECT page_path FROM page_audiences WHERE audience LIKE ? ESCAPE '\\')")
		args = append(args, likePattern(f.Audience))
	}
	if f.Search != "" {
		where = append(where, "(p.path LIKE ? ESCAPE '\\' OR p.title LIKE ? ESCAPE '\\')")
		pattern := likePattern(f.Search)
		args = append(args, pattern, pattern)
	}

	query := `SELECT p.path, p.title, p.content_type, p.primary_topic,
		p.funnel_stage, p.summary, p.site_id
		FROM pages p`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.path"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	pages = []PageSummary{}
	if err = db.conn.SelectContext(ctx, &pages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	return pages, nil
}

// likePattern wraps s for a substring LIKE match, escaping wildcards
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
