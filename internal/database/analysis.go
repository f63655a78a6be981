package database

import (
	"context"
	"fmt"

	"content-ontology/internal/metrics"
)

// TopicCoverage counts a topic's pages per funnel stage
type TopicCoverage struct {
	Topic         string `db:"topic"`
	Awareness     int    `db:"awareness_count"`
	Consideration int    `db:"consideration_count"`
	Decision      int    `db:"decision_count"`
	TotalPages    int    `db:"total_pages"`
}

// TopicCoverage groups classified pages by primary topic. Pages without a
// primary topic are never counted. An empty topic returns every topic.
func (db *DB) TopicCoverage(ctx context.Context, topic string) (rows []TopicCoverage, err error) {
	done := observe(metrics.DBOpTopicCoverage)
	defer func() { done(err) }()

	query := `
		SELECT
			primary_topic AS topic,
			SUM(CASE WHEN funnel_stage = 'awareness' THEN 1 ELSE 0 END) AS awareness_count,
			SUM(CASE WHEN funnel_stage = 'consideration' THEN 1 ELSE 0 END) AS consideration_count,
			SUM(CASE WHEN funnel_stage = 'decision' THEN 1 ELSE 0 END) AS decision_count,
			COUNT(*) AS total_pages
		FROM pages
		WHERE primary_topic IS NOT NULL`
	args := []interface{}{}
	if topic != "" {
		query += ` AND primary_topic = ?`
		args = append(args, topic)
	}
	query += ` GROUP BY primary_topic ORDER BY primary_topic`

	rows = []TopicCoverage{}
	if err = db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to compute topic coverage: %w", err)
	}
	return rows, nil
}

// RelatedPage is a page returned by relation lookups
type RelatedPage struct {
	Path         string  `db:"path" json:"path"`
	Title        *string `db:"title" json:"title"`
	ContentType  *string `db:"content_type" json:"content_type"`
	PrimaryTopic *string `db:"primary_topic" json:"primary_topic,omitempty"`
	FunnelStage  *string `db:"funnel_stage" json:"funnel_stage,omitempty"`
}

// RelatedLimit caps every relation list independently
const RelatedLimit = 10

// PagesWithTopic returns other pages sharing a primary topic
func (db *DB) PagesWithTopic(ctx context.Context, topic *string, exclude string) ([]RelatedPage, error) {
	return db.relatedPages(ctx, `
		SELECT path, title, content_type, NULL AS primary_topic, funnel_stage
		FROM pages
		WHERE primary_topic = ? AND path != ?
		ORDER BY path LIMIT ?`, topic, exclude)
}

// PagesWithStage returns other pages in the same funnel stage
func (db *DB) PagesWithStage(ctx context.Context, stage *string, exclude string) ([]RelatedPage, error) {
	return db.relatedPages(ctx, `
		SELECT path, title, content_type, primary_topic, NULL AS funnel_stage
		FROM pages
		WHERE funnel_stage = ? AND path != ?
		ORDER BY path LIMIT ?`, stage, exclude)
}

// PagesSharingAudience returns other pages with at least one audience tag
// in common with path
func (db *DB) PagesSharingAudience(ctx context.Context, path string) ([]RelatedPage, error) {
	return db.relatedPages(ctx, `
		SELECT DISTINCT p.path, p.title, p.content_type, p.primary_topic, NULL AS funnel_stage
		FROM pages p
		JOIN page_audiences pa ON p.path = pa.page_path
		WHERE pa.audience IN (SELECT audience FROM page_audiences WHERE page_path = ?)
			AND p.path != ?
		ORDER BY p.path LIMIT ?`, path, path)
}

func (db *DB) relatedPages(ctx context.Context, query string, key interface{}, exclude string) (pages []RelatedPage, err error) {
	done := observe(metrics.DBOpRelatedPages)
	defer func() { done(err) }()

	pages = []RelatedPage{}
	// NULL keys never match with '=', which yields an empty list
	if err = db.conn.SelectContext(ctx, &pages, query, key, exclude, RelatedLimit); err != nil {
		return nil, fmt.Errorf("failed to find related pages for %s: %w", exclude, err)
	}
	return pages, nil
}

// TopicPage is an existing page for a topic, as listed in briefs
type TopicPage struct {
	Path        string  `db:"path" json:"path"`
	Title       *string `db:"title" json:"title"`
	ContentType *string `db:"content_type" json:"content_type"`
	FunnelStage *string `db:"funnel_stage" json:"funnel_stage"`
	Summary     *string `db:"summary" json:"summary"`
}

// AudienceCount is an audience label with the number of tagged pages
type AudienceCount struct {
	Audience string `db:"audience" json:"audience"`
	Count    int    `db:"count" json:"count"`
}

// TopicContext is everything known about one primary topic
type TopicContext struct {
	Pages         []TopicPage
	RelatedTopics []string
	Audiences     []AudienceCount
	Entities      []Entity
}

// RelatedTopicLimit caps the related topics returned for a topic
const RelatedTopicLimit = 5

// TopicContext gathers the pages, secondary topics, audiences and entities
// of a primary topic. Any failing sub-query aborts the whole lookup.
func (db *DB) TopicContext(ctx context.Context, topic string) (tc *TopicContext, err error) {
	done := observe(metrics.DBOpTopicContext)
	defer func() { done(err) }()

	tc = &TopicContext{
		Pages:         []TopicPage{},
		RelatedTopics: []string{},
		Audiences:     []AudienceCount{},
		Entities:      []Entity{},
	}

	err = db.conn.SelectContext(ctx, &tc.Pages, `
		SELECT path, title, content_type, funnel_stage, summary
		FROM pages
		WHERE primary_topic = ?
		ORDER BY CASE funnel_stage
			WHEN 'awareness' THEN 0
			WHEN 'consideration' THEN 1
			WHEN 'decision' THEN 2
			ELSE 3 END, path`, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages for topic %s: %w", topic, err)
	}

	err = db.conn.SelectContext(ctx, &tc.RelatedTopics, `
		SELECT topic
		FROM page_topics
		WHERE page_path IN (SELECT path FROM pages WHERE primary_topic = ?)
			AND topic != ?
		GROUP BY topic
		ORDER BY COUNT(*) DESC, topic
		LIMIT ?`, topic, topic, RelatedTopicLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list related topics for %s: %w", topic, err)
	}

	err = db.conn.SelectContext(ctx, &tc.Audiences, `
		SELECT audience, COUNT(*) AS count
		FROM page_audiences
		WHERE page_path IN (SELECT path FROM pages WHERE primary_topic = ?)
		GROUP BY audience
		ORDER BY count DESC, audience`, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to list audiences for topic %s: %w", topic, err)
	}

	err = db.conn.SelectContext(ctx, &tc.Entities, `
		SELECT DISTINCT e.name, e.type
		FROM entities e
		JOIN page_entities pe ON e.id = pe.entity_id
		WHERE pe.page_path IN (SELECT path FROM pages WHERE primary_topic = ?)
		ORDER BY e.name`, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities for topic %s: %w", topic, err)
	}

	return tc, nil
}
