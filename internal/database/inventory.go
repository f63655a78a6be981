package database

import (
	"context"
	"fmt"

	"content-ontology/internal/metrics"
)

// TopicCount is a primary topic with its page count
type TopicCount struct {
	Topic string `db:"topic" json:"topic"`
	Count int    `db:"count" json:"count"`
}

// EntityMentions is an entity with the number of pages mentioning it
type EntityMentions struct {
	Name     string `db:"name" json:"name"`
	Type     string `db:"type" json:"type"`
	Mentions int    `db:"mentions" json:"mentions"`
}

// ContentTypeCount is a content type with its page count.
// Unclassified pages are grouped under a nil content type.
type ContentTypeCount struct {
	ContentType *string `db:"content_type" json:"content_type"`
	Count       int     `db:"count" json:"count"`
}

// StageCount is a funnel stage with its page count
type StageCount struct {
	FunnelStage *string `db:"funnel_stage" json:"funnel_stage"`
	Count       int     `db:"count" json:"count"`
}

// EntityMentionLimit caps the entities returned by brand context lookups
const EntityMentionLimit = 20

// TopicCounts returns primary topics by descending page count.
// limit <= 0 returns every topic.
func (db *DB) TopicCounts(ctx context.Context, siteID string, limit int) (topics []TopicCount, err error) {
	done := observe(metrics.DBOpBrandContext)
	defer func() { done(err) }()

	query := `SELECT primary_topic AS topic, COUNT(*) AS count
		FROM pages
		WHERE primary_topic IS NOT NULL AND (? = '' OR site_id = ?)
		GROUP BY primary_topic
		ORDER BY count DESC, topic`
	args := []interface{}{siteID, siteID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	topics = []TopicCount{}
	if err = db.conn.SelectContext(ctx, &topics, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count topics: %w", err)
	}
	return topics, nil
}

// AudienceCounts returns every audience label by descending page count
func (db *DB) AudienceCounts(ctx context.Context) (audiences []AudienceCount, err error) {
	done := observe(metrics.DBOpBrandContext)
	defer func() { done(err) }()

	audiences = []AudienceCount{}
	err = db.conn.SelectContext(ctx, &audiences, `
		SELECT audience, COUNT(*) AS count
		FROM page_audiences
		GROUP BY audience
		ORDER BY count DESC, audience`)
	if err != nil {
		return nil, fmt.Errorf("failed to count audiences: %w", err)
	}
	return audiences, nil
}

// EntityMentions returns the most mentioned entities
func (db *DB) EntityMentions(ctx context.Context) (entities []EntityMentions, err error) {
	done := observe(metrics.DBOpBrandContext)
	defer func() { done(err) }()

	entities = []EntityMentions{}
	err = db.conn.SelectContext(ctx, &entities, `
		SELECT e.name, e.type, COUNT(*) AS mentions
		FROM entities e
		JOIN page_entities pe ON e.id = pe.entity_id
		GROUP BY e.id
		ORDER BY mentions DESC, e.name
		LIMIT ?`, EntityMentionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to count entity mentions: %w", err)
	}
	return entities, nil
}

// ContentTypeCounts returns content types by descending page count
func (db *DB) ContentTypeCounts(ctx context.Context) (types []ContentTypeCount, err error) {
	done := observe(metrics.DBOpBrandContext)
	defer func() { done(err) }()

	types = []ContentTypeCount{}
	err = db.conn.SelectContext(ctx, &types, `
		SELECT content_type, COUNT(*) AS count
		FROM pages
		GROUP BY content_type
		ORDER BY count DESC, content_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count content types: %w", err)
	}
	return types, nil
}

// InventoryStats are headline counts for the summary endpoint
type InventoryStats struct {
	TotalPages    int `db:"total_pages" json:"total_pages"`
	TotalTopics   int `db:"total_topics" json:"total_topics"`
	TotalEntities int `db:"total_entities" json:"total_entities"`
	TotalSites    int `db:"total_sites" json:"total_sites"`
}

// InventoryStats counts pages and topics, optionally for one site.
// Entity and site totals are global.
func (db *DB) InventoryStats(ctx context.Context, siteID string) (stats *InventoryStats, err error) {
	done := observe(metrics.DBOpInventoryStats)
	defer func() { done(err) }()

	var s InventoryStats
	err = db.conn.GetContext(ctx, &s, `
		SELECT
			(SELECT COUNT(*) FROM pages WHERE ? = '' OR site_id = ?) AS total_pages,
			(SELECT COUNT(DISTINCT primary_topic) FROM pages
				WHERE primary_topic IS NOT NULL AND (? = '' OR site_id = ?)) AS total_topics,
			(SELECT COUNT(*) FROM entities) AS total_entities,
			(SELECT COUNT(*) FROM sites) AS total_sites`,
		siteID, siteID, siteID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute inventory stats: %w", err)
	}
	return &s, nil
}

// FunnelDistribution counts pages per funnel stage, optionally for one site
func (db *DB) FunnelDistribution(ctx context.Context, siteID string) (stages []StageCount, err error) {
	done := observe(metrics.DBOpInventoryStats)
	defer func() { done(err) }()

	stages = []StageCount{}
	err = db.conn.SelectContext(ctx, &stages, `
		SELECT funnel_stage, COUNT(*) AS count
		FROM pages
		WHERE ? = '' OR site_id = ?
		GROUP BY funnel_stage
		ORDER BY funnel_stage`, siteID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute funnel distribution: %w", err)
	}
	return stages, nil
}

// InventoryCounts implements metrics.InventoryCounter
func (db *DB) InventoryCounts(ctx context.Context) (counts *metrics.InventoryCounts, err error) {
	done := observe(metrics.DBOpInventoryStats)
	defer func() { done(err) }()

	var row struct {
		Pages       int `db:"pages"`
		Topics      int `db:"topics"`
		Sites       int `db:"sites"`
		ScoredPages int `db:"scored_pages"`
	}
	err = db.conn.GetContext(ctx, &row, `
		SELECT
			(SELECT COUNT(*) FROM pages) AS pages,
			(SELECT COUNT(DISTINCT primary_topic) FROM pages WHERE primary_topic IS NOT NULL) AS topics,
			(SELECT COUNT(*) FROM sites) AS sites,
			(SELECT COUNT(*) FROM page_scores) AS scored_pages`)
	if err != nil {
		return nil, fmt.Errorf("failed to count inventory: %w", err)
	}

	return &metrics.InventoryCounts{
		Pages:       row.Pages,
		Topics:      row.Topics,
		Sites:       row.Sites,
		ScoredPages: row.ScoredPages,
	}, nil
}
