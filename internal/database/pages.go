package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"content-ontology/internal/metrics"
)

// Page is a crawled page with its classification columns
type Page struct {
	Path         string  `db:"path" json:"path"`
	SiteID       *string `db:"site_id" json:"site_id"`
	Title        *string `db:"title" json:"title"`
	ContentType  *string `db:"content_type" json:"content_type"`
	PrimaryTopic *string `db:"primary_topic" json:"primary_topic"`
	FunnelStage  *string `db:"funnel_stage" json:"funnel_stage"`
	Summary      *string `db:"summary" json:"summary"`
	WordCount    *int    `db:"word_count" json:"word_count"`
	LiveURL      *string `db:"live_url" json:"live_url"`
	LastCrawled  *string `db:"last_crawled" json:"last_crawled"`
	AnalyzedAt   *string `db:"analyzed_at" json:"analyzed_at"`
}

// CrawledPage is the crawler's view of a page
type CrawledPage struct {
	Path    string  `db:"path"`
	SiteID  *string `db:"site_id"`
	Title   string  `db:"title"`
	RawHTML string  `db:"raw_html"`
	LiveURL string  `db:"live_url"`
}

// PageContent is a page awaiting classification
type PageContent struct {
	Path    string  `db:"path"`
	Title   *string `db:"title"`
	RawHTML *string `db:"raw_html"`
}

// Entity is a named thing mentioned by pages
type Entity struct {
	Name string `db:"name" json:"name"`
	Type string `db:"type" json:"type"`
}

// Analysis is the classification result stored for a page
type Analysis struct {
	Title           string
	ContentType     string
	PrimaryTopic    string
	SecondaryTopics []string
	Entities        []Entity
	Audiences       []string
	FunnelStage     string
	KeyMessages     []string
	WordCount       int
	Summary         string
}

const pageColumns = `path, site_id, title, content_type, primary_topic, funnel_stage,
	summary, word_count, live_url, last_crawled, analyzed_at`

// UpsertCrawledPage inserts a page or refreshes its crawl columns.
// Classification columns survive re-crawls.
func (db *DB) UpsertCrawledPage(ctx context.Context, page *CrawledPage) (err error) {
	done := observe(metrics.DBOpUpsertPage)
	defer func() { done(err) }()

	query := `
		INSERT INTO pages (path, site_id, title, raw_html, live_url, last_crawled)
		VALUES (:path, :site_id, :title, :raw_html, :live_url, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			site_id = COALESCE(excluded.site_id, pages.site_id),
			title = excluded.title,
			raw_html = excluded.raw_html,
			live_url = excluded.live_url,
			last_crawled = excluded.last_crawled
	`

	if _, err = db.conn.NamedExecContext(ctx, query, page); err != nil {
		return fmt.Errorf("failed to upsert page %s: %w", page.Path, err)
	}
	return nil
}

// GetPage returns a page by path, or nil if it does not exist
func (db *DB) GetPage(ctx context.Context, path string) (page *Page, err error) {
	done := observe(metrics.DBOpGetPage)
	defer func() { done(err) }()

	var p Page
	if err = db.conn.GetContext(ctx, &p, `SELECT `+pageColumns+` FROM pages WHERE path = ?`, path); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page %s: %w", path, err)
	}
	return &p, nil
}

// ListUnanalyzedPages returns pages with raw HTML but no classification.
// limit <= 0 returns all of them.
func (db *DB) ListUnanalyzedPages(ctx context.Context, limit int) (pages []PageContent, err error) {
	done := observe(metrics.DBOpListUnanalyzed)
	defer func() { done(err) }()

	query := `SELECT path, title, raw_html FROM pages
		WHERE content_type IS NULL AND raw_html IS NOT NULL
		ORDER BY path`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	pages = []PageContent{}
	if err = db.conn.SelectContext(ctx, &pages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed pages: %w", err)
	}
	return pages, nil
}

// StoreAnalysis writes a classification result and replaces the page's
// topic, entity, audience and message associations in one transaction.
// The primary topic is always stored as the single is_primary row.
func (db *DB) StoreAnalysis(ctx context.Context, path string, a *Analysis) (err error) {
	done := observe(metrics.DBOpStoreAnalysis)
	defer func() { done(err) }()

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE pages SET
				title = COALESCE(NULLIF(?, ''), title),
				content_type = ?,
				primary_topic = ?,
				funnel_stage = ?,
				summary = ?,
				word_count = ?,
				analyzed_at = CURRENT_TIMESTAMP
			WHERE path = ?`,
			a.Title, a.ContentType, a.PrimaryTopic, a.FunnelStage, a.Summary, a.WordCount, path)
		if err != nil {
			return fmt.Errorf("failed to update page %s: %w", path, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("failed to update page %s: page does not exist", path)
		}

		for _, table := range []string{"page_topics", "page_entities", "page_audiences", "page_messages"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE page_path = ?`, path); err != nil {
				return fmt.Errorf("failed to clear %s for %s: %w", table, path, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO page_topics (page_path, topic, is_primary) VALUES (?, ?, 1)`,
			path, a.PrimaryTopic); err != nil {
			return fmt.Errorf("failed to store primary topic: %w", err)
		}

		for _, topic := range a.SecondaryTopics {
			topic = strings.TrimSpace(topic)
			if topic == "" || topic == a.PrimaryTopic {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO page_topics (page_path, topic, is_primary) VALUES (?, ?, 0)`,
				path, topic); err != nil {
				return fmt.Errorf("failed to store topic %s: %w", topic, err)
			}
		}

		for _, e := range a.Entities {
			if strings.TrimSpace(e.Name) == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO entities (name, type) VALUES (?, ?)`, e.Name, e.Type); err != nil {
				return fmt.Errorf("failed to store entity %s: %w", e.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO page_entities (page_path, entity_id)
				SELECT ?, id FROM entities WHERE name = ?`, path, e.Name); err != nil {
				return fmt.Errorf("failed to link entity %s: %w", e.Name, err)
			}
		}

		for _, audience := range a.Audiences {
			if strings.TrimSpace(audience) == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO page_audiences (page_path, audience) VALUES (?, ?)`,
				path, audience); err != nil {
				return fmt.Errorf("failed to store audience %s: %w", audience, err)
			}
		}

		for _, msg := range a.KeyMessages {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO page_messages (page_path, message) VALUES (?, ?)`, path, msg); err != nil {
				return fmt.Errorf("failed to store key message: %w", err)
			}
		}

		return nil
	})
}
