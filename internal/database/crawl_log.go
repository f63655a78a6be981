package database

import (
	"context"
	"encoding/json"
	"fmt"

	"content-ontology/internal/metrics"
)

// Crawl statuses
const (
	CrawlRunning             = "running"
	CrawlCompleted           = "completed"
	CrawlCompletedWithErrors = "completed_with_errors"
	CrawlFailed              = "failed"
)

// CrawlLog records one crawl run
type CrawlLog struct {
	ID           int64   `db:"id" json:"id"`
	SiteID       *string `db:"site_id" json:"site_id"`
	StartedAt    string  `db:"started_at" json:"started_at"`
	CompletedAt  *string `db:"completed_at" json:"completed_at"`
	PagesCrawled int     `db:"pages_crawled" json:"pages_crawled"`
	Errors       *string `db:"errors" json:"errors"`
	Status       string  `db:"status" json:"status"`
}

// StartCrawl opens a running crawl log entry and returns its id
func (db *DB) StartCrawl(ctx context.Context, siteID string) (id int64, err error) {
	done := observe(metrics.DBOpStartCrawl)
	defer func() { done(err) }()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO crawl_log (site_id, status) VALUES (?, ?)`, siteID, CrawlRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to start crawl log: %w", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get crawl log id: %w", err)
	}
	return id, nil
}

// FinishCrawl closes a crawl log entry. The status is derived from
// crawlErr and the per-page errors.
func (db *DB) FinishCrawl(ctx context.Context, id int64, pagesCrawled int, pageErrors []string, crawlErr error) (err error) {
	done := observe(metrics.DBOpFinishCrawl)
	defer func() { done(err) }()

	status := CrawlCompleted
	switch {
	case crawlErr != nil:
		status = CrawlFailed
		pageErrors = append(pageErrors, crawlErr.Error())
	case len(pageErrors) > 0:
		status = CrawlCompletedWithErrors
	}

	var errorsJSON *string
	if len(pageErrors) > 0 {
		b, err := json.Marshal(pageErrors)
		if err != nil {
			return fmt.Errorf("failed to encode crawl errors: %w", err)
		}
		s := string(b)
		errorsJSON = &s
	}

	_, err = db.conn.ExecContext(ctx, `
		UPDATE crawl_log SET
			completed_at = CURRENT_TIMESTAMP,
			pages_crawled = ?,
			errors = ?,
			status = ?
		WHERE id = ?`, pagesCrawled, errorsJSON, status, id)
	if err != nil {
		return fmt.Errorf("failed to finish crawl log %d: %w", id, err)
	}
	return nil
}

// GetCrawlLog returns a crawl log entry, or nil if it does not exist
func (db *DB) GetCrawlLog(ctx context.Context, id int64) (*CrawlLog, error) {
	var l CrawlLog
	err := db.conn.GetContext(ctx, &l, `
		SELECT id, site_id, started_at, completed_at, pages_crawled, errors, status
		FROM crawl_log WHERE id = ?`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get crawl log %d: %w", id, err)
	}
	return &l, nil
}
