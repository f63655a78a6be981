package database

import (
	"context"
	"fmt"

	"content-ontology/internal/metrics"
)

// Site is an onboarded content source
type Site struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Domain      *string `db:"domain" json:"domain"`
	SourceOrg   *string `db:"source_org" json:"source_org"`
	SourceRepo  *string `db:"source_repo" json:"source_repo"`
	SourceURL   *string `db:"source_url" json:"source_url"`
	PageCount   int     `db:"page_count" json:"page_count"`
	LastCrawled *string `db:"last_crawled" json:"last_crawled"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
}

// SiteStats is a site with live counts from the pages table
type SiteStats struct {
	Site
	ActualPageCount int `db:"actual_page_count" json:"actual_page_count"`
	TopicCount      int `db:"topic_count" json:"topic_count"`
}

const siteStatsColumns = `
	s.id, s.name, s.domain, s.source_org, s.source_repo, s.source_url,
	s.page_count, s.last_crawled, s.created_at,
	(SELECT COUNT(*) FROM pages WHERE site_id = s.id) AS actual_page_count,
	(SELECT COUNT(DISTINCT primary_topic) FROM pages WHERE site_id = s.id) AS topic_count
`

// UpsertSite creates a site or updates its descriptive columns.
// page_count and last_crawled are left untouched on update.
func (db *DB) UpsertSite(ctx context.Context, site *Site) (err error) {
	done := observe(metrics.DBOpUpsertSite)
	defer func() { done(err) }()

	query := `
		INSERT INTO sites (id, name, domain, source_org, source_repo, source_url)
		VALUES (:id, :name, :domain, :source_org, :source_repo, :source_url)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			domain = COALESCE(excluded.domain, sites.domain),
			source_org = COALESCE(excluded.source_org, sites.source_org),
			source_repo = COALESCE(excluded.source_repo, sites.source_repo),
			source_url = COALESCE(excluded.source_url, sites.source_url)
	`

	if _, err = db.conn.NamedExecContext(ctx, query, site); err != nil {
		return fmt.Errorf("failed to upsert site %s: %w", site.ID, err)
	}
	return nil
}

// GetSite returns a site with live stats, or nil if it does not exist
func (db *DB) GetSite(ctx context.Context, id string) (site *SiteStats, err error) {
	done := observe(metrics.DBOpGetSite)
	defer func() { done(err) }()

	var s SiteStats
	err = db.conn.GetContext(ctx, &s, `SELECT `+siteStatsColumns+` FROM sites s WHERE s.id = ?`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get site %s: %w", id, err)
	}
	return &s, nil
}

// ListSites returns all sites ordered by name
func (db *DB) ListSites(ctx context.Context) (sites []SiteStats, err error) {
	done := observe(metrics.DBOpListSites)
	defer func() { done(err) }()

	sites = []SiteStats{}
	if err = db.conn.SelectContext(ctx, &sites, `SELECT `+siteStatsColumns+` FROM sites s ORDER BY s.name`); err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	return sites, nil
}

// RefreshSiteCount recomputes the cached page_count and stamps last_crawled
func (db *DB) RefreshSiteCount(ctx context.Context, id string) (count int, err error) {
	done := observe(metrics.DBOpRefreshSiteCount)
	defer func() { done(err) }()

	if err = db.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM pages WHERE site_id = ?`, id); err != nil {
		return 0, fmt.Errorf("failed to count pages for site %s: %w", id, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`UPDATE sites SET page_count = ?, last_crawled = CURRENT_TIMESTAMP WHERE id = ?`,
		count, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update site %s: %w", id, err)
	}
	return count, nil
}
