// Package crawler fills the page store by crawling a published site.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"content-ontology/internal/database"
	"content-ontology/internal/metrics"
)

// skipFragments marks fragment documents and dot-paths that are not pages
var skipFragments = []string{"/nav", "/footer", "/header", "/."}

// ShouldSkip reports whether path is a fragment rather than a page
func ShouldSkip(path string) bool {
	for _, s := range skipFragments {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}

// Options tune the crawl
type Options struct {
	Delay     time.Duration
	MaxDepth  int
	UserAgent string
}

// Result summarizes one crawl
type Result struct {
	CrawlID int64
	SiteID  string
	Pages   int
	Skipped int
	Errors  []string
}

// Crawler visits every same-host page reachable from a seed URL and stores
// it with its raw HTML
type Crawler struct {
	db     *database.DB
	opts   Options
	logger *slog.Logger
}

// New creates a crawler
func New(db *database.DB, opts Options) *Crawler {
	if opts.UserAgent == "" {
		opts.UserAgent = "content-ontology-crawler/1.0"
	}
	return &Crawler{db: db, opts: opts, logger: slog.Default()}
}

// SiteIDForHost derives a site id from a hostname
func SiteIDForHost(host string) string {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return strings.ReplaceAll(host, ".", "-")
}

// Run crawls from seed and records the run in the crawl log. site.ID is
// derived from the seed host when empty. Per-page failures are collected
// in the result; only setup failures are returned as errors.
func (c *Crawler) Run(ctx context.Context, seed string, site database.Site) (*Result, error) {
	seedURL, err := url.Parse(seed)
	if err != nil || seedURL.Hostname() == "" {
		return nil, fmt.Errorf("invalid seed URL %q", seed)
	}
	host := seedURL.Hostname()

	if site.ID == "" {
		site.ID = SiteIDForHost(host)
	}
	if site.Name == "" {
		site.Name = host
	}
	if site.SourceURL == nil {
		site.SourceURL = &seed
	}
	if err := c.db.UpsertSite(ctx, &site); err != nil {
		return nil, err
	}

	crawlID, err := c.db.StartCrawl(ctx, site.ID)
	if err != nil {
		return nil, err
	}

	result := &Result{CrawlID: crawlID, SiteID: site.ID}
	var mu sync.Mutex

	collector := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.MaxDepth(c.opts.MaxDepth),
		colly.UserAgent(c.opts.UserAgent),
	)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       c.opts.Delay,
	}); err != nil {
		return nil, fmt.Errorf("failed to set crawl limits: %w", err)
	}

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		if ShouldSkip(r.URL.Path) {
			c.logger.Debug("Skipping fragment", "path", r.URL.Path)
			metrics.CrawlPagesTotal.WithLabelValues(metrics.CrawlSkipped).Inc()
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			r.Abort()
		}
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		path := e.Request.URL.Path
		if path == "" {
			path = "/"
		}

		title := strings.TrimSpace(e.DOM.Find("h1").First().Text())
		if title == "" {
			title = strings.TrimSpace(e.ChildText("title"))
		}

		page := &database.CrawledPage{
			Path:    path,
			SiteID:  &site.ID,
			Title:   title,
			RawHTML: string(e.Response.Body),
			LiveURL: e.Request.URL.String(),
		}

		mu.Lock()
		defer mu.Unlock()
		if err := c.db.UpsertCrawledPage(ctx, page); err != nil {
			c.logger.Error("Failed to store page", "path", path, "error", err)
			metrics.CrawlPagesTotal.WithLabelValues(metrics.CrawlFailed).Inc()
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			return
		}
		c.logger.Info("Crawled page", "path", path, "title", title)
		metrics.CrawlPagesTotal.WithLabelValues(metrics.CrawlFetched).Inc()
		result.Pages++
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		// Already-visited and off-host links are rejected by the collector
		_ = e.Request.Visit(e.Attr("href"))
	})

	collector.OnError(func(r *colly.Response, err error) {
		metrics.CrawlPagesTotal.WithLabelValues(metrics.CrawlFailed).Inc()
		target := ""
		if r != nil && r.Request != nil {
			target = r.Request.URL.String()
		}
		c.logger.Warn("Failed to fetch page", "url", target, "error", err)
		mu.Lock()
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", target, err))
		mu.Unlock()
	})

	c.logger.Info("Starting crawl", "seed", seed, "site_id", site.ID, "crawl_id", crawlID)

	crawlErr := collector.Visit(seedURL.String())
	collector.Wait()

	if crawlErr == nil && ctx.Err() != nil {
		crawlErr = ctx.Err()
	}

	// The crawl log is closed even when ctx was cancelled
	finishCtx := context.WithoutCancel(ctx)
	if err := c.db.FinishCrawl(finishCtx, crawlID, result.Pages, result.Errors, crawlErr); err != nil {
		return result, err
	}
	if _, err := c.db.RefreshSiteCount(finishCtx, site.ID); err != nil {
		return result, err
	}

	c.logger.Info("Crawl finished",
		"crawl_id", crawlID,
		"pages", result.Pages,
		"skipped", result.Skipped,
		"errors", len(result.Errors))

	if crawlErr != nil {
		return result, fmt.Errorf("crawl of %s failed: %w", seed, crawlErr)
	}
	return result, nil
}
