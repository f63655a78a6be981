package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"content-ontology/internal/metrics"
)

// PerformanceSample is one day of real-user metrics for a page
type PerformanceSample struct {
	PagePath          string  `db:"page_path" json:"page_path"`
	Date              string  `db:"date" json:"date"`
	Pageviews         int     `db:"pageviews" json:"pageviews"`
	Visits            int     `db:"visits" json:"visits"`
	AvgLCP            float64 `db:"avg_lcp" json:"avg_lcp"`
	AvgCLS            float64 `db:"avg_cls" json:"avg_cls"`
	AvgINP            float64 `db:"avg_inp" json:"avg_inp"`
	BounceRate        float64 `db:"bounce_rate" json:"bounce_rate"`
	AvgEngagementTime float64 `db:"avg_engagement_time" json:"avg_engagement_time"`
	ConversionRate    float64 `db:"conversion_rate" json:"conversion_rate"`
}

// SampleAggregate is the mean of all samples of one page
type SampleAggregate struct {
	PagePath          string  `db:"page_path"`
	Samples           int     `db:"samples"`
	AvgPageviews      float64 `db:"avg_pageviews"`
	AvgLCP            float64 `db:"avg_lcp"`
	AvgCLS            float64 `db:"avg_cls"`
	AvgINP            float64 `db:"avg_inp"`
	AvgBounceRate     float64 `db:"avg_bounce_rate"`
	AvgEngagementTime float64 `db:"avg_engagement_time"`
	AvgConversionRate float64 `db:"avg_conversion_rate"`
}

// PageScore is the derived score row of a page
type PageScore struct {
	PagePath         string  `db:"page_path" json:"page_path"`
	PerformanceScore float64 `db:"performance_score" json:"performance_score"`
	EngagementScore  float64 `db:"engagement_score" json:"engagement_score"`
	ConversionScore  float64 `db:"conversion_score" json:"conversion_score"`
	OverallScore     float64 `db:"overall_score" json:"overall_score"`
	LastCalculated   string  `db:"last_calculated" json:"last_calculated"`
}

// UpsertPerformanceSamples stores samples, replacing any existing sample
// for the same (page, date)
func (db *DB) UpsertPerformanceSamples(ctx context.Context, samples []PerformanceSample) (stored int, err error) {
	done := observe(metrics.DBOpUpsertSample)
	defer func() { done(err) }()

	query := `
		INSERT INTO page_performance
			(page_path, date, pageviews, visits, avg_lcp, avg_cls, avg_inp,
			 bounce_rate, avg_engagement_time, conversion_rate)
		VALUES
			(:page_path, :date, :pageviews, :visits, :avg_lcp, :avg_cls, :avg_inp,
			 :bounce_rate, :avg_engagement_time, :conversion_rate)
		ON CONFLICT(page_path, date) DO UPDATE SET
			pageviews = excluded.pageviews,
			visits = excluded.visits,
			avg_lcp = excluded.avg_lcp,
			avg_cls = excluded.avg_cls,
			avg_inp = excluded.avg_inp,
			bounce_rate = excluded.bounce_rate,
			avg_engagement_time = excluded.avg_engagement_time,
			conversion_rate = excluded.conversion_rate
	`

	err = db.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range samples {
			if _, err := tx.NamedExecContext(ctx, query, &samples[i]); err != nil {
				return fmt.Errorf("failed to store sample %s %s: %w", samples[i].PagePath, samples[i].Date, err)
			}
			stored++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

// SampleAggregates averages the samples of every page that has any.
// Pages without samples produce no row.
func (db *DB) SampleAggregates(ctx context.Context) (aggs []SampleAggregate, err error) {
	done := observe(metrics.DBOpSampleAggregates)
	defer func() { done(err) }()

	aggs = []SampleAggregate{}
	err = db.conn.SelectContext(ctx, &aggs, `
		SELECT
			page_path,
			COUNT(*) AS samples,
			AVG(pageviews) AS avg_pageviews,
			AVG(avg_lcp) AS avg_lcp,
			AVG(avg_cls) AS avg_cls,
			AVG(avg_inp) AS avg_inp,
			AVG(bounce_rate) AS avg_bounce_rate,
			AVG(avg_engagement_time) AS avg_engagement_time,
			AVG(conversion_rate) AS avg_conversion_rate
		FROM page_performance
		GROUP BY page_path
		ORDER BY page_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate performance samples: %w", err)
	}
	return aggs, nil
}

// ReplaceScores replaces the score row of every page in scores.
// Rows of pages absent from scores are left alone.
func (db *DB) ReplaceScores(ctx context.Context, scores []PageScore) (err error) {
	done := observe(metrics.DBOpReplaceScores)
	defer func() { done(err) }()

	query := `
		INSERT OR REPLACE INTO page_scores
			(page_path, performance_score, engagement_score, conversion_score, overall_score, last_calculated)
		VALUES
			(:page_path, :performance_score, :engagement_score, :conversion_score, :overall_score, CURRENT_TIMESTAMP)
	`

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range scores {
			if _, err := tx.NamedExecContext(ctx, query, &scores[i]); err != nil {
				return fmt.Errorf("failed to store score for %s: %w", scores[i].PagePath, err)
			}
		}
		return nil
	})
}

// PageSampleLimit caps the sample history returned for one page
const PageSampleLimit = 30

// PageSamples returns the most recent samples of a page, newest first
func (db *DB) PageSamples(ctx context.Context, path string) (samples []PerformanceSample, err error) {
	done := observe(metrics.DBOpPageSamples)
	defer func() { done(err) }()

	samples = []PerformanceSample{}
	err = db.conn.SelectContext(ctx, &samples, `
		SELECT page_path, date, pageviews, visits, avg_lcp, avg_cls, avg_inp,
			bounce_rate, avg_engagement_time, conversion_rate
		FROM page_performance
		WHERE page_path = ?
		ORDER BY date DESC
		LIMIT ?`, path, PageSampleLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples for %s: %w", path, err)
	}
	return samples, nil
}

// GetPageScore returns the score row of a page, or nil if it has none
func (db *DB) GetPageScore(ctx context.Context, path string) (score *PageScore, err error) {
	done := observe(metrics.DBOpGetPageScore)
	defer func() { done(err) }()

	var s PageScore
	err = db.conn.GetContext(ctx, &s, `
		SELECT page_path, performance_score, engagement_score, conversion_score,
			overall_score, last_calculated
		FROM page_scores WHERE page_path = ?`, path)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get score for %s: %w", path, err)
	}
	return &s, nil
}

// SegmentPerformance is the average score of one content type and stage
type SegmentPerformance struct {
	ContentType    *string  `db:"content_type" json:"content_type"`
	FunnelStage    *string  `db:"funnel_stage" json:"funnel_stage"`
	PageCount      int      `db:"page_count" json:"page_count"`
	AvgScore       *float64 `db:"avg_score" json:"avg_score"`
	AvgPerformance *float64 `db:"avg_performance" json:"avg_performance"`
	AvgEngagement  *float64 `db:"avg_engagement" json:"avg_engagement"`
	AvgConversion  *float64 `db:"avg_conversion" json:"avg_conversion"`
}

// PerformanceOverview averages scores per content type and funnel stage.
// Segments with no scored pages report nil averages.
func (db *DB) PerformanceOverview(ctx context.Context) (rows []SegmentPerformance, err error) {
	done := observe(metrics.DBOpPerformanceOverview)
	defer func() { done(err) }()

	rows = []SegmentPerformance{}
	err = db.conn.SelectContext(ctx, &rows, `
		SELECT
			p.content_type,
			p.funnel_stage,
			COUNT(DISTINCT p.path) AS page_count,
			AVG(ps.overall_score) AS avg_score,
			AVG(ps.performance_score) AS avg_performance,
			AVG(ps.engagement_score) AS avg_engagement,
			AVG(ps.conversion_score) AS avg_conversion
		FROM pages p
		LEFT JOIN page_scores ps ON p.path = ps.page_path
		GROUP BY p.content_type, p.funnel_stage
		ORDER BY p.content_type, p.funnel_stage`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute performance overview: %w", err)
	}
	return rows, nil
}

// ScoredPage is a page joined with its score row
type ScoredPage struct {
	Path             string  `db:"path" json:"path"`
	Title            *string `db:"title" json:"title"`
	PrimaryTopic     *string `db:"primary_topic" json:"primary_topic"`
	FunnelStage      *string `db:"funnel_stage" json:"funnel_stage"`
	ContentType      *string `db:"content_type" json:"content_type"`
	OverallScore     float64 `db:"overall_score" json:"overall_score"`
	PerformanceScore float64 `db:"performance_score" json:"performance_score"`
	EngagementScore  float64 `db:"engagement_score" json:"engagement_score"`
	ConversionScore  float64 `db:"conversion_score" json:"conversion_score"`
}

// scoreColumns maps ranking metrics to score columns. Column names are
// never taken from callers.
var scoreColumns = map[string]string{
	"overall":     "overall_score",
	"performance": "performance_score",
	"engagement":  "engagement_score",
	"conversion":  "conversion_score",
}

// IsScoreMetric reports whether metric can rank pages
func IsScoreMetric(metric string) bool {
	_, ok := scoreColumns[metric]
	return ok
}

// RankedPages returns scored pages ordered by metric, best first unless
// ascending is set. Ties are broken by path.
func (db *DB) RankedPages(ctx context.Context, metric string, ascending bool, limit int) (pages []ScoredPage, err error) {
	done := observe(metrics.DBOpRankedPages)
	defer func() { done(err) }()

	column, ok := scoreColumns[metric]
	if !ok {
		return nil, fmt.Errorf("unknown score metric %q", metric)
	}
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT
			p.path, p.title, p.primary_topic, p.funnel_stage, p.content_type,
			ps.overall_score, ps.performance_score, ps.engagement_score, ps.conversion_score
		FROM pages p
		JOIN page_scores ps ON p.path = ps.page_path
		ORDER BY ps.%s %s, p.path
		LIMIT ?`, column, direction)

	pages = []ScoredPage{}
	if err = db.conn.SelectContext(ctx, &pages, query, limit); err != nil {
		return nil, fmt.Errorf("failed to rank pages by %s: %w", metric, err)
	}
	return pages, nil
}
