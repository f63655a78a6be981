package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"content-ontology/internal/metrics"
)

// Pattern types
const (
	PatternTopic       = "topic_performance"
	PatternContentType = "content_type_performance"
	PatternFunnelStage = "funnel_stage_performance"
)

// PerformancePattern is an aggregate insight over a page dimension
type PerformancePattern struct {
	ID             int64   `db:"id" json:"-"`
	PatternType    string  `db:"pattern_type" json:"pattern_type"`
	PatternValue   *string `db:"pattern_value" json:"value"`
	AvgPerformance float64 `db:"avg_performance" json:"score"`
	SampleSize     int     `db:"sample_size" json:"sample_size"`
	Insight        string  `db:"insight" json:"insight"`
	CreatedAt      string  `db:"created_at" json:"-"`
}

// DimensionScore is the average score of scored pages sharing a value
type DimensionScore struct {
	Value         *string `db:"value"`
	AvgScore      float64 `db:"avg_score"`
	AvgConversion float64 `db:"avg_conversion"`
	PageCount     int     `db:"page_count"`
}

// dimensionColumns maps pattern types to the page column they group by
var dimensionColumns = map[string]string{
	PatternTopic:       "primary_topic",
	PatternContentType: "content_type",
	PatternFunnelStage: "funnel_stage",
}

// DimensionScores averages page scores grouped by the column behind
// patternType, best first. Topic grouping skips pages without a topic.
func (db *DB) DimensionScores(ctx context.Context, patternType string) (rows []DimensionScore, err error) {
	done := observe(metrics.DBOpDimensionScores)
	defer func() { done(err) }()

	column, ok := dimensionColumns[patternType]
	if !ok {
		return nil, fmt.Errorf("unknown pattern type %q", patternType)
	}

	where := ""
	if patternType == PatternTopic {
		where = "WHERE p.primary_topic IS NOT NULL"
	}

	query := fmt.Sprintf(`
		SELECT
			p.%[1]s AS value,
			AVG(ps.overall_score) AS avg_score,
			AVG(ps.conversion_score) AS avg_conversion,
			COUNT(*) AS page_count
		FROM pages p
		JOIN page_scores ps ON p.path = ps.page_path
		%[2]s
		GROUP BY p.%[1]s
		ORDER BY avg_score DESC, value`, column, where)

	rows = []DimensionScore{}
	if err = db.conn.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to aggregate scores by %s: %w", column, err)
	}
	return rows, nil
}

// ReplacePatterns deletes every stored pattern and inserts patterns in a
// single transaction
func (db *DB) ReplacePatterns(ctx context.Context, patterns []PerformancePattern) (err error) {
	done := observe(metrics.DBOpReplacePatterns)
	defer func() { done(err) }()

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM performance_patterns`); err != nil {
			return fmt.Errorf("failed to clear patterns: %w", err)
		}

		for i := range patterns {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO performance_patterns (pattern_type, pattern_value, avg_performance, sample_size, insight)
				VALUES (:pattern_type, :pattern_value, :avg_performance, :sample_size, :insight)`,
				&patterns[i])
			if err != nil {
				return fmt.Errorf("failed to store %s pattern: %w", patterns[i].PatternType, err)
			}
		}
		return nil
	})
}

// ListPatterns returns stored patterns by descending score, optionally of
// one type
func (db *DB) ListPatterns(ctx context.Context, patternType string) (patterns []PerformancePattern, err error) {
	done := observe(metrics.DBOpListPatterns)
	defer func() { done(err) }()

	patterns = []PerformancePattern{}
	err = db.conn.SelectContext(ctx, &patterns, `
		SELECT id, pattern_type, pattern_value, avg_performance, sample_size, insight, created_at
		FROM performance_patterns
		WHERE ? = '' OR pattern_type = ?
		ORDER BY avg_performance DESC, id`, patternType, patternType)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	return patterns, nil
}
