package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"content-ontology/internal/config"
	"content-ontology/internal/database"
	"content-ontology/internal/metrics"
	"content-ontology/internal/scoring"
)

// Worker periodically recomputes page scores and performance patterns
type Worker struct {
	db       *database.DB
	config   *config.Config
	logger   *slog.Logger
	interval time.Duration
}

// RunResult summarizes one scoring run
type RunResult struct {
	PagesScored int
	Patterns    int
	Duration    time.Duration
}

// NewWorker creates a new scoring worker
func NewWorker(db *database.DB, cfg *config.Config) *Worker {
	return &Worker{
		db:       db,
		config:   cfg,
		logger:   slog.Default(),
		interval: cfg.ScoringInterval,
	}
}

// Start runs a scoring pass immediately and then once per interval until
// ctx is cancelled. A failed pass is logged and retried on the next tick.
func (w *Worker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("scoring interval must be positive, got %s", w.interval)
	}

	w.logger.Info("Starting scoring worker", "interval", w.interval)
	metrics.WorkerActive.Set(1)
	defer metrics.WorkerActive.Set(0)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Stopping scoring worker")
				return ctx.Err()
			}
			w.logger.Error("Scoring run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			w.logger.Info("Stopping scoring worker")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce recomputes the score row of every page with performance samples,
// then replaces all performance patterns
func (w *Worker) RunOnce(ctx context.Context) (*RunResult, error) {
	start := time.Now()

	result, err := w.run(ctx)
	duration := time.Since(start)
	metrics.ScoringRunDuration.Observe(duration.Seconds())

	if err != nil {
		metrics.ScoringRunsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, err
	}

	result.Duration = duration
	metrics.ScoringRunsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.ScoringPagesScored.Observe(float64(result.PagesScored))

	w.logger.Info("Scoring run completed",
		"pages_scored", result.PagesScored,
		"patterns", result.Patterns,
		"duration", duration)

	return result, nil
}

func (w *Worker) run(ctx context.Context) (*RunResult, error) {
	aggs, err := w.db.SampleAggregates(ctx)
	if err != nil {
		return nil, err
	}

	scores := make([]database.PageScore, 0, len(aggs))
	for _, a := range aggs {
		if a.Samples == 0 {
			continue
		}
		s := scoring.Calculate(scoring.Metrics{
			LCP:            a.AvgLCP,
			CLS:            a.AvgCLS,
			INP:            a.AvgINP,
			BounceRate:     a.AvgBounceRate,
			EngagementTime: a.AvgEngagementTime,
			ConversionRate: a.AvgConversionRate,
		})
		if s.Conversion > 100 {
			w.logger.Debug("Conversion score above 100", "path", a.PagePath, "conversion_score", s.Conversion)
		}
		scores = append(scores, database.PageScore{
			PagePath:         a.PagePath,
			PerformanceScore: s.Performance,
			EngagementScore:  s.Engagement,
			ConversionScore:  s.Conversion,
			OverallScore:     s.Overall,
		})
	}

	if err := w.db.ReplaceScores(ctx, scores); err != nil {
		return nil, err
	}

	patterns, err := w.buildPatterns(ctx)
	if err != nil {
		return nil, err
	}

	if err := w.db.ReplacePatterns(ctx, patterns); err != nil {
		return nil, err
	}

	return &RunResult{PagesScored: len(scores), Patterns: len(patterns)}, nil
}

// buildPatterns derives topic, content type and funnel stage patterns from
// the freshly stored scores
func (w *Worker) buildPatterns(ctx context.Context) ([]database.PerformancePattern, error) {
	var patterns []database.PerformancePattern

	for _, patternType := range []string{
		database.PatternTopic,
		database.PatternContentType,
		database.PatternFunnelStage,
	} {
		rows, err := w.db.DimensionScores(ctx, patternType)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			value := "unclassified"
			if row.Value != nil {
				value = *row.Value
			}

			var insight string
			switch patternType {
			case database.PatternTopic:
				insight = scoring.TopicInsight(row.AvgScore)
			case database.PatternContentType:
				insight = scoring.ContentTypeInsight(value, row.AvgScore)
			case database.PatternFunnelStage:
				insight = scoring.FunnelStageInsight(value, row.AvgScore, row.AvgConversion)
			}

			patterns = append(patterns, database.PerformancePattern{
				PatternType:    patternType,
				PatternValue:   row.Value,
				AvgPerformance: row.AvgScore,
				SampleSize:     row.PageCount,
				Insight:        insight,
			})
		}
	}

	return patterns, nil
}
