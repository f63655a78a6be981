// Package analyzer classifies crawled pages with a language model and
// stores the resulting topics, entities, audiences and funnel stage.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"content-ontology/internal/database"
	"content-ontology/internal/metrics"
)

// Completer returns a model reply for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configure an Analyzer
type Options struct {
	BrandName   string
	BrandDomain string
	// Pause between classifier requests
	Pause time.Duration
}

// Result summarizes one analysis run
type Result struct {
	Analyzed int
	Failed   int
	Errors   []string
}

// Analyzer classifies pages that have raw HTML but no classification
type Analyzer struct {
	db        *database.DB
	completer Completer
	opts      Options
	logger    *slog.Logger
}

// New creates an analyzer
func New(db *database.DB, completer Completer, opts Options) *Analyzer {
	return &Analyzer{
		db:        db,
		completer: completer,
		opts:      opts,
		logger:    slog.Default(),
	}
}

// Run classifies up to limit unanalyzed pages (all when limit <= 0). A page
// that fails is counted and left unanalyzed for the next run.
func (a *Analyzer) Run(ctx context.Context, limit int) (*Result, error) {
	pages, err := a.db.ListUnanalyzedPages(ctx, limit)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Analyzing pages", "count", len(pages))

	result := &Result{}
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := a.AnalyzePage(ctx, page); err != nil {
			a.logger.Warn("Failed to analyze page", "path", page.Path, "error", err)
			metrics.AnalyzerPagesTotal.WithLabelValues(metrics.ResultFailure).Inc()
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", page.Path, err))
		} else {
			metrics.AnalyzerPagesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
			result.Analyzed++
		}

		if a.opts.Pause > 0 && i < len(pages)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(a.opts.Pause):
			}
		}
	}

	a.logger.Info("Analysis complete", "analyzed", result.Analyzed, "failed", result.Failed)
	return result, nil
}

// AnalyzePage classifies a single page and stores the result
func (a *Analyzer) AnalyzePage(ctx context.Context, page database.PageContent) error {
	var rawHTML string
	if page.RawHTML != nil {
		rawHTML = *page.RawHTML
	}
	text := ExtractText(rawHTML)

	prompt, err := Prompt(a.opts.BrandName, a.opts.BrandDomain, page.Path, text)
	if err != nil {
		return err
	}

	start := time.Now()
	reply, err := a.completer.Complete(ctx, prompt)
	metrics.AnalyzerRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	c, err := ParseClassification(reply)
	if err != nil {
		return err
	}
	if c.WordCount <= 0 {
		c.WordCount = len(strings.Fields(text))
	}
	if c.Title == "" && page.Title != nil {
		c.Title = *page.Title
	}

	if err := a.db.StoreAnalysis(ctx, page.Path, c.Analysis()); err != nil {
		return err
	}

	a.logger.Info("Analyzed page",
		"path", page.Path,
		"content_type", c.ContentType,
		"primary_topic", c.PrimaryTopic,
		"funnel_stage", c.FunnelStage)
	return nil
}
