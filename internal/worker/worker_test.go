package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"content-ontology/internal/config"
	"content-ontology/internal/database"
)

func setupWorkerTest(t *testing.T, interval time.Duration) (*Worker, *database.DB) {
	t.Helper()
	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewWorker(db, &config.Config{ScoringInterval: interval}), db
}

func seedPage(t *testing.T, db *database.DB, path, contentType, topic, stage string) {
	t.Helper()
	ctx := context.Background()
	if err := db.UpsertCrawledPage(ctx, &database.CrawledPage{Path: path, Title: path}); err != nil {
		t.Fatalf("Failed to upsert page: %v", err)
	}
	err := db.StoreAnalysis(ctx, path, &database.Analysis{
		ContentType:  contentType,
		PrimaryTopic: topic,
		FunnelStage:  stage,
	})
	if err != nil {
		t.Fatalf("Failed to store analysis: %v", err)
	}
}

func TestRunOnce(t *testing.T) {
	w, db := setupWorkerTest(t, time.Hour)
	ctx := context.Background()

	seedPage(t, db, "/adventures/ski", "adventure", "skiing", "decision")
	seedPage(t, db, "/magazine/skiing", "article", "skiing", "awareness")
	seedPage(t, db, "/magazine/surfing", "article", "surfing", "awareness")

	// Good vitals, low bounce, long engagement, 10% conversion
	good := database.PerformanceSample{
		PagePath: "/adventures/ski", Date: "2026-03-01",
		AvgLCP: 2000, AvgCLS: 0.05, AvgINP: 150,
		BounceRate: 0.2, AvgEngagementTime: 300, ConversionRate: 0.1,
	}
	// Poor vitals everywhere
	poor := database.PerformanceSample{
		PagePath: "/magazine/skiing", Date: "2026-03-01",
		AvgLCP: 5000, AvgCLS: 0.3, AvgINP: 600,
		BounceRate: 1, AvgEngagementTime: 0, ConversionRate: 0,
	}
	if _, err := db.UpsertPerformanceSamples(ctx, []database.PerformanceSample{good, poor}); err != nil {
		t.Fatalf("Failed to store samples: %v", err)
	}

	result, err := w.RunOnce(ctx)
	if err != nil {
		t.Fatalf("Failed to run scoring: %v", err)
	}

	if result.PagesScored != 2 {
		t.Errorf("Expected 2 pages scored, got %d", result.PagesScored)
	}

	ski, err := db.GetPageScore(ctx, "/adventures/ski")
	if err != nil {
		t.Fatalf("Failed to get score: %v", err)
	}
	if ski == nil {
		t.Fatal("Expected score for /adventures/ski")
	}
	if ski.PerformanceScore != 100 {
		t.Errorf("Expected performance 100, got %v", ski.PerformanceScore)
	}
	if ski.ConversionScore != 100 {
		t.Errorf("Expected conversion 100, got %v", ski.ConversionScore)
	}

	skiing, err := db.GetPageScore(ctx, "/magazine/skiing")
	if err != nil {
		t.Fatalf("Failed to get score: %v", err)
	}
	if skiing == nil || skiing.OverallScore != 0 {
		t.Errorf("Expected overall 0 for poor page, got %+v", skiing)
	}

	surf, err := db.GetPageScore(ctx, "/magazine/surfing")
	if err != nil {
		t.Fatalf("Failed to get score: %v", err)
	}
	if surf != nil {
		t.Errorf("Expected no score for page without samples, got %+v", surf)
	}

	patterns, err := db.ListPatterns(ctx, "")
	if err != nil {
		t.Fatalf("Failed to list patterns: %v", err)
	}
	// skiing topic, two content types, two funnel stages
	if len(patterns) != 5 || result.Patterns != 5 {
		t.Errorf("Expected 5 patterns, got %d (result %d)", len(patterns), result.Patterns)
	}

	topics, err := db.ListPatterns(ctx, database.PatternTopic)
	if err != nil {
		t.Fatalf("Failed to list patterns: %v", err)
	}
	if len(topics) != 1 || topics[0].PatternValue == nil || *topics[0].PatternValue != "skiing" || topics[0].SampleSize != 2 {
		t.Errorf("Unexpected topic patterns: %+v", topics)
	}
}

func TestRunOnceEmpty(t *testing.T) {
	w, _ := setupWorkerTest(t, time.Hour)

	result, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Failed to run scoring: %v", err)
	}
	if result.PagesScored != 0 || result.Patterns != 0 {
		t.Errorf("Expected empty run, got %+v", result)
	}
}

func TestStart_Cancellation(t *testing.T) {
	w, _ := setupWorkerTest(t, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	time.Sleep(120 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not stop after cancellation")
	}
}

func TestStart_InvalidInterval(t *testing.T) {
	w, _ := setupWorkerTest(t, 0)
	if err := w.Start(context.Background()); err == nil {
		t.Error("Expected error for zero interval")
	}
}
