package rum

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
}

func TestBaselineFor(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		stage       string
		wantLCP     float64
	}{
		{"known segment", "adventure", "decision", 2000},
		{"unknown type uses article", "podcast", "awareness", 1800},
		{"unknown stage uses consideration", "landing", "", 1800},
		{"both unknown", "", "", 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaselineFor(tt.contentType, tt.stage).LCP; got != tt.wantLCP {
				t.Errorf("Expected LCP %v, got %v", tt.wantLCP, got)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	sim := NewSimulator(42, fixedNow)
	pages := []Page{
		{Path: "/adventures/ski", ContentType: "adventure", FunnelStage: "consideration"},
		{Path: "/faq"},
	}

	samples := sim.Generate(pages, 3)
	if len(samples) != 6 {
		t.Fatalf("Expected 6 samples, got %d", len(samples))
	}

	if samples[0].Date != "2026-03-10" || samples[2].Date != "2026-03-08" {
		t.Errorf("Expected dates counting back from today, got %s and %s", samples[0].Date, samples[2].Date)
	}

	base := BaselineFor("adventure", "consideration")
	for _, s := range samples[:3] {
		if s.AvgLCP < base.LCP*0.8-1 || s.AvgLCP > base.LCP*1.2+1 {
			t.Errorf("LCP %v outside variance of %v", s.AvgLCP, base.LCP)
		}
		if s.BounceRate < 0 || s.BounceRate > 1 {
			t.Errorf("Bounce rate %v outside [0, 1]", s.BounceRate)
		}
		if s.ConversionRate < 0 || s.ConversionRate > 1 {
			t.Errorf("Conversion rate %v outside [0, 1]", s.ConversionRate)
		}
	}

	again := NewSimulator(42, fixedNow).Generate(pages, 3)
	for i := range samples {
		if samples[i] != again[i] {
			t.Fatalf("Expected identical samples for identical seeds at %d", i)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Valid", func(t *testing.T) {
		path := filepath.Join(dir, "valid.json")
		data := `[{"page_path":"/a","date":"2026-01-01","pageviews":10,"visits":8,"avg_lcp":2100,"avg_cls":0.05,"avg_inp":120,"bounce_rate":0.4,"avg_engagement_time":90,"conversion_rate":0.02}]`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		samples, err := LoadFile(path)
		if err != nil {
			t.Fatalf("Failed to load file: %v", err)
		}
		if len(samples) != 1 || samples[0].AvgLCP != 2100 {
			t.Errorf("Unexpected samples: %+v", samples)
		}
	})

	t.Run("InvalidDate", func(t *testing.T) {
		path := filepath.Join(dir, "bad-date.json")
		if err := os.WriteFile(path, []byte(`[{"page_path":"/a","date":"yesterday"}]`), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Error("Expected error for invalid date")
		}
	})

	t.Run("MissingPath", func(t *testing.T) {
		path := filepath.Join(dir, "no-path.json")
		if err := os.WriteFile(path, []byte(`[{"date":"2026-01-01"}]`), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Error("Expected error for missing page_path")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(dir, "nope.json")); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}
