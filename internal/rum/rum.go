// Package rum produces real-user monitoring samples for the page store,
// either loaded from an exported JSON file or simulated from per-segment
// baselines when no RUM export is available.
package rum

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"content-ontology/internal/database"
)

// Baseline is the typical daily traffic and vitals of a page segment
type Baseline struct {
	Pageviews      float64
	Visits         float64
	LCP            float64
	CLS            float64
	INP            float64
	BounceRate     float64
	EngagementTime float64
	ConversionRate float64
}

// baselines is keyed by content type, then funnel stage
var baselines = map[string]map[string]Baseline{
	"adventure": {
		"awareness":     {50, 40, 2200, 0.05, 120, 0.45, 90, 0.02},
		"consideration": {80, 65, 2400, 0.08, 150, 0.35, 180, 0.08},
		"decision":      {30, 25, 2000, 0.03, 100, 0.25, 240, 0.15},
	},
	"article": {
		"awareness":     {120, 100, 1800, 0.04, 80, 0.55, 120, 0.01},
		"consideration": {60, 50, 2000, 0.05, 100, 0.40, 150, 0.03},
		"decision":      {20, 15, 1900, 0.04, 90, 0.30, 200, 0.10},
	},
	"listing": {
		"awareness":     {150, 120, 2100, 0.06, 110, 0.50, 60, 0.05},
		"consideration": {100, 80, 2200, 0.07, 130, 0.40, 90, 0.08},
		"decision":      {40, 30, 2000, 0.05, 100, 0.30, 120, 0.12},
	},
	"landing": {
		"awareness":     {200, 150, 1600, 0.03, 70, 0.60, 45, 0.03},
		"consideration": {80, 60, 1800, 0.04, 90, 0.45, 75, 0.06},
		"decision":      {30, 25, 1700, 0.03, 80, 0.35, 100, 0.10},
	},
	"support": {
		"awareness":     {40, 35, 1500, 0.02, 60, 0.30, 180, 0.01},
		"consideration": {30, 25, 1600, 0.03, 70, 0.25, 200, 0.02},
		"decision":      {50, 45, 1400, 0.02, 50, 0.20, 240, 0.05},
	},
}

// BaselineFor returns the baseline of a segment. Unknown content types use
// article baselines and unknown stages use consideration.
func BaselineFor(contentType, funnelStage string) Baseline {
	stages, ok := baselines[contentType]
	if !ok {
		stages = baselines["article"]
	}
	b, ok := stages[funnelStage]
	if !ok {
		b = stages["consideration"]
	}
	return b
}

// Page is the classification a simulated sample is derived from
type Page struct {
	Path        string
	ContentType string
	FunnelStage string
}

// Simulator generates plausible samples around segment baselines
type Simulator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewSimulator creates a simulator. The same seed yields the same samples
// for the same pages and day.
func NewSimulator(seed uint64, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now,
	}
}

// variance is a multiplier in [0.8, 1.2)
func (s *Simulator) variance() float64 {
	return 0.8 + s.rng.Float64()*0.4
}

// Generate returns one sample per page per day for the last days days,
// today included
func (s *Simulator) Generate(pages []Page, days int) []database.PerformanceSample {
	today := s.now().UTC()
	samples := make([]database.PerformanceSample, 0, len(pages)*days)

	for _, p := range pages {
		b := BaselineFor(p.ContentType, p.FunnelStage)
		for i := 0; i < days; i++ {
			samples = append(samples, database.PerformanceSample{
				PagePath:          p.Path,
				Date:              today.AddDate(0, 0, -i).Format(time.DateOnly),
				Pageviews:         int(b.Pageviews * s.variance()),
				Visits:            int(b.Visits * s.variance()),
				AvgLCP:            math.Round(b.LCP * s.variance()),
				AvgCLS:            math.Round(b.CLS*s.variance()*100) / 100,
				AvgINP:            math.Round(b.INP * s.variance()),
				BounceRate:        clampUnit(b.BounceRate * s.variance()),
				AvgEngagementTime: math.Round(b.EngagementTime * s.variance()),
				ConversionRate:    clampUnit(b.ConversionRate * s.variance()),
			})
		}
	}
	return samples
}

func clampUnit(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// PagesFromSummaries converts inventory rows into simulator input
func PagesFromSummaries(rows []database.PageSummary) []Page {
	pages := make([]Page, 0, len(rows))
	for _, r := range rows {
		p := Page{Path: r.Path}
		if r.ContentType != nil {
			p.ContentType = *r.ContentType
		}
		if r.FunnelStage != nil {
			p.FunnelStage = *r.FunnelStage
		}
		pages = append(pages, p)
	}
	return pages
}

// LoadFile reads a JSON array of samples as exported from a RUM source
func LoadFile(path string) ([]database.PerformanceSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read RUM export: %w", err)
	}

	var samples []database.PerformanceSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse RUM export: %w", err)
	}

	for i, s := range samples {
		if s.PagePath == "" || s.Date == "" {
			return nil, fmt.Errorf("sample %d: page_path and date are required", i)
		}
		if _, err := time.Parse(time.DateOnly, s.Date); err != nil {
			return nil, fmt.Errorf("sample %d: invalid date %q", i, s.Date)
		}
	}
	return samples, nil
}
