package ontology

import (
	"context"
	"fmt"
	"math"
	"strings"

	"content-ontology/internal/database"
	"content-ontology/internal/scoring"
)

// ScoreSummary is the score row of a page without bookkeeping columns
type ScoreSummary struct {
	Performance float64 `json:"performance"`
	Engagement  float64 `json:"engagement"`
	Conversion  float64 `json:"conversion"`
	Overall     float64 `json:"overall"`
}

// PagePerformanceResult is the performance detail of one page
type PagePerformanceResult struct {
	Page            *database.Page               `json:"page"`
	Performance     []database.PerformanceSample `json:"performance"`
	Scores          *ScoreSummary                `json:"scores"`
	Recommendations []string                     `json:"recommendations"`
}

// PerformanceOverviewResult averages scores per content type and stage
type PerformanceOverviewResult struct {
	Overview []database.SegmentPerformance `json:"overview"`
	Summary  string                        `json:"summary"`
}

// Performance returns page detail when p.Path is set, else the overview
func (s *Service) Performance(ctx context.Context, p PerformanceParams) (interface{}, error) {
	if p.Path != "" {
		return s.PagePerformance(ctx, p)
	}
	return s.PerformanceOverview(ctx)
}

// PagePerformance returns the recent samples, scores and Core Web Vitals
// recommendations of one page
func (s *Service) PagePerformance(ctx context.Context, p PerformanceParams) (*PagePerformanceResult, error) {
	if err := required("path", p.Path); err != nil {
		return nil, err
	}

	page, err := s.db.GetPage(ctx, p.Path)
	if err != nil {
		return nil, upstream("get page", err)
	}
	if page == nil {
		return nil, notFoundf("page not found: %s", p.Path)
	}

	samples, err := s.db.PageSamples(ctx, p.Path)
	if err != nil {
		return nil, upstream("list performance samples", err)
	}

	score, err := s.db.GetPageScore(ctx, p.Path)
	if err != nil {
		return nil, upstream("get page score", err)
	}

	result := &PagePerformanceResult{
		Page:            page,
		Performance:     samples,
		Recommendations: sampleRecommendations(samples),
	}
	if score != nil {
		result.Scores = &ScoreSummary{
			Performance: score.PerformanceScore,
			Engagement:  score.EngagementScore,
			Conversion:  score.ConversionScore,
			Overall:     score.OverallScore,
		}
	}
	return result, nil
}

// sampleRecommendations flags metrics whose recent average misses the
// "good" threshold
func sampleRecommendations(samples []database.PerformanceSample) []string {
	recs := []string{}
	if len(samples) == 0 {
		return recs
	}

	var lcp, cls, inp, bounce, engagement float64
	for _, sm := range samples {
		lcp += sm.AvgLCP
		cls += sm.AvgCLS
		inp += sm.AvgINP
		bounce += sm.BounceRate
		engagement += sm.AvgEngagementTime
	}
	n := float64(len(samples))
	lcp, cls, inp, bounce, engagement = lcp/n, cls/n, inp/n, bounce/n, engagement/n

	if lcp > scoring.LatencyThreshold.Good {
		recs = append(recs, fmt.Sprintf("Improve LCP: average %.0fms exceeds the %.0fms target - optimize hero images and server response time",
			lcp, scoring.LatencyThreshold.Good))
	}
	if cls > scoring.StabilityThreshold.Good {
		recs = append(recs, fmt.Sprintf("Reduce layout shift: average CLS %.2f exceeds %.2f - reserve space for images and embeds",
			cls, scoring.StabilityThreshold.Good))
	}
	if inp > scoring.InteractivityThreshold.Good {
		recs = append(recs, fmt.Sprintf("Improve responsiveness: average INP %.0fms exceeds %.0fms - reduce main-thread JavaScript",
			inp, scoring.InteractivityThreshold.Good))
	}
	if bounce > 0.5 {
		recs = append(recs, fmt.Sprintf("High bounce rate (%.0f%%): strengthen the opening and add clear next steps", bounce*100))
	}
	if engagement < 60 {
		recs = append(recs, fmt.Sprintf("Low engagement time (%.0fs): add richer content and internal links", engagement))
	}
	return recs
}

// PerformanceOverview averages scores per content type and funnel stage
func (s *Service) PerformanceOverview(ctx context.Context) (*PerformanceOverviewResult, error) {
	rows, err := s.db.PerformanceOverview(ctx)
	if err != nil {
		return nil, upstream("compute performance overview", err)
	}
	return &PerformanceOverviewResult{
		Overview: rows,
		Summary:  "Performance overview by content type and funnel stage",
	}, nil
}

// TopPerformersResult ranks pages by one score metric
type TopPerformersResult struct {
	Metric           string                `json:"metric"`
	TopPerformers    []database.ScoredPage `json:"top_performers"`
	NeedsImprovement []database.ScoredPage `json:"needs_improvement"`
	Insights         []string              `json:"insights"`
}

// TopPerformers returns the best and worst scored pages for a metric
func (s *Service) TopPerformers(ctx context.Context, p TopPerformersParams) (*TopPerformersResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Metric == "" {
		p.Metric = DefaultMetric
	}
	if p.Limit <= 0 {
		p.Limit = DefaultTopLimit
	}

	top, err := s.db.RankedPages(ctx, p.Metric, false, p.Limit)
	if err != nil {
		return nil, upstream("rank top pages", err)
	}
	bottom, err := s.db.RankedPages(ctx, p.Metric, true, p.Limit)
	if err != nil {
		return nil, upstream("rank bottom pages", err)
	}

	return &TopPerformersResult{
		Metric:           p.Metric,
		TopPerformers:    top,
		NeedsImprovement: bottom,
		Insights:         PerformanceInsights(top, bottom),
	}, nil
}

// PerformanceInsights compares the topics and content types of the best
// and worst pages
func PerformanceInsights(top, bottom []database.ScoredPage) []string {
	insights := []string{}

	topTopics := distinct(top, func(p database.ScoredPage) *string { return p.PrimaryTopic })
	topTypes := distinct(top, func(p database.ScoredPage) *string { return p.ContentType })

	if len(topTopics) > 0 && len(topTopics) <= 2 {
		insights = append(insights, "Top performers concentrated in: "+strings.Join(topTopics, ", "))
	}
	if len(topTypes) > 0 && len(topTypes) <= 2 {
		insights = append(insights, "Best performing content type: "+strings.Join(topTypes, ", "))
	}

	inTop := make(map[string]bool, len(topTopics))
	for _, t := range topTopics {
		inTop[t] = true
	}
	var needsWork []string
	for _, t := range distinct(bottom, func(p database.ScoredPage) *string { return p.PrimaryTopic }) {
		if !inTop[t] {
			needsWork = append(needsWork, t)
		}
	}
	if len(needsWork) > 0 {
		insights = append(insights, "Topics needing optimization: "+strings.Join(needsWork, ", "))
	}

	return insights
}

// distinct returns the non-nil values of field in first-seen order
func distinct(pages []database.ScoredPage, field func(database.ScoredPage) *string) []string {
	seen := map[string]bool{}
	var values []string
	for _, p := range pages {
		v := field(p)
		if v == nil || seen[*v] {
			continue
		}
		seen[*v] = true
		values = append(values, *v)
	}
	return values
}

// PatternEntry is one stored pattern as returned to callers
type PatternEntry struct {
	Value      *string `json:"value"`
	Score      float64 `json:"score"`
	SampleSize int     `json:"sample_size"`
	Insight    string  `json:"insight"`
}

// PatternsResult groups patterns by type
type PatternsResult struct {
	Patterns        map[string][]PatternEntry `json:"patterns"`
	Recommendations []string                  `json:"recommendations"`
}

// PerformancePatterns returns stored patterns grouped by type, best first
func (s *Service) PerformancePatterns(ctx context.Context, p PatternsParams) (*PatternsResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	patterns, err := s.db.ListPatterns(ctx, p.Type)
	if err != nil {
		return nil, upstream("list patterns", err)
	}

	grouped := map[string][]PatternEntry{}
	for _, pat := range patterns {
		grouped[pat.PatternType] = append(grouped[pat.PatternType], PatternEntry{
			Value:      pat.PatternValue,
			Score:      pat.AvgPerformance,
			SampleSize: pat.SampleSize,
			Insight:    pat.Insight,
		})
	}

	return &PatternsResult{
		Patterns:        grouped,
		Recommendations: PatternRecommendations(grouped),
	}, nil
}

// PatternRecommendations turns grouped patterns into strategy advice.
// Each group must be ordered best first.
func PatternRecommendations(grouped map[string][]PatternEntry) []string {
	recs := []string{}

	if topics := grouped[database.PatternTopic]; len(topics) > 0 {
		if best := topics[0]; best.Score > 70 {
			recs = append(recs, fmt.Sprintf("Replicate content patterns from %s (score: %d)",
				deref(best.Value), int(math.Round(best.Score))))
		}
	}

	if types := grouped[database.PatternContentType]; len(types) > 0 {
		recs = append(recs, fmt.Sprintf("Focus on %s content type for best results", deref(types[0].Value)))
	}

	for _, stage := range grouped[database.PatternFunnelStage] {
		if deref(stage.Value) == StageDecision && stage.Score < 50 {
			recs = append(recs, "Decision-stage content needs optimization for conversions")
			break
		}
	}

	return recs
}
