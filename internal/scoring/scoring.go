// Package scoring converts aggregated real-user metrics into 0-100 scores.
//
// All functions are pure: identical inputs always produce identical scores.
package scoring

import (
	"fmt"
	"math"
)

// Thresholds between which a metric's sub-score falls linearly from 100
// (at Good or better) to 0 (at Poor or worse)
type Threshold struct {
	Good float64
	Poor float64
}

var (
	// LatencyThreshold applies to largest contentful paint in milliseconds
	LatencyThreshold = Threshold{Good: 2500, Poor: 4000}
	// StabilityThreshold applies to cumulative layout shift
	StabilityThreshold = Threshold{Good: 0.1, Poor: 0.25}
	// InteractivityThreshold applies to interaction to next paint in milliseconds
	InteractivityThreshold = Threshold{Good: 200, Poor: 500}
)

// Overall score weights
const (
	PerformanceWeight = 0.3
	EngagementWeight  = 0.4
	ConversionWeight  = 0.3
)

// ConversionScale multiplies a conversion rate into a conversion score.
// The result is not capped at 100.
const ConversionScale = 1000

// Metrics are the averaged sample values of one page
type Metrics struct {
	LCP            float64
	CLS            float64
	INP            float64
	BounceRate     float64
	EngagementTime float64
	ConversionRate float64
}

// Scores are the derived scores of one page
type Scores struct {
	Performance float64
	Engagement  float64
	Conversion  float64
	Overall     float64
}

// SubScore interpolates value between t.Good (100) and t.Poor (0),
// clamped to [0,100]
func SubScore(value float64, t Threshold) float64 {
	if value <= t.Good {
		return 100
	}
	if value >= t.Poor {
		return 0
	}
	return 100 * (t.Poor - value) / (t.Poor - t.Good)
}

// Performance averages the latency, stability and interactivity sub-scores
func Performance(lcp, cls, inp float64) float64 {
	return (SubScore(lcp, LatencyThreshold) +
		SubScore(cls, StabilityThreshold) +
		SubScore(inp, InteractivityThreshold)) / 3
}

// Engagement averages the non-bounce percentage with engagement time,
// where 200 seconds or more counts as 100
func Engagement(bounceRate, engagementTime float64) float64 {
	bounceScore := (1 - bounceRate) * 100
	timeScore := math.Min(100, engagementTime/2)
	return (bounceScore + timeScore) / 2
}

// Conversion scales a conversion rate. A rate above 0.1 scores over 100.
func Conversion(rate float64) float64 {
	return rate * ConversionScale
}

// Overall is the weighted composite of the three component scores
func Overall(performance, engagement, conversion float64) float64 {
	return PerformanceWeight*performance + EngagementWeight*engagement + ConversionWeight*conversion
}

// Calculate derives all scores for one page
func Calculate(m Metrics) Scores {
	s := Scores{
		Performance: Performance(m.LCP, m.CLS, m.INP),
		Engagement:  Engagement(m.BounceRate, m.EngagementTime),
		Conversion:  Conversion(m.ConversionRate),
	}
	s.Overall = Overall(s.Performance, s.Engagement, s.Conversion)
	return s
}

// TopicInsight describes a topic by its average overall score
func TopicInsight(avgScore float64) string {
	switch {
	case avgScore > 70:
		return "High-performing topic - replicate patterns"
	case avgScore < 40:
		return "Underperforming topic - needs optimization"
	default:
		return "Average performance - room for improvement"
	}
}

// ContentTypeInsight describes a content type by its average overall score
func ContentTypeInsight(contentType string, avgScore float64) string {
	return fmt.Sprintf("%s content averages %d score", contentType, int(math.Round(avgScore)))
}

// FunnelStageInsight describes a funnel stage by its average overall and
// conversion scores
func FunnelStageInsight(stage string, avgScore, avgConversion float64) string {
	return fmt.Sprintf("%s stage: %d overall, %d conversion",
		stage, int(math.Round(avgScore)), int(math.Round(avgConversion)))
}
