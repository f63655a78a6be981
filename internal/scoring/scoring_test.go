package scoring

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSubScore(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		t     Threshold
		want  float64
	}{
		{"latency at good", 2500, LatencyThreshold, 100},
		{"latency better than good", 1200, LatencyThreshold, 100},
		{"latency at poor", 4000, LatencyThreshold, 0},
		{"latency worse than poor", 9000, LatencyThreshold, 0},
		{"latency midpoint", 3250, LatencyThreshold, 50},
		{"stability at good", 0.1, StabilityThreshold, 100},
		{"stability at poor", 0.25, StabilityThreshold, 0},
		{"interactivity midpoint", 350, InteractivityThreshold, 50},
		{"interactivity at poor", 500, InteractivityThreshold, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubScore(tt.value, tt.t)
			if !almostEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPerformance(t *testing.T) {
	t.Run("all metrics at good thresholds", func(t *testing.T) {
		if got := Performance(2500, 0.10, 200); !almostEqual(got, 100) {
			t.Errorf("Expected 100, got %v", got)
		}
	})

	t.Run("poor latency zeroes its sub-score", func(t *testing.T) {
		got := Performance(4000, 0.10, 200)
		if !almostEqual(got, 200.0/3) {
			t.Errorf("Expected %v, got %v", 200.0/3, got)
		}
	})

	t.Run("stays within bounds", func(t *testing.T) {
		for _, lcp := range []float64{0, 2600, 3999, 10000} {
			got := Performance(lcp, 0.3, 800)
			if got < 0 || got > 100 {
				t.Errorf("Performance(%v) out of bounds: %v", lcp, got)
			}
		}
	})
}

func TestEngagement(t *testing.T) {
	tests := []struct {
		name       string
		bounce     float64
		engagement float64
		want       float64
	}{
		{"no bounce long visits", 0, 400, 100},
		{"half bounce", 0.5, 100, 50},
		{"time capped at 100", 0.2, 1000, 90},
		{"all bounce no time", 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Engagement(tt.bounce, tt.engagement)
			if !almostEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestConversionIsNotClamped(t *testing.T) {
	if got := Conversion(0.15); !almostEqual(got, 150) {
		t.Errorf("Expected 150, got %v", got)
	}
	if got := Conversion(0.02); !almostEqual(got, 20) {
		t.Errorf("Expected 20, got %v", got)
	}
}

func TestCalculate(t *testing.T) {
	m := Metrics{
		LCP:            2500,
		CLS:            0.1,
		INP:            200,
		BounceRate:     0.5,
		EngagementTime: 100,
		ConversionRate: 0.05,
	}

	s := Calculate(m)
	if !almostEqual(s.Performance, 100) {
		t.Errorf("Expected performance 100, got %v", s.Performance)
	}
	if !almostEqual(s.Engagement, 50) {
		t.Errorf("Expected engagement 50, got %v", s.Engagement)
	}
	if !almostEqual(s.Conversion, 50) {
		t.Errorf("Expected conversion 50, got %v", s.Conversion)
	}
	// 0.3*100 + 0.4*50 + 0.3*50
	if !almostEqual(s.Overall, 65) {
		t.Errorf("Expected overall 65, got %v", s.Overall)
	}

	if again := Calculate(m); again != s {
		t.Errorf("Expected identical scores on recompute, got %+v and %+v", s, again)
	}
}

func TestInsights(t *testing.T) {
	if got := TopicInsight(71); got != "High-performing topic - replicate patterns" {
		t.Errorf("Unexpected high insight: %s", got)
	}
	if got := TopicInsight(39.9); got != "Underperforming topic - needs optimization" {
		t.Errorf("Unexpected low insight: %s", got)
	}
	if got := TopicInsight(70); got != "Average performance - room for improvement" {
		t.Errorf("Unexpected average insight: %s", got)
	}
	if got := ContentTypeInsight("adventure", 64.6); got != "adventure content averages 65 score" {
		t.Errorf("Unexpected content type insight: %s", got)
	}
	if got := FunnelStageInsight("decision", 55.2, 120.4); got != "decision stage: 55 overall, 120 conversion" {
		t.Errorf("Unexpected funnel stage insight: %s", got)
	}
}
