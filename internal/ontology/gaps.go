package ontology

import (
	"context"
	"sort"

	"content-ontology/internal/database"
)

// Gap priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// Coverage counts a topic's pages per funnel stage
type Coverage struct {
	Awareness     int `json:"awareness"`
	Consideration int `json:"consideration"`
	Decision      int `json:"decision"`
}

// Gap is a topic lacking pages in at least one funnel stage
type Gap struct {
	Topic          string   `json:"topic"`
	TotalPages     int      `json:"total_pages"`
	Coverage       Coverage `json:"coverage"`
	MissingStages  []string `json:"missing_stages"`
	Priority       string   `json:"priority"`
	Recommendation string   `json:"recommendation"`
}

// GapsResult lists gaps, high priority first
type GapsResult struct {
	Gaps []Gap `json:"gaps"`
}

// missingStages returns the stages with no pages, in funnel order
func missingStages(c Coverage) []string {
	missing := []string{}
	if c.Awareness == 0 {
		missing = append(missing, StageAwareness)
	}
	if c.Consideration == 0 {
		missing = append(missing, StageConsideration)
	}
	if c.Decision == 0 {
		missing = append(missing, StageDecision)
	}
	return missing
}

// priority is high when two or more stages are missing
func priority(missing []string) string {
	if len(missing) >= 2 {
		return PriorityHigh
	}
	return PriorityMedium
}

func (c Coverage) count(stage string) int {
	switch stage {
	case StageAwareness:
		return c.Awareness
	case StageConsideration:
		return c.Consideration
	case StageDecision:
		return c.Decision
	}
	return 0
}

// FindGaps turns per-topic coverage rows into prioritized gaps. With a
// stage set, only topics missing that stage are reported.
func FindGaps(rows []database.TopicCoverage, stage string) []Gap {
	gaps := []Gap{}
	for _, row := range rows {
		c := Coverage{
			Awareness:     row.Awareness,
			Consideration: row.Consideration,
			Decision:      row.Decision,
		}
		missing := missingStages(c)
		if len(missing) == 0 {
			continue
		}
		if stage != "" && c.count(stage) != 0 {
			continue
		}

		gaps = append(gaps, Gap{
			Topic:         row.Topic,
			TotalPages:    row.TotalPages,
			Coverage:      c,
			MissingStages: missing,
			Priority:      priority(missing),
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		pi, pj := gaps[i].Priority == PriorityHigh, gaps[j].Priority == PriorityHigh
		if pi != pj {
			return pi
		}
		if len(gaps[i].MissingStages) != len(gaps[j].MissingStages) {
			return len(gaps[i].MissingStages) > len(gaps[j].MissingStages)
		}
		return gaps[i].Topic < gaps[j].Topic
	})

	return gaps
}

// ContentGaps reports topics missing pages in one or more funnel stages
func (s *Service) ContentGaps(ctx context.Context, p GapsParams) (*GapsResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.TopicCoverage(ctx, p.Topic)
	if err != nil {
		return nil, upstream("compute topic coverage", err)
	}

	gaps := FindGaps(rows, p.FunnelStage)
	for i := range gaps {
		rec, err := s.templates.GapRecommendation(gaps[i].Topic, s.opts.BrandName, gaps[i].MissingStages)
		if err != nil {
			return nil, err
		}
		gaps[i].Recommendation = rec
	}

	return &GapsResult{Gaps: gaps}, nil
}
