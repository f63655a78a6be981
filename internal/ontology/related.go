package ontology

import (
	"context"

	"content-ontology/internal/database"
)

// RelatedSource describes the page relations are computed for
type RelatedSource struct {
	Path        string  `json:"path"`
	Title       *string `json:"title"`
	Topic       *string `json:"topic"`
	FunnelStage *string `json:"funnel_stage"`
}

// RelatedResult maps each requested relationship to its pages. Only the
// requested relationships are present.
type RelatedResult struct {
	Source  RelatedSource                     `json:"source"`
	Related map[string][]database.RelatedPage `json:"related"`
}

// RelatedContent finds pages sharing the source page's topic, funnel stage
// or audiences. Each list holds at most database.RelatedLimit pages and
// never contains the source page.
func (s *Service) RelatedContent(ctx context.Context, p RelatedParams) (*RelatedResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Relationship == "" {
		p.Relationship = RelationAll
	}

	source, err := s.db.GetPage(ctx, p.Path)
	if err != nil {
		return nil, upstream("get source page", err)
	}
	if source == nil {
		return nil, notFoundf("page not found: %s", p.Path)
	}

	result := &RelatedResult{
		Source: RelatedSource{
			Path:        source.Path,
			Title:       source.Title,
			Topic:       source.PrimaryTopic,
			FunnelStage: source.FunnelStage,
		},
		Related: map[string][]database.RelatedPage{},
	}

	want := func(rel string) bool {
		return p.Relationship == RelationAll || p.Relationship == rel
	}

	if want(RelationSameTopic) {
		pages, err := s.db.PagesWithTopic(ctx, source.PrimaryTopic, source.Path)
		if err != nil {
			return nil, upstream("find same-topic pages", err)
		}
		result.Related[RelationSameTopic] = pages
	}

	if want(RelationSameStage) {
		pages, err := s.db.PagesWithStage(ctx, source.FunnelStage, source.Path)
		if err != nil {
			return nil, upstream("find same-stage pages", err)
		}
		result.Related[RelationSameStage] = pages
	}

	if want(RelationSameAudience) {
		pages, err := s.db.PagesSharingAudience(ctx, source.Path)
		if err != nil {
			return nil, upstream("find same-audience pages", err)
		}
		result.Related[RelationSameAudience] = pages
	}

	return result, nil
}
