package ontology

import (
	"context"

	"content-ontology/internal/database"
)

// InternalLinkLimit caps the internal link suggestions of a brief
const InternalLinkLimit = 3

// SEOKeywordRelatedLimit caps the related topics added as SEO keywords
const SEOKeywordRelatedLimit = 3

// BriefEntityLimit caps the entities named in the brief text
const BriefEntityLimit = 5

// BriefContext is what the inventory already holds for the topic
type BriefContext struct {
	ExistingContent []database.TopicPage `json:"existing_content"`
	ExistingCount   int                  `json:"existing_count"`
	RelatedTopics   []string             `json:"related_topics"`
	KnownAudiences  []string             `json:"known_audiences"`
	Entities        []database.Entity    `json:"entities"`
}

// InternalLink suggests an existing page to link to
type InternalLink struct {
	Path    string  `json:"path"`
	Title   *string `json:"title"`
	Context string  `json:"context"`
}

// BriefRecommendations are template-driven suggestions
type BriefRecommendations struct {
	TitlePatterns []string       `json:"title_patterns"`
	KeyElements   []string       `json:"key_elements"`
	InternalLinks []InternalLink `json:"internal_links"`
	SEOKeywords   []string       `json:"seo_keywords"`
}

// Brief is a content brief for a new page
type Brief struct {
	Topic           string               `json:"topic"`
	ContentType     string               `json:"content_type"`
	FunnelStage     string               `json:"funnel_stage"`
	TargetAudience  string               `json:"target_audience"`
	Context         BriefContext         `json:"context"`
	Recommendations BriefRecommendations `json:"recommendations"`
	BriefText       string               `json:"brief_text"`
}

// GenerateBrief assembles a brief from the topic's existing pages and the
// recommendation lookup tables. A topic with no pages still gets a brief.
func (s *Service) GenerateBrief(ctx context.Context, p BriefParams) (*Brief, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.FunnelStage == "" {
		p.FunnelStage = DefaultFunnelStage
	}

	tc, err := s.db.TopicContext(ctx, p.Topic)
	if err != nil {
		return nil, upstream("load topic context", err)
	}

	knownAudiences := make([]string, 0, len(tc.Audiences))
	for _, a := range tc.Audiences {
		knownAudiences = append(knownAudiences, a.Audience)
	}

	// Audiences are ordered by page count, so the first is the most common
	audience := p.TargetAudience
	if audience == "" {
		audience = s.opts.DefaultAudience
		if len(knownAudiences) > 0 {
			audience = knownAudiences[0]
		}
	}

	titles, err := s.templates.TitlePatterns(p.Topic, p.ContentType, s.opts.BrandName)
	if err != nil {
		return nil, err
	}

	links := []InternalLink{}
	for i, page := range tc.Pages {
		if i == InternalLinkLimit {
			break
		}
		stage := deref(page.FunnelStage)
		if stage == "" {
			stage = "unclassified"
		}
		linkContext, err := s.templates.LinkContext(stage)
		if err != nil {
			return nil, err
		}
		links = append(links, InternalLink{Path: page.Path, Title: page.Title, Context: linkContext})
	}

	keywords := []string{p.Topic}
	for i, topic := range tc.RelatedTopics {
		if i == SEOKeywordRelatedLimit {
			break
		}
		keywords = append(keywords, topic)
	}

	entityNames := []string{}
	for i, e := range tc.Entities {
		if i == BriefEntityLimit {
			break
		}
		entityNames = append(entityNames, e.Name)
	}

	text, err := s.templates.BriefText(briefData{
		templateData:   newTemplateData(p.Topic, s.opts.BrandName),
		Type:           p.ContentType,
		TypeTitle:      capitalize(p.ContentType),
		Stage:          p.FunnelStage,
		Audience:       audience,
		ExistingCount:  len(tc.Pages),
		EntityNames:    entityNames,
		KnownAudiences: knownAudiences,
	})
	if err != nil {
		return nil, err
	}

	return &Brief{
		Topic:          p.Topic,
		ContentType:    p.ContentType,
		FunnelStage:    p.FunnelStage,
		TargetAudience: audience,
		Context: BriefContext{
			ExistingContent: tc.Pages,
			ExistingCount:   len(tc.Pages),
			RelatedTopics:   tc.RelatedTopics,
			KnownAudiences:  knownAudiences,
			Entities:        tc.Entities,
		},
		Recommendations: BriefRecommendations{
			TitlePatterns: titles,
			KeyElements:   s.templates.KeyElements(p.ContentType, p.FunnelStage),
			InternalLinks: links,
			SEOKeywords:   keywords,
		},
		BriefText: text,
	}, nil
}
