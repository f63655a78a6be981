package ontology

import (
	"context"
	"fmt"

	"content-ontology/internal/database"
)

// TopTopicLimit caps the topics listed in the inventory summary
const TopTopicLimit = 5

// BrandContext returns the requested aspects of the inventory, keyed by
// aspect name. Only requested aspects are present.
func (s *Service) BrandContext(ctx context.Context, p ContextParams) (map[string]interface{}, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Aspect == "" {
		p.Aspect = AspectAll
	}

	want := func(aspect string) bool {
		return p.Aspect == AspectAll || p.Aspect == aspect
	}
	result := map[string]interface{}{}

	if want(AspectTopics) {
		topics, err := s.db.TopicCounts(ctx, "", 0)
		if err != nil {
			return nil, upstream("count topics", err)
		}
		result[AspectTopics] = topics
	}

	if want(AspectAudiences) {
		audiences, err := s.db.AudienceCounts(ctx)
		if err != nil {
			return nil, upstream("count audiences", err)
		}
		result[AspectAudiences] = audiences
	}

	if want(AspectEntities) {
		entities, err := s.db.EntityMentions(ctx)
		if err != nil {
			return nil, upstream("count entities", err)
		}
		result[AspectEntities] = entities
	}

	if want(AspectContentTypes) {
		types, err := s.db.ContentTypeCounts(ctx)
		if err != nil {
			return nil, upstream("count content types", err)
		}
		result[AspectContentTypes] = types
	}

	return result, nil
}

// Summary is a compact description of the inventory
type Summary struct {
	Summary            string                   `json:"summary"`
	Stats              *database.InventoryStats `json:"stats"`
	Site               *database.SiteStats      `json:"site"`
	TopTopics          []database.TopicCount    `json:"top_topics"`
	FunnelDistribution []database.StageCount    `json:"funnel_distribution"`
	Brand              string                   `json:"brand"`
	Domain             string                   `json:"domain"`
}

// InventorySummary counts pages, topics and stages, optionally for one
// site. An unknown site id is a not-found error.
func (s *Service) InventorySummary(ctx context.Context, p SummaryParams) (*Summary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	result := &Summary{
		Brand:  s.opts.BrandName,
		Domain: s.opts.BrandDomain,
	}

	if p.SiteID != "" {
		site, err := s.db.GetSite(ctx, p.SiteID)
		if err != nil {
			return nil, upstream("get site", err)
		}
		if site == nil {
			return nil, notFoundf("site not found: %s", p.SiteID)
		}
		result.Site = site
		result.Brand = site.Name
		if site.Domain != nil && *site.Domain != "" {
			result.Domain = *site.Domain
		}
	}

	stats, err := s.db.InventoryStats(ctx, p.SiteID)
	if err != nil {
		return nil, upstream("compute inventory stats", err)
	}
	result.Stats = stats

	if result.TopTopics, err = s.db.TopicCounts(ctx, p.SiteID, TopTopicLimit); err != nil {
		return nil, upstream("count topics", err)
	}
	if result.FunnelDistribution, err = s.db.FunnelDistribution(ctx, p.SiteID); err != nil {
		return nil, upstream("compute funnel distribution", err)
	}

	result.Summary = fmt.Sprintf("Content inventory with %d pages across %d topics.", stats.TotalPages, stats.TotalTopics)
	return result, nil
}

// SitesResult lists sites with live stats
type SitesResult struct {
	Count int                  `json:"count"`
	Sites []database.SiteStats `json:"sites"`
}

// SiteResult wraps a single site
type SiteResult struct {
	Site *database.SiteStats `json:"site"`
}

// ListSites returns every site ordered by name
func (s *Service) ListSites(ctx context.Context) (*SitesResult, error) {
	sites, err := s.db.ListSites(ctx)
	if err != nil {
		return nil, upstream("list sites", err)
	}
	return &SitesResult{Count: len(sites), Sites: sites}, nil
}

// GetSite returns one site with live stats
func (s *Service) GetSite(ctx context.Context, p SiteParams) (*SiteResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	site, err := s.db.GetSite(ctx, p.SiteID)
	if err != nil {
		return nil, upstream("get site", err)
	}
	if site == nil {
		return nil, notFoundf("site not found: %s", p.SiteID)
	}
	return &SiteResult{Site: site}, nil
}

// Sites lists sites, or returns one when p.ID is set
func (s *Service) Sites(ctx context.Context, p SitesParams) (interface{}, error) {
	if p.ID != "" {
		return s.GetSite(ctx, SiteParams{SiteID: p.ID})
	}
	return s.ListSites(ctx)
}
