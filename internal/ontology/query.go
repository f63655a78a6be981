package ontology

import (
	"context"

	"content-ontology/internal/database"
	"content-ontology/internal/metrics"
)

// QueryResult lists matching pages
type QueryResult struct {
	Count int                    `json:"count"`
	Pages []database.PageSummary `json:"pages"`
}

// QueryInventory returns pages matching every supplied filter, ordered by
// path
func (s *Service) QueryInventory(ctx context.Context, p QueryParams) (*QueryResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.applyDefaults()

	if p.Limit > LargeQueryLimit {
		metrics.QueryLargeLimitTotal.Inc()
		s.logger.Warn("Large inventory query requested", "limit", p.Limit)
	}

	pages, err := s.db.QueryPages(ctx, database.PageFilter{
		SiteID:      p.SiteID,
		Topic:       p.Topic,
		ContentType: p.ContentType,
		FunnelStage: p.FunnelStage,
		Audience:    p.Audience,
		Search:      p.Search,
		Limit:       p.Limit,
	})
	if err != nil {
		return nil, upstream("query inventory", err)
	}

	return &QueryResult{Count: len(pages), Pages: pages}, nil
}
