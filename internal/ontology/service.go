// Package ontology answers content-intelligence questions over the page
// inventory: filtered queries, coverage gaps, related content, content
// briefs, brand context and performance insights.
//
// Every operation takes an explicit parameter struct, validates it, applies
// documented defaults and returns a JSON-ready result. Failures are
// classified as ErrValidation, ErrNotFound or ErrUpstream.
package ontology

import (
	"log/slog"

	"content-ontology/internal/database"
)

// Options configures brand-specific defaults
type Options struct {
	BrandName       string
	BrandDomain     string
	DefaultAudience string
}

// Service implements the ontology operations on top of the page store
type Service struct {
	db        *database.DB
	templates *Templates
	opts      Options
	logger    *slog.Logger
}

// NewService creates a service. Empty options fall back to the WKND
// brand defaults.
func NewService(db *database.DB, templates *Templates, opts Options) *Service {
	if opts.BrandName == "" {
		opts.BrandName = "WKND"
	}
	if opts.BrandDomain == "" {
		opts.BrandDomain = "Adventure travel and lifestyle"
	}
	if opts.DefaultAudience == "" {
		opts.DefaultAudience = "adventure travelers"
	}

	return &Service{
		db:        db,
		templates: templates,
		opts:      opts,
		logger:    slog.Default(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
