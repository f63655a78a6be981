package ontology

import (
	"encoding/json"
	"slices"
	"strings"
)

// Content types
const (
	ContentTypeAdventure = "adventure"
	ContentTypeArticle   = "article"
	ContentTypeLanding   = "landing"
	ContentTypeListing   = "listing"
	ContentTypeSupport   = "support"
)

// Funnel stages
const (
	StageAwareness     = "awareness"
	StageConsideration = "consideration"
	StageDecision      = "decision"
)

// Relationship kinds for related-content lookups
const (
	RelationSameTopic    = "same_topic"
	RelationSameAudience = "same_audience"
	RelationSameStage    = "same_funnel_stage"
	RelationAll          = "all"
)

// Brand context aspects
const (
	AspectTopics       = "topics"
	AspectAudiences    = "audiences"
	AspectEntities     = "entities"
	AspectContentTypes = "content_types"
	AspectAll          = "all"
)

var (
	ContentTypes  = []string{ContentTypeAdventure, ContentTypeArticle, ContentTypeLanding, ContentTypeListing, ContentTypeSupport}
	FunnelStages  = []string{StageAwareness, StageConsideration, StageDecision}
	Relationships = []string{RelationSameTopic, RelationSameAudience, RelationSameStage, RelationAll}
	Aspects       = []string{AspectTopics, AspectAudiences, AspectEntities, AspectContentTypes, AspectAll}
	ScoreMetrics  = []string{"overall", "performance", "engagement", "conversion"}
	PatternTypes  = []string{"topic_performance", "content_type_performance", "funnel_stage_performance"}
)

// Defaults
const (
	DefaultQueryLimit      = 20
	LargeQueryLimit        = 1000
	DefaultFunnelStage     = StageConsideration
	DefaultMetric          = "overall"
	DefaultTopLimit        = 10
	DefaultToolCategory    = "cms_ontology"
	DefaultUsageWindowDays = 7
)

// ToolNames are the assistant tools usage events are expected for. Other
// names are still stored but share one metric label.
var ToolNames = []string{
	"query_content_inventory", "get_content_gaps", "generate_content_brief",
	"get_brand_context", "get_related_content", "get_performance_insights",
	"get_page_performance", "get_performance_patterns", "list_sites",
	"get_site_details", "get_inventory_summary",
}

// ToolStatuses are the usage statuses reported as their own metric label
var ToolStatuses = []string{"success", "error"}

// IntFields lists parameter names that carry integers. Query-string
// decoding converts these before binding.
var IntFields = []string{"limit", "duration_ms", "days"}

// checkEnum fails with a validation error unless value is empty or one of
// allowed
func checkEnum(field, value string, allowed []string) error {
	if value == "" || slices.Contains(allowed, value) {
		return nil
	}
	return validationf("%s must be one of: %s", field, strings.Join(allowed, ", "))
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return validationf("%s is required", field)
	}
	return nil
}

// QueryParams filters the content inventory. Every field is optional.
type QueryParams struct {
	SiteID      string `json:"site_id"`
	Topic       string `json:"topic"`
	ContentType string `json:"content_type"`
	FunnelStage string `json:"funnel_stage"`
	Audience    string `json:"audience"`
	Search      string `json:"search"`
	// Limit defaults to DefaultQueryLimit when zero or negative. There is
	// no maximum.
	Limit int `json:"limit"`
}

func (p *QueryParams) Validate() error {
	if err := checkEnum("content_type", p.ContentType, ContentTypes); err != nil {
		return err
	}
	return checkEnum("funnel_stage", p.FunnelStage, FunnelStages)
}

func (p *QueryParams) applyDefaults() {
	if p.Limit <= 0 {
		p.Limit = DefaultQueryLimit
	}
}

// GapsParams scopes gap detection. An empty Topic covers every topic; a
// set FunnelStage only reports topics missing that stage.
type GapsParams struct {
	Topic       string `json:"topic"`
	FunnelStage string `json:"funnel_stage"`
}

func (p *GapsParams) Validate() error {
	return checkEnum("funnel_stage", p.FunnelStage, FunnelStages)
}

// BriefParams describes the content a brief is generated for.
// Topic and ContentType are required.
type BriefParams struct {
	Topic       string `json:"topic"`
	ContentType string `json:"content_type"`
	// FunnelStage defaults to DefaultFunnelStage
	FunnelStage string `json:"funnel_stage"`
	// TargetAudience defaults to the topic's most common audience, then
	// to the configured fallback audience
	TargetAudience string `json:"target_audience"`
}

func (p *BriefParams) Validate() error {
	if strings.TrimSpace(p.Topic) == "" || strings.TrimSpace(p.ContentType) == "" {
		return validationf("topic and content_type are required")
	}
	if err := checkEnum("content_type", p.ContentType, ContentTypes); err != nil {
		return err
	}
	return checkEnum("funnel_stage", p.FunnelStage, FunnelStages)
}

// ContextParams selects a brand context aspect; empty means all
type ContextParams struct {
	Aspect string `json:"aspect"`
}

func (p *ContextParams) Validate() error {
	return checkEnum("aspect", p.Aspect, Aspects)
}

// RelatedParams identifies the source page of a relation lookup
type RelatedParams struct {
	Path string `json:"path"`
	// Relationship defaults to RelationAll
	Relationship string `json:"relationship"`
}

func (p *RelatedParams) Validate() error {
	if err := required("path", p.Path); err != nil {
		return err
	}
	return checkEnum("relationship", p.Relationship, Relationships)
}

// SummaryParams optionally scopes the inventory summary to one site
type SummaryParams struct {
	SiteID string `json:"site_id"`
}

func (p *SummaryParams) Validate() error { return nil }

// PerformanceParams selects one page, or the overview when Path is empty
type PerformanceParams struct {
	Path string `json:"path"`
}

func (p *PerformanceParams) Validate() error { return nil }

// TopPerformersParams ranks scored pages
type TopPerformersParams struct {
	// Metric defaults to DefaultMetric
	Metric string `json:"metric"`
	// Limit defaults to DefaultTopLimit
	Limit int `json:"limit"`
}

func (p *TopPerformersParams) Validate() error {
	return checkEnum("metric", p.Metric, ScoreMetrics)
}

// PatternsParams optionally narrows patterns to one type
type PatternsParams struct {
	Type string `json:"type"`
}

func (p *PatternsParams) Validate() error {
	return checkEnum("type", p.Type, PatternTypes)
}

// SitesParams selects one site, or the list when ID is empty
type SitesParams struct {
	ID string `json:"id"`
}

func (p *SitesParams) Validate() error { return nil }

// SiteParams identifies a single site
type SiteParams struct {
	SiteID string `json:"site_id"`
}

func (p *SiteParams) Validate() error {
	return required("site_id", p.SiteID)
}

// TrackParams is a tool usage event reported by the assistant plugin
type TrackParams struct {
	ToolName string `json:"tool_name"`
	// ToolCategory defaults to DefaultToolCategory
	ToolCategory string          `json:"tool_category"`
	DurationMS   *int64          `json:"duration_ms"`
	Status       string          `json:"status"`
	ErrorType    string          `json:"error_type"`
	ErrorMessage string          `json:"error_message"`
	Metadata     json.RawMessage `json:"metadata"`
}

func (p *TrackParams) Validate() error {
	if err := required("tool_name", p.ToolName); err != nil {
		return err
	}
	return required("status", p.Status)
}

// UsageParams sets the window of the tool usage report
type UsageParams struct {
	// Days defaults to DefaultUsageWindowDays
	Days int `json:"days"`
}

func (p *UsageParams) Validate() error {
	if p.Days < 0 {
		return validationf("days must not be negative")
	}
	return nil
}
