package ontology

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"content-ontology/internal/database"
	"content-ontology/internal/metrics"
)

type fixturePage struct {
	path     string
	analysis *database.Analysis
}

func strPtr(s string) *string { return &s }

// newTestService opens a fresh database seeded with a small inventory:
// skiing lacks decision content, climbing covers every stage, cycling only
// has awareness content and /faq was crawled but never analyzed.
func newTestService(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.UpsertSite(ctx, &database.Site{ID: "wknd", Name: "WKND Adventures", Domain: strPtr("Outdoor adventures")}); err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}

	pages := []fixturePage{
		{"/adventures/ski-touring", &database.Analysis{
			Title: "Ski Touring in the Alps", ContentType: "adventure", PrimaryTopic: "skiing",
			FunnelStage: "consideration", Audiences: []string{"families", "beginners"},
			SecondaryTopics: []string{"mountains"}, Entities: []database.Entity{{Name: "Alps", Type: "place"}},
			Summary: "A week of guided ski touring",
		}},
		{"/magazine/skiing-guide", &database.Analysis{
			Title: "Beginner Skiing Guide", ContentType: "article", PrimaryTopic: "skiing",
			FunnelStage: "awareness", Audiences: []string{"beginners"},
			SecondaryTopics: []string{"mountains", "winter"},
		}},
		{"/magazine/climbing", &database.Analysis{
			Title: "Why We Climb", ContentType: "article", PrimaryTopic: "climbing",
			FunnelStage: "awareness", Audiences: []string{"thrill seekers"},
		}},
		{"/adventures/climbing-yosemite", &database.Analysis{
			Title: "Climbing Yosemite", ContentType: "adventure", PrimaryTopic: "climbing",
			FunnelStage: "consideration", Audiences: []string{"thrill seekers"},
		}},
		{"/adventures/climbing-booking", &database.Analysis{
			Title: "Book a Climbing Trip", ContentType: "landing", PrimaryTopic: "climbing",
			FunnelStage: "decision", Audiences: []string{"thrill seekers", "families"},
		}},
		{"/magazine/cycling", &database.Analysis{
			Title: "Gravel Cycling", ContentType: "article", PrimaryTopic: "cycling",
			FunnelStage: "awareness", Audiences: []string{"cyclists"},
		}},
		{"/faq", nil},
	}

	for _, p := range pages {
		if err := db.UpsertCrawledPage(ctx, &database.CrawledPage{
			Path:    p.path,
			SiteID:  strPtr("wknd"),
			Title:   "crawled " + p.path,
			RawHTML: "<html><body><h1>" + p.path + "</h1></body></html>",
			LiveURL: "https://example.com" + p.path,
		}); err != nil {
			t.Fatalf("Failed to store page %s: %v", p.path, err)
		}
		if p.analysis == nil {
			continue
		}
		if err := db.StoreAnalysis(ctx, p.path, p.analysis); err != nil {
			t.Fatalf("Failed to store analysis for %s: %v", p.path, err)
		}
	}

	templates, err := LoadTemplates()
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	return NewService(db, templates, Options{}), db
}

func TestQueryInventory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("FiltersAreConjunctive", func(t *testing.T) {
		result, err := svc.QueryInventory(ctx, QueryParams{Topic: "skiing", ContentType: "article"})
		if err != nil {
			t.Fatalf("Failed to query inventory: %v", err)
		}
		if result.Count != 1 {
			t.Fatalf("Expected 1 page, got %d", result.Count)
		}
		if result.Pages[0].Path != "/magazine/skiing-guide" {
			t.Errorf("Expected /magazine/skiing-guide, got %s", result.Pages[0].Path)
		}
	})

	t.Run("NoFiltersReturnsEverythingOrderedByPath", func(t *testing.T) {
		result, err := svc.QueryInventory(ctx, QueryParams{})
		if err != nil {
			t.Fatalf("Failed to query inventory: %v", err)
		}
		if result.Count != 7 {
			t.Fatalf("Expected 7 pages, got %d", result.Count)
		}
		for i := 1; i < len(result.Pages); i++ {
			if result.Pages[i-1].Path > result.Pages[i].Path {
				t.Errorf("Expected pages ordered by path, got %s before %s", result.Pages[i-1].Path, result.Pages[i].Path)
			}
		}
	})

	t.Run("AudienceSubstring", func(t *testing.T) {
		result, err := svc.QueryInventory(ctx, QueryParams{Audience: "thrill"})
		if err != nil {
			t.Fatalf("Failed to query inventory: %v", err)
		}
		if result.Count != 3 {
			t.Errorf("Expected 3 pages, got %d", result.Count)
		}
	})

	t.Run("SearchMatchesTitle", func(t *testing.T) {
		result, err := svc.QueryInventory(ctx, QueryParams{Search: "yosemite"})
		if err != nil {
			t.Fatalf("Failed to query inventory: %v", err)
		}
		if result.Count != 1 {
			t.Errorf("Expected 1 page, got %d", result.Count)
		}
	})

	t.Run("WildcardsAreLiteral", func(t *testing.T) {
		result, err := svc.QueryInventory(ctx, QueryParams{Search: "%"})
		if err != nil {
			t.Fatalf("Failed to query inventory: %v", err)
		}
		if result.Count != 0 {
			t.Errorf("Expected 0 pages, got %d", result.Count)
		}
	})

	t.Run("Limit", func(t *testing.T) {
		result, err := svc.QueryInventory(ctx, QueryParams{Limit: 2})
		if err != nil {
			t.Fatalf("Failed to query inventory: %v", err)
		}
		if result.Count != 2 {
			t.Errorf("Expected 2 pages, got %d", result.Count)
		}
	})

	t.Run("InvalidFunnelStage", func(t *testing.T) {
		_, err := svc.QueryInventory(ctx, QueryParams{FunnelStage: "purchase"})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}

func TestContentGaps(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.ContentGaps(ctx, GapsParams{})
	if err != nil {
		t.Fatalf("Failed to find gaps: %v", err)
	}

	if len(result.Gaps) != 2 {
		t.Fatalf("Expected 2 gaps, got %d", len(result.Gaps))
	}

	cycling := result.Gaps[0]
	if cycling.Topic != "cycling" || cycling.Priority != PriorityHigh {
		t.Errorf("Expected high priority cycling gap first, got %s/%s", cycling.Topic, cycling.Priority)
	}
	if len(cycling.MissingStages) != 2 {
		t.Errorf("Expected 2 missing stages, got %v", cycling.MissingStages)
	}

	skiing := result.Gaps[1]
	if skiing.Topic != "skiing" {
		t.Fatalf("Expected skiing gap, got %s", skiing.Topic)
	}
	if skiing.Priority != PriorityMedium {
		t.Errorf("Expected medium priority, got %s", skiing.Priority)
	}
	if len(skiing.MissingStages) != 1 || skiing.MissingStages[0] != StageDecision {
		t.Errorf("Expected missing stages [decision], got %v", skiing.MissingStages)
	}
	if skiing.TotalPages != 2 {
		t.Errorf("Expected 2 pages, got %d", skiing.TotalPages)
	}
	if !strings.Contains(skiing.Recommendation, "booking support content for skiing") {
		t.Errorf("Unexpected recommendation: %s", skiing.Recommendation)
	}

	for _, g := range result.Gaps {
		if g.Topic == "climbing" {
			t.Error("Expected fully covered topic to be omitted")
		}
	}

	t.Run("StageFilter", func(t *testing.T) {
		result, err := svc.ContentGaps(ctx, GapsParams{FunnelStage: StageConsideration})
		if err != nil {
			t.Fatalf("Failed to find gaps: %v", err)
		}
		if len(result.Gaps) != 1 || result.Gaps[0].Topic != "cycling" {
			t.Errorf("Expected only cycling, got %+v", result.Gaps)
		}
	})

	t.Run("TopicFilter", func(t *testing.T) {
		result, err := svc.ContentGaps(ctx, GapsParams{Topic: "climbing"})
		if err != nil {
			t.Fatalf("Failed to find gaps: %v", err)
		}
		if len(result.Gaps) != 0 {
			t.Errorf("Expected no gaps, got %d", len(result.Gaps))
		}
	})
}

func TestFindGaps(t *testing.T) {
	rows := []database.TopicCoverage{
		{Topic: "b", Awareness: 1, TotalPages: 1},
		{Topic: "a", TotalPages: 0},
		{Topic: "c", Awareness: 1, Consideration: 1, TotalPages: 2},
		{Topic: "d", Awareness: 1, Consideration: 1, Decision: 1, TotalPages: 3},
	}

	gaps := FindGaps(rows, "")
	want := []string{"a", "b", "c"}
	if len(gaps) != len(want) {
		t.Fatalf("Expected %d gaps, got %d", len(want), len(gaps))
	}
	for i, topic := range want {
		if gaps[i].Topic != topic {
			t.Errorf("Expected gap %d to be %s, got %s", i, topic, gaps[i].Topic)
		}
	}
	if gaps[0].Priority != PriorityHigh || gaps[2].Priority != PriorityMedium {
		t.Errorf("Unexpected priorities: %s, %s", gaps[0].Priority, gaps[2].Priority)
	}
}

func TestRelatedContent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.RelatedContent(ctx, RelatedParams{Path: "/adventures/ski-touring"})
	if err != nil {
		t.Fatalf("Failed to find related content: %v", err)
	}

	if len(result.Related) != 3 {
		t.Errorf("Expected 3 relationships, got %d", len(result.Related))
	}
	for rel, pages := range result.Related {
		for _, p := range pages {
			if p.Path == "/adventures/ski-touring" {
				t.Errorf("Expected source page to be excluded from %s", rel)
			}
		}
	}

	topic := result.Related[RelationSameTopic]
	if len(topic) != 1 || topic[0].Path != "/magazine/skiing-guide" {
		t.Errorf("Unexpected same-topic pages: %+v", topic)
	}

	stage := result.Related[RelationSameStage]
	if len(stage) != 1 || stage[0].Path != "/adventures/climbing-yosemite" {
		t.Errorf("Unexpected same-stage pages: %+v", stage)
	}

	// families and beginners are shared with these two pages
	audience := result.Related[RelationSameAudience]
	if len(audience) != 2 {
		t.Errorf("Expected 2 same-audience pages, got %d", len(audience))
	}

	t.Run("SingleRelationship", func(t *testing.T) {
		result, err := svc.RelatedContent(ctx, RelatedParams{Path: "/adventures/ski-touring", Relationship: RelationSameTopic})
		if err != nil {
			t.Fatalf("Failed to find related content: %v", err)
		}
		if len(result.Related) != 1 {
			t.Errorf("Expected 1 relationship, got %d", len(result.Related))
		}
	})

	t.Run("UnclassifiedSource", func(t *testing.T) {
		result, err := svc.RelatedContent(ctx, RelatedParams{Path: "/faq"})
		if err != nil {
			t.Fatalf("Failed to find related content: %v", err)
		}
		if len(result.Related[RelationSameTopic]) != 0 {
			t.Errorf("Expected no same-topic pages for unclassified source")
		}
	})

	t.Run("UnknownPath", func(t *testing.T) {
		_, err := svc.RelatedContent(ctx, RelatedParams{Path: "/missing"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected not found error, got %v", err)
		}
	})

	t.Run("MissingPath", func(t *testing.T) {
		_, err := svc.RelatedContent(ctx, RelatedParams{})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}

func TestGenerateBrief(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("ExistingTopic", func(t *testing.T) {
		brief, err := svc.GenerateBrief(ctx, BriefParams{Topic: "skiing", ContentType: "adventure", FunnelStage: "decision"})
		if err != nil {
			t.Fatalf("Failed to generate brief: %v", err)
		}

		if brief.Context.ExistingCount != 2 {
			t.Errorf("Expected 2 existing pages, got %d", brief.Context.ExistingCount)
		}
		// beginners tags both skiing pages
		if brief.TargetAudience != "beginners" {
			t.Errorf("Expected target audience beginners, got %s", brief.TargetAudience)
		}
		if brief.Recommendations.InternalLinks[0].Path != "/magazine/skiing-guide" {
			t.Errorf("Expected awareness page linked first, got %s", brief.Recommendations.InternalLinks[0].Path)
		}
		if brief.Recommendations.InternalLinks[0].Context != "Link to awareness-stage content" {
			t.Errorf("Unexpected link context: %s", brief.Recommendations.InternalLinks[0].Context)
		}
		if got := brief.Recommendations.SEOKeywords; len(got) != 3 || got[0] != "skiing" || got[1] != "mountains" {
			t.Errorf("Unexpected SEO keywords: %v", got)
		}
		if got := brief.Recommendations.KeyElements; len(got) != 5 || got[0] != "Pricing" {
			t.Errorf("Unexpected key elements: %v", got)
		}
		if !strings.Contains(brief.BriefText, "## Content Brief: Skiing Adventure") {
			t.Errorf("Unexpected brief heading: %s", brief.BriefText)
		}
		if !strings.Contains(brief.BriefText, "Related entities: Alps") {
			t.Errorf("Expected entities in brief text: %s", brief.BriefText)
		}
		if !strings.Contains(brief.BriefText, "booking CTAs") {
			t.Errorf("Expected decision-stage success metric: %s", brief.BriefText)
		}
	})

	t.Run("TopicWithoutPages", func(t *testing.T) {
		brief, err := svc.GenerateBrief(ctx, BriefParams{Topic: "surfing", ContentType: "adventure"})
		if err != nil {
			t.Fatalf("Failed to generate brief: %v", err)
		}

		if brief.Context.ExistingCount != 0 {
			t.Errorf("Expected 0 existing pages, got %d", brief.Context.ExistingCount)
		}
		if brief.FunnelStage != StageConsideration {
			t.Errorf("Expected default stage consideration, got %s", brief.FunnelStage)
		}
		if brief.TargetAudience != "adventure travelers" {
			t.Errorf("Expected fallback audience, got %s", brief.TargetAudience)
		}
		if len(brief.Recommendations.InternalLinks) != 0 {
			t.Errorf("Expected no internal links, got %d", len(brief.Recommendations.InternalLinks))
		}
		if brief.Recommendations.TitlePatterns[0] != "Surfing Adventure in [Location]" {
			t.Errorf("Unexpected title pattern: %s", brief.Recommendations.TitlePatterns[0])
		}
		if !strings.Contains(brief.BriefText, "Existing surfing content: 0 pages") {
			t.Errorf("Unexpected brief text: %s", brief.BriefText)
		}
		if !strings.Contains(brief.BriefText, "None identified") {
			t.Errorf("Expected no entities in brief text: %s", brief.BriefText)
		}
	})

	t.Run("ExplicitAudience", func(t *testing.T) {
		brief, err := svc.GenerateBrief(ctx, BriefParams{Topic: "skiing", ContentType: "article", TargetAudience: "experts"})
		if err != nil {
			t.Fatalf("Failed to generate brief: %v", err)
		}
		if brief.TargetAudience != "experts" {
			t.Errorf("Expected experts, got %s", brief.TargetAudience)
		}
	})

	t.Run("MissingRequiredFields", func(t *testing.T) {
		_, err := svc.GenerateBrief(ctx, BriefParams{Topic: "skiing"})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}

func TestBrandContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	all, err := svc.BrandContext(ctx, ContextParams{})
	if err != nil {
		t.Fatalf("Failed to get brand context: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 aspects, got %d", len(all))
	}

	only, err := svc.BrandContext(ctx, ContextParams{Aspect: AspectAudiences})
	if err != nil {
		t.Fatalf("Failed to get brand context: %v", err)
	}
	if len(only) != 1 {
		t.Fatalf("Expected 1 aspect, got %d", len(only))
	}
	audiences, ok := only[AspectAudiences].([]database.AudienceCount)
	if !ok {
		t.Fatalf("Expected audience counts, got %T", only[AspectAudiences])
	}
	if audiences[0].Audience != "thrill seekers" || audiences[0].Count != 3 {
		t.Errorf("Expected thrill seekers with 3 pages first, got %+v", audiences[0])
	}

	if _, err := svc.BrandContext(ctx, ContextParams{Aspect: "colors"}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestInventorySummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	summary, err := svc.InventorySummary(ctx, SummaryParams{})
	if err != nil {
		t.Fatalf("Failed to summarize inventory: %v", err)
	}
	if summary.Stats.TotalPages != 7 {
		t.Errorf("Expected 7 pages, got %d", summary.Stats.TotalPages)
	}
	if summary.Summary != "Content inventory with 7 pages across 3 topics." {
		t.Errorf("Unexpected summary: %s", summary.Summary)
	}
	if summary.Brand != "WKND" {
		t.Errorf("Expected default brand, got %s", summary.Brand)
	}

	t.Run("Site", func(t *testing.T) {
		summary, err := svc.InventorySummary(ctx, SummaryParams{SiteID: "wknd"})
		if err != nil {
			t.Fatalf("Failed to summarize inventory: %v", err)
		}
		if summary.Brand != "WKND Adventures" || summary.Domain != "Outdoor adventures" {
			t.Errorf("Expected site brand, got %s / %s", summary.Brand, summary.Domain)
		}
		if summary.Site.ActualPageCount != 7 {
			t.Errorf("Expected 7 site pages, got %d", summary.Site.ActualPageCount)
		}
	})

	t.Run("UnknownSite", func(t *testing.T) {
		_, err := svc.InventorySummary(ctx, SummaryParams{SiteID: "nope"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected not found error, got %v", err)
		}
	})
}

func TestSites(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	list, err := svc.Sites(ctx, SitesParams{})
	if err != nil {
		t.Fatalf("Failed to list sites: %v", err)
	}
	if sites := list.(*SitesResult); sites.Count != 1 {
		t.Errorf("Expected 1 site, got %d", sites.Count)
	}

	one, err := svc.Sites(ctx, SitesParams{ID: "wknd"})
	if err != nil {
		t.Fatalf("Failed to get site: %v", err)
	}
	if site := one.(*SiteResult); site.Site.Name != "WKND Adventures" {
		t.Errorf("Expected WKND Adventures, got %s", site.Site.Name)
	}

	if _, err := svc.GetSite(ctx, SiteParams{SiteID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

// seedTrails adds n analyzed pages that share one topic, funnel stage and
// audience, each carrying the same seven secondary topics.
func seedTrails(t *testing.T, db *database.DB, n int) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < n; i++ {
		path := fmt.Sprintf("/trails/hike-%02d", i)
		if err := db.UpsertCrawledPage(ctx, &database.CrawledPage{Path: path, Title: path}); err != nil {
			t.Fatalf("Failed to store page %s: %v", path, err)
		}
		err := db.StoreAnalysis(ctx, path, &database.Analysis{
			Title:           fmt.Sprintf("Hike %d", i),
			ContentType:     "article",
			PrimaryTopic:    "hiking",
			FunnelStage:     "awareness",
			Audiences:       []string{"hikers"},
			SecondaryTopics: []string{"maps", "boots", "weather", "camping", "safety", "photography", "food"},
		})
		if err != nil {
			t.Fatalf("Failed to store analysis for %s: %v", path, err)
		}
	}
}

func TestInventoryLimits(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	seedTrails(t, db, 25)
	// 7 fixture pages plus the trails
	const total = 32

	t.Run("DefaultLimit", func(t *testing.T) {
		for _, limit := range []int{0, -5} {
			result, err := svc.QueryInventory(ctx, QueryParams{Limit: limit})
			if err != nil {
				t.Fatalf("Failed to query inventory: %v", err)
			}
			if result.Count != DefaultQueryLimit {
				t.Errorf("Expected %d pages for limit %d, got %d", DefaultQueryLimit, limit, result.Count)
			}
		}
	})

	t.Run("UnboundedLimit", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.QueryLargeLimitTotal)

		result, err := svc.QueryInventory(ctx, QueryParams{Limit: 5000})
		if err != nil {
			t.Fatalf("Failed to query inventory: %v", err)
		}
		if result.Count != total {
			t.Errorf("Expected all %d pages, got %d", total, result.Count)
		}
		if got := testutil.ToFloat64(metrics.QueryLargeLimitTotal) - before; got != 1 {
			t.Errorf("Expected large limit to be counted once, got %v", got)
		}

		if _, err := svc.QueryInventory(ctx, QueryParams{Limit: LargeQueryLimit}); err != nil {
			t.Fatalf("Failed to query inventory: %v", err)
		}
		if got := testutil.ToFloat64(metrics.QueryLargeLimitTotal) - before; got != 1 {
			t.Errorf("Expected limit %d not to be flagged, got %v", LargeQueryLimit, got)
		}
	})

	t.Run("RelationCap", func(t *testing.T) {
		result, err := svc.RelatedContent(ctx, RelatedParams{Path: "/trails/hike-00"})
		if err != nil {
			t.Fatalf("Failed to find related content: %v", err)
		}
		for _, rel := range []string{RelationSameTopic, RelationSameStage, RelationSameAudience} {
			if got := len(result.Related[rel]); got != database.RelatedLimit {
				t.Errorf("Expected %d %s pages, got %d", database.RelatedLimit, rel, got)
			}
		}
	})

	t.Run("RelatedTopicCap", func(t *testing.T) {
		brief, err := svc.GenerateBrief(ctx, BriefParams{Topic: "hiking", ContentType: "article"})
		if err != nil {
			t.Fatalf("Failed to generate brief: %v", err)
		}
		if got := len(brief.Context.RelatedTopics); got != database.RelatedTopicLimit {
			t.Errorf("Expected %d related topics, got %d", database.RelatedTopicLimit, got)
		}
		if brief.Context.ExistingCount != 25 {
			t.Errorf("Expected 25 existing pages, got %d", brief.Context.ExistingCount)
		}
	})
}
