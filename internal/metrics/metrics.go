package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Results
	ResultSuccess = "success"
	ResultFailure = "failure"

	// HTTP endpoints
	EndpointHealth              = "health"
	EndpointManifest            = "manifest"
	EndpointQuery               = "query"
	EndpointGaps                = "gaps"
	EndpointBrief               = "brief"
	EndpointContext             = "context"
	EndpointRelated             = "related"
	EndpointSummary             = "summary"
	EndpointPerformance         = "performance"
	EndpointTopPerformers       = "top_performers"
	EndpointPerformancePatterns = "performance_patterns"
	EndpointSites               = "sites"
	EndpointTrack               = "track"
	EndpointAnalytics           = "analytics"
	EndpointMCP                 = "mcp"

	// Database operations
	DBOpUpsertSite          = "upsert_site"
	DBOpGetSite             = "get_site"
	DBOpListSites           = "list_sites"
	DBOpRefreshSiteCount    = "refresh_site_count"
	DBOpUpsertPage          = "upsert_page"
	DBOpGetPage             = "get_page"
	DBOpListUnanalyzed      = "list_unanalyzed_pages"
	DBOpStoreAnalysis       = "store_analysis"
	DBOpQueryPages          = "query_pages"
	DBOpTopicCoverage       = "topic_coverage"
	DBOpRelatedPages        = "related_pages"
	DBOpTopicContext        = "topic_context"
	DBOpBrandContext        = "brand_context"
	DBOpInventoryStats      = "inventory_stats"
	DBOpUpsertSample        = "upsert_performance_sample"
	DBOpPageSamples         = "page_samples"
	DBOpGetPageScore        = "get_page_score"
	DBOpSampleAggregates    = "sample_aggregates"
	DBOpReplaceScores       = "replace_scores"
	DBOpPerformanceOverview = "performance_overview"
	DBOpRankedPages         = "ranked_pages"
	DBOpReplacePatterns     = "replace_patterns"
	DBOpListPatterns        = "list_patterns"
	DBOpDimensionScores     = "dimension_scores"
	DBOpStartCrawl          = "start_crawl"
	DBOpFinishCrawl         = "finish_crawl"
	DBOpInsertUsageEvent    = "insert_usage_event"
	DBOpToolUsageStats      = "tool_usage_stats"

	// Crawl outcomes
	CrawlFetched = "fetched"
	CrawlSkipped = "skipped"
	CrawlFailed  = "failed"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Inventory Metrics
var (
	InventoryPages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_pages",
			Help: "Number of pages in the content inventory",
		},
	)

	InventoryTopics = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_topics",
			Help: "Number of distinct primary topics",
		},
	)

	InventorySites = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_sites",
			Help: "Number of onboarded sites",
		},
	)

	InventoryScoredPages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_scored_pages",
			Help: "Number of pages with a score row",
		},
	)

	QueryLargeLimitTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_large_limit_total",
			Help: "Inventory queries requesting more rows than the warning threshold",
		},
	)
)

// Scoring Metrics
var (
	ScoringRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_runs_total",
			Help: "Total number of scoring runs by result",
		},
		[]string{"result"},
	)

	ScoringRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_run_duration_seconds",
			Help:    "Time spent recomputing scores and patterns",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	ScoringPagesScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_pages_scored",
			Help:    "Number of pages scored per run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	WorkerActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_active",
			Help: "Whether the scoring worker is currently active (1) or not (0)",
		},
	)
)

// Batch Metrics
var (
	CrawlPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_pages_total",
			Help: "Total number of pages visited by the crawler by outcome",
		},
		[]string{"outcome"},
	)

	AnalyzerPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_pages_total",
			Help: "Total number of pages sent to the classifier by result",
		},
		[]string{"result"},
	)

	AnalyzerRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyzer_request_duration_seconds",
			Help:    "Classifier request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	ToolUsageEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_usage_events_total",
			Help: "Total number of tracked assistant tool invocations",
		},
		[]string{"tool_name", "status"},
	)
)

// Database Metrics
var (
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Database operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	DBOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operation_errors_total",
			Help: "Total number of database operation errors",
		},
		[]string{"operation"},
	)
)
