// Package mcpserver exposes the ontology operations as Model Context
// Protocol tools over streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"content-ontology/internal/ontology"
)

// Implementation identifies this server to MCP clients
var Implementation = &mcp.Implementation{Name: "content-ontology", Version: "1.0.0"}

// NewServer creates an MCP server with every ontology tool registered
func NewServer(svc *ontology.Service) *mcp.Server {
	srv := mcp.NewServer(Implementation, nil)
	registerTools(srv, svc)
	return srv
}

// Handler serves MCP over streamable HTTP. Sessions are stateless, so each
// request is answered by a fresh server.
func Handler(svc *ontology.Service) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return NewServer(svc)
	}, &mcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true})
}

func inputSchema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(description string, enum ...string) map[string]any {
	p := map[string]any{"type": "string", "description": description}
	if len(enum) > 0 {
		p["enum"] = enum
	}
	return p
}

// addTool registers a tool whose arguments decode into P
func addTool[P any](srv *mcp.Server, tool *mcp.Tool, fn func(context.Context, P) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params P
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
				return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		resp, err := fn(ctx, params)
		if err != nil {
			slog.Warn("MCP tool failed", "tool", tool.Name, "error", err)
			return errorResult(err), nil
		}

		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return errorResult(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func errorResult(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

func registerTools(srv *mcp.Server, svc *ontology.Service) {
	addTool(srv, &mcp.Tool{
		Name:        "query_content_inventory",
		Description: "Search the content inventory by topic, content type, funnel stage, audience or free text.",
		InputSchema: inputSchema(map[string]any{
			"site_id":      stringProp("Restrict to one site"),
			"topic":        stringProp("Primary topic, e.g. skiing"),
			"content_type": stringProp("Content type", ontology.ContentTypes...),
			"funnel_stage": stringProp("Funnel stage", ontology.FunnelStages...),
			"audience":     stringProp("Audience substring"),
			"search":       stringProp("Substring of path or title"),
			"limit":        map[string]any{"type": "integer", "description": "Maximum results (default 20)"},
		}),
	}, func(ctx context.Context, p ontology.QueryParams) (any, error) {
		return svc.QueryInventory(ctx, p)
	})

	addTool(srv, &mcp.Tool{
		Name:        "get_content_gaps",
		Description: "Find topics missing awareness, consideration or decision content.",
		InputSchema: inputSchema(map[string]any{
			"topic":        stringProp("Only analyze this topic"),
			"funnel_stage": stringProp("Only report topics missing this stage", ontology.FunnelStages...),
		}),
	}, func(ctx context.Context, p ontology.GapsParams) (any, error) {
		return svc.ContentGaps(ctx, p)
	})

	addTool(srv, &mcp.Tool{
		Name:        "generate_content_brief",
		Description: "Generate a content brief for a new page, grounded in existing content about the topic.",
		InputSchema: inputSchema(map[string]any{
			"topic":           stringProp("Topic of the new page"),
			"content_type":    stringProp("Content type of the new page", ontology.ContentTypes...),
			"funnel_stage":    stringProp("Target funnel stage (default consideration)", ontology.FunnelStages...),
			"target_audience": stringProp("Target audience (default: most common audience for the topic)"),
		}, "topic", "content_type"),
	}, func(ctx context.Context, p ontology.BriefParams) (any, error) {
		return svc.GenerateBrief(ctx, p)
	})

	addTool(srv, &mcp.Tool{
		Name:        "get_brand_context",
		Description: "Summarize topics, audiences, entities and content types across the inventory.",
		InputSchema: inputSchema(map[string]any{
			"aspect": stringProp("Aspect to return (default all)", ontology.Aspects...),
		}),
	}, func(ctx context.Context, p ontology.ContextParams) (any, error) {
		return svc.BrandContext(ctx, p)
	})

	addTool(srv, &mcp.Tool{
		Name:        "get_related_content",
		Description: "Find pages related to a page by topic, funnel stage or audience.",
		InputSchema: inputSchema(map[string]any{
			"path":         stringProp("Path of the source page"),
			"relationship": stringProp("Relationship kind (default all)", ontology.Relationships...),
		}, "path"),
	}, func(ctx context.Context, p ontology.RelatedParams) (any, error) {
		return svc.RelatedContent(ctx, p)
	})

	addTool(srv, &mcp.Tool{
		Name:        "get_performance_insights",
		Description: "Rank pages by score and summarize what the best and worst content have in common.",
		InputSchema: inputSchema(map[string]any{
			"metric": stringProp("Score to rank by (default overall)", ontology.ScoreMetrics...),
			"limit":  map[string]any{"type": "integer", "description": "Pages per list (default 10)"},
		}),
	}, func(ctx context.Context, p ontology.TopPerformersParams) (any, error) {
		return svc.TopPerformers(ctx, p)
	})

	addTool(srv, &mcp.Tool{
		Name:        "get_page_performance",
		Description: "Real-user metrics, scores and recommendations for one page, or an overview when no path is given.",
		InputSchema: inputSchema(map[string]any{
			"path": stringProp("Page path"),
		}),
	}, func(ctx context.Context, p ontology.PerformanceParams) (any, error) {
		return svc.Performance(ctx, p)
	})

	addTool(srv, &mcp.Tool{
		Name:        "get_performance_patterns",
		Description: "Average scores per topic, content type and funnel stage with strategy recommendations.",
		InputSchema: inputSchema(map[string]any{
			"type": stringProp("Pattern type", ontology.PatternTypes...),
		}),
	}, func(ctx context.Context, p ontology.PatternsParams) (any, error) {
		return svc.PerformancePatterns(ctx, p)
	})

	addTool(srv, &mcp.Tool{
		Name:        "list_sites",
		Description: "List onboarded sites with page and topic counts.",
		InputSchema: inputSchema(map[string]any{}),
	}, func(ctx context.Context, _ struct{}) (any, error) {
		return svc.ListSites(ctx)
	})

	addTool(srv, &mcp.Tool{
		Name:        "get_site_details",
		Description: "Details and live counts for one site.",
		InputSchema: inputSchema(map[string]any{
			"site_id": stringProp("Site identifier"),
		}, "site_id"),
	}, func(ctx context.Context, p ontology.SiteParams) (any, error) {
		return svc.GetSite(ctx, p)
	})

	addTool(srv, &mcp.Tool{
		Name:        "get_inventory_summary",
		Description: "Headline counts for the inventory, optionally for one site.",
		InputSchema: inputSchema(map[string]any{
			"site_id": stringProp("Restrict to one site"),
		}),
	}, func(ctx context.Context, p ontology.SummaryParams) (any, error) {
		return svc.InventorySummary(ctx, p)
	})
}
