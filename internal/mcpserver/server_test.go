package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"content-ontology/internal/database"
	"content-ontology/internal/ontology"
)

var testImpl = &mcp.Implementation{Name: "content-ontology-test", Version: "0.1.0"}

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) *ontology.Service {
	t.Helper()

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.UpsertSite(ctx, &database.Site{ID: "wknd", Name: "WKND"}); err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}
	pages := map[string]*database.Analysis{
		"/magazine/skiing": {ContentType: "article", PrimaryTopic: "skiing", FunnelStage: "awareness", Audiences: []string{"beginners"}},
		"/adventures/ski":  {ContentType: "adventure", PrimaryTopic: "skiing", FunnelStage: "consideration", Audiences: []string{"beginners"}},
	}
	for path, analysis := range pages {
		if err := db.UpsertCrawledPage(ctx, &database.CrawledPage{Path: path, SiteID: strPtr("wknd"), Title: path}); err != nil {
			t.Fatalf("Failed to store page: %v", err)
		}
		if err := db.StoreAnalysis(ctx, path, analysis); err != nil {
			t.Fatalf("Failed to store analysis: %v", err)
		}
	}

	templates, err := ontology.LoadTemplates()
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}
	return ontology.NewService(db, templates, ontology.Options{})
}

func newSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	srv := NewServer(newTestService(t))

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	session, err := mcp.NewClient(testImpl, nil).Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("Failed to connect client: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("Failed to call %s: %v", name, err)
	}
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("Expected content")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return tc.Text
}

func TestListTools(t *testing.T) {
	session := newSession(t)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("Failed to list tools: %v", err)
	}

	want := []string{
		"query_content_inventory", "get_content_gaps", "generate_content_brief",
		"get_brand_context", "get_related_content", "get_performance_insights",
		"get_page_performance", "get_performance_patterns", "list_sites",
		"get_site_details", "get_inventory_summary",
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("Expected tool %s to be registered", name)
		}
	}
	if len(res.Tools) != len(want) {
		t.Errorf("Expected %d tools, got %d", len(want), len(res.Tools))
	}
}

func TestContentGapsTool(t *testing.T) {
	session := newSession(t)

	result := callTool(t, session, "get_content_gaps", map[string]any{"topic": "skiing"})
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", text(t, result))
	}

	var resp ontology.GapsResult
	if err := json.Unmarshal([]byte(text(t, result)), &resp); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if len(resp.Gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(resp.Gaps))
	}
	if resp.Gaps[0].Priority != ontology.PriorityMedium {
		t.Errorf("Expected medium priority, got %s", resp.Gaps[0].Priority)
	}
}

func TestQueryTool(t *testing.T) {
	session := newSession(t)

	result := callTool(t, session, "query_content_inventory", map[string]any{"content_type": "adventure", "limit": 5})
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", text(t, result))
	}

	var resp ontology.QueryResult
	if err := json.Unmarshal([]byte(text(t, result)), &resp); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if resp.Count != 1 || resp.Pages[0].Path != "/adventures/ski" {
		t.Errorf("Unexpected pages: %+v", resp.Pages)
	}
}

func TestToolErrors(t *testing.T) {
	session := newSession(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"missing brief fields", "generate_content_brief", map[string]any{"topic": "skiing"}, "topic and content_type are required"},
		{"unknown page", "get_related_content", map[string]any{"path": "/missing"}, "page not found"},
		{"bad enum", "get_brand_context", map[string]any{"aspect": "colors"}, "aspect must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, session, tt.tool, tt.args)
			if !result.IsError {
				t.Fatal("Expected tool error")
			}
			if got := text(t, result); !strings.Contains(got, tt.want) {
				t.Errorf("Expected error containing %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNoArgumentTool(t *testing.T) {
	session := newSession(t)

	result := callTool(t, session, "list_sites", map[string]any{})
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", text(t, result))
	}

	var resp ontology.SitesResult
	if err := json.Unmarshal([]byte(text(t, result)), &resp); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("Expected 1 site, got %d", resp.Count)
	}
}

func TestHandlerRejectsGet(t *testing.T) {
	handler := Handler(newTestService(t))

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code < 400 {
		t.Errorf("Expected an error status for a bare GET, got %d", w.Code)
	}
}
