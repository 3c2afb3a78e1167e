package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/caseshelf/internal/config"
	"github.com/ziadkadry99/caseshelf/internal/embeddings"
	"github.com/ziadkadry99/caseshelf/internal/fetch"
	"github.com/ziadkadry99/caseshelf/internal/shell"
)

func sampleSiteDir(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("..", "..", "testdata", "sample_site"))
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Fatalf("testdata dir does not exist: %s", abs)
	}
	return abs
}

func newTestServer(t *testing.T, withIndex bool) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Source.Root = sampleSiteDir(t)
	cfg.Search.Dimensions = 64

	ctx := context.Background()
	session, err := shell.Load(ctx, cfg, fetch.NewDirFetcher(cfg.Source.Root), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if withIndex {
		session.BuildSearch(ctx, embeddings.NewHashEmbedder(64))
		if err := session.WaitSearch(ctx); err != nil {
			t.Fatalf("WaitSearch: %v", err)
		}
	}
	return NewServer(session, nil)
}

// resultText joins the text content of a tool result.
func resultText(result *mcp.CallToolResult) string {
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"list_cases", listCasesTool, "list_cases"},
		{"get_case", getCaseTool, "get_case"},
		{"search_cases", searchCasesTool, "search_cases"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t, false)
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.session == nil {
		t.Fatal("session not set")
	}
}

func TestHandleListCases(t *testing.T) {
	srv := newTestServer(t, false)
	ctx := context.Background()

	t.Run("all", func(t *testing.T) {
		result, err := srv.handleListCases(ctx, callRequest(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := resultText(result)
		if !strings.HasPrefix(text, "4 case(s)") {
			t.Errorf("unexpected header: %q", text)
		}
		if !strings.Contains(text, "- mentoring: Mentoring Program (Key Wins / Education)") {
			t.Errorf("mentoring line missing:\n%s", text)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		result, err := srv.handleListCases(ctx, callRequest(map[string]any{"category": "career"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := resultText(result)
		if !strings.HasPrefix(text, "2 case(s)") || strings.Contains(text, "profile") {
			t.Errorf("unexpected filtered list:\n%s", text)
		}
	})

	t.Run("empty category", func(t *testing.T) {
		result, err := srv.handleListCases(ctx, callRequest(map[string]any{"category": "later"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("an empty category should not be an error")
		}
	})
}

func TestHandleGetCase(t *testing.T) {
	srv := newTestServer(t, false)
	ctx := context.Background()

	t.Run("html case", func(t *testing.T) {
		result, err := srv.handleGetCase(ctx, callRequest(map[string]any{"id": "acme"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(result))
		}
		text := resultText(result)
		for _, want := range []string{"# Acme Corp", "Badge: Platform", "Heading: Acme billing rebuild"} {
			if !strings.Contains(text, want) {
				t.Errorf("missing %q in:\n%s", want, text)
			}
		}
	})

	t.Run("home", func(t *testing.T) {
		result, err := srv.handleGetCase(ctx, callRequest(map[string]any{"id": "home"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(resultText(result), "Badge:") {
			t.Error("home should not report a badge")
		}
	})

	t.Run("missing fragment", func(t *testing.T) {
		result, err := srv.handleGetCase(ctx, callRequest(map[string]any{"id": "globex"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error for a missing fragment")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		result, err := srv.handleGetCase(ctx, callRequest(map[string]any{"id": "nope"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error for an unknown id")
		}
	})

	t.Run("missing id", func(t *testing.T) {
		result, err := srv.handleGetCase(ctx, callRequest(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing id")
		}
	})
}

func TestHandleSearchCases(t *testing.T) {
	ctx := context.Background()

	t.Run("before index", func(t *testing.T) {
		srv := newTestServer(t, false)
		result, err := srv.handleSearchCases(ctx, callRequest(map[string]any{"query": "acme"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error before the index is built")
		}
	})

	srv := newTestServer(t, true)

	t.Run("title match", func(t *testing.T) {
		result, err := srv.handleSearchCases(ctx, callRequest(map[string]any{"query": "Acme", "limit": 10}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(result))
		}
		text := resultText(result)
		if !strings.Contains(text, "--- Result 1 ---\nID: acme\n") {
			t.Errorf("acme should rank first:\n%s", text)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		result, err := srv.handleSearchCases(ctx, callRequest(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})
}
