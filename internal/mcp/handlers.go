package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/search"
	"github.com/ziadkadry99/caseshelf/internal/shell"
)

// handleListCases lists the manifest's cases in sidebar order.
func (s *Server) handleListCases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.session.Err(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("manifest unavailable: %v", err)), nil
	}
	category := request.GetString("category", "")

	var sb strings.Builder
	n := 0
	for _, c := range s.session.Manifest.Cases() {
		loc, _ := s.session.Manifest.Lookup(c.ID)
		if category != "" && loc.Category.ID != category {
			continue
		}
		n++
		sb.WriteString(fmt.Sprintf("- %s: %s (%s", c.ID, c.Title, loc.Category.Name))
		if loc.Subcategory != nil {
			sb.WriteString(" / " + loc.Subcategory.Name)
		}
		sb.WriteString(")\n")
	}
	if n == 0 {
		if category != "" {
			return mcp.NewToolResultText(fmt.Sprintf("No cases in category %q.", category)), nil
		}
		return mcp.NewToolResultText("The library has no cases."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d case(s):\n%s", n, sb.String())), nil
}

// handleGetCase loads a case fragment and returns its text.
func (s *Server) handleGetCase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	if err := s.session.Err(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("manifest unavailable: %v", err)), nil
	}

	c, ok := s.session.Lookup(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No case with id %q. Use list_cases to see the available ids.", id)), nil
	}
	frag, err := s.session.Loader.Load(ctx, c.Src)
	if err != nil {
		s.log.Warn("get_case fragment failed", zap.String("id", id), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to load %s: %v", c.Src, err)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n", c.Title))
	if id != s.session.Config.Site.HomeID {
		sb.WriteString(fmt.Sprintf("Badge: %s\n", frag.BadgeTitle(s.session.Config.Site.FallbackTitle)))
	}
	if h := frag.Heading(); h != "" {
		sb.WriteString(fmt.Sprintf("Heading: %s\n", h))
	}
	sb.WriteString(fmt.Sprintf("Source: %s\n\n", c.Src))
	sb.WriteString(frag.Text())
	sb.WriteString("\n")
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearchCases runs a query against the session's search index.
func (s *Server) handleSearchCases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", search.DefaultLimit)
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	idx, err := s.session.Index()
	if err != nil {
		if errors.Is(err, shell.ErrSearchUnavailable) {
			return mcp.NewToolResultError("Search is not ready yet. Try again shortly."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("search unavailable: %v", err)), nil
	}

	results, err := idx.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}
	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// formatSearchResults converts search results into a text format suited to
// agent consumption.
func formatSearchResults(results []search.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("ID: %s\n", r.ID))
		sb.WriteString(fmt.Sprintf("Title: %s\n", r.Title))
		location := r.Category
		if r.Subcategory != "" {
			location += " / " + r.Subcategory
		}
		sb.WriteString(fmt.Sprintf("Category: %s\n", location))
		sb.WriteString(fmt.Sprintf("Similarity: %.1f%%\n", r.Similarity*100))
	}

	return sb.String()
}
