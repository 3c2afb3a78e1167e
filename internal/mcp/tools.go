package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listCasesTool defines the list_cases MCP tool.
var listCasesTool = mcp.NewTool("list_cases",
	mcp.WithDescription("List every case in the library with its category and subcategory."),
	mcp.WithString("category",
		mcp.Description("Only list cases in the category with this id"),
	),
)

// getCaseTool defines the get_case MCP tool.
var getCaseTool = mcp.NewTool("get_case",
	mcp.WithDescription("Get the title, badge and full text of a single case."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Case id as it appears in the manifest"),
	),
)

// searchCasesTool defines the search_cases MCP tool.
var searchCasesTool = mcp.NewTool("search_cases",
	mcp.WithDescription("Search cases by meaning. Title matches rank first."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
)
