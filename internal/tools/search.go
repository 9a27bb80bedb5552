package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// SearchItemsTool handles jama_search_items.
type SearchItemsTool struct {
	api jama.API
}

func NewSearchItemsTool(api jama.API) *SearchItemsTool {
	return &SearchItemsTool{api: api}
}

func (t *SearchItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_search_items",
		mcp.WithDescription(
			"Search Jama items by contained text, document key, project, or item type. "+
				"At least one filter must be given. Paginated, at most 50 per page.",
		),
		mcp.WithString("contains",
			mcp.Description("Text that must appear in the item's name or description"),
		),
		mcp.WithString("document_key",
			mcp.Description("Exact document key, e.g. PRJ-REQ-12"),
		),
		mcp.WithNumber("project_id",
			mcp.Description("Restrict results to one project"),
		),
		mcp.WithNumber("item_type_id",
			mcp.Description("Restrict results to one item type"),
		),
		mcp.WithNumber("start_at",
			mcp.Description("Zero-based offset of the first result (default 0)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Page size, 1-50 (default 20)"),
		),
	)
}

func (t *SearchItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := jama.SearchQuery{
		Contains:    strings.TrimSpace(req.GetString("contains", "")),
		DocumentKey: strings.TrimSpace(req.GetString("document_key", "")),
		Project:     intArg(req, "project_id", 0),
		ItemType:    intArg(req, "item_type_id", 0),
	}
	if q.Contains == "" && q.DocumentKey == "" && q.Project == 0 && q.ItemType == 0 {
		return mcp.NewToolResultError(
			"at least one of 'contains', 'document_key', 'project_id', or 'item_type_id' is required",
		), nil
	}
	q.StartAt, q.MaxResults = pageArgs(req)

	items, page, err := t.api.GetAbstractItems(ctx, q)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: items, PageInfo: page})
}
