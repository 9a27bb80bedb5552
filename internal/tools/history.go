package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// ItemHistoryTool handles jama_get_item_history.
type ItemHistoryTool struct {
	api jama.API
}

func NewItemHistoryTool(api jama.API) *ItemHistoryTool {
	return &ItemHistoryTool{api: api}
}

func (t *ItemHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_item_history",
		mcp.WithDescription(
			"List the version history of an item, oldest first. Each entry carries "+
				"the version number, the name at that version, and the change comment.",
		),
		mcp.WithNumber("item_id",
			mcp.Required(),
			mcp.Description("Item ID"),
		),
		mcp.WithNumber("start_at",
			mcp.Description("Zero-based offset of the first version (default 0)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Page size, 1-50 (default 20)"),
		),
	)
}

func (t *ItemHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_id' is required"), nil
	}
	startAt, maxResults := pageArgs(req)
	versions, page, err := t.api.GetItemVersions(ctx, id, startAt, maxResults)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: versions, PageInfo: page})
}
