package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// ItemTool handles jama_get_item.
type ItemTool struct {
	api jama.API
}

func NewItemTool(api jama.API) *ItemTool {
	return &ItemTool{api: api}
}

func (t *ItemTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_item",
		mcp.WithDescription(
			"Fetch a single Jama item by ID, including its fields, location, "+
				"current version, and lock state.",
		),
		mcp.WithNumber("item_id",
			mcp.Required(),
			mcp.Description("Item ID"),
		),
	)
}

func (t *ItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_id' is required"), nil
	}
	item, err := t.api.GetItem(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(item)
}

// ProjectItemsTool handles jama_get_project_items.
type ProjectItemsTool struct {
	api jama.API
}

func NewProjectItemsTool(api jama.API) *ProjectItemsTool {
	return &ProjectItemsTool{api: api}
}

func (t *ProjectItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_project_items",
		mcp.WithDescription("List the items of a project. Paginated, at most 50 per page."),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
		mcp.WithNumber("start_at",
			mcp.Description("Zero-based offset of the first item to return (default 0)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Page size, 1-50 (default 20)"),
		),
	)
}

func (t *ProjectItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := intArg(req, "project_id", 0)
	if projectID <= 0 {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}
	startAt, maxResults := pageArgs(req)
	items, page, err := t.api.GetAbstractItems(ctx, jama.SearchQuery{
		Project:    projectID,
		StartAt:    startAt,
		MaxResults: maxResults,
	})
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: items, PageInfo: page})
}

// ItemChildrenTool handles jama_get_item_children.
type ItemChildrenTool struct {
	api jama.API
}

func NewItemChildrenTool(api jama.API) *ItemChildrenTool {
	return &ItemChildrenTool{api: api}
}

func (t *ItemChildrenTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_item_children",
		mcp.WithDescription("List the direct children of an item in the project tree."),
		mcp.WithNumber("item_id",
			mcp.Required(),
			mcp.Description("Parent item ID"),
		),
	)
}

func (t *ItemChildrenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_id' is required"), nil
	}
	children, err := t.api.GetItemChildren(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: children})
}
