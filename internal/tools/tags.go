package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// TagsTool handles jama_get_tags.
type TagsTool struct {
	api jama.API
}

func NewTagsTool(api jama.API) *TagsTool {
	return &TagsTool{api: api}
}

func (t *TagsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_tags",
		mcp.WithDescription("List the tags defined in a project."),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
	)
}

func (t *TagsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "project_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}
	tags, err := t.api.GetTags(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: tags})
}

// TaggedItemsTool handles jama_get_tagged_items.
type TaggedItemsTool struct {
	api jama.API
}

func NewTaggedItemsTool(api jama.API) *TaggedItemsTool {
	return &TaggedItemsTool{api: api}
}

func (t *TaggedItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_tagged_items",
		mcp.WithDescription("List the items carrying a tag."),
		mcp.WithNumber("tag_id",
			mcp.Required(),
			mcp.Description("Tag ID"),
		),
	)
}

func (t *TaggedItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "tag_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'tag_id' is required"), nil
	}
	items, err := t.api.GetTaggedItems(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: items})
}
