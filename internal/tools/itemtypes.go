package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// ItemTypesTool handles jama_get_item_types.
type ItemTypesTool struct {
	api jama.API
}

func NewItemTypesTool(api jama.API) *ItemTypesTool {
	return &ItemTypesTool{api: api}
}

func (t *ItemTypesTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_item_types",
		mcp.WithDescription(
			"List item types. With project_id, only the types available in that project.",
		),
		mcp.WithNumber("project_id",
			mcp.Description("Restrict to types available in this project"),
		),
	)
}

func (t *ItemTypesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		types []jama.ItemType
		err   error
	)
	if projectID := intArg(req, "project_id", 0); projectID > 0 {
		types, err = t.api.GetProjectItemTypes(ctx, projectID)
	} else {
		types, err = t.api.GetItemTypes(ctx)
	}
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: types})
}

// ItemTypeTool handles jama_get_item_type.
type ItemTypeTool struct {
	api jama.API
}

func NewItemTypeTool(api jama.API) *ItemTypeTool {
	return &ItemTypeTool{api: api}
}

func (t *ItemTypeTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_item_type",
		mcp.WithDescription("Fetch a single item type, including its field schema."),
		mcp.WithNumber("item_type_id",
			mcp.Required(),
			mcp.Description("Item type ID"),
		),
	)
}

func (t *ItemTypeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_type_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_type_id' is required"), nil
	}
	itemType, err := t.api.GetItemType(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(itemType)
}

// ItemTypeFieldsTool handles jama_get_item_type_fields.
type ItemTypeFieldsTool struct {
	api jama.API
}

func NewItemTypeFieldsTool(api jama.API) *ItemTypeFieldsTool {
	return &ItemTypeFieldsTool{api: api}
}

func (t *ItemTypeFieldsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_item_type_fields",
		mcp.WithDescription(
			"List the field definitions of an item type: name, label, data type, "+
				"required flag, and the pick list backing option-valued fields.",
		),
		mcp.WithNumber("item_type_id",
			mcp.Required(),
			mcp.Description("Item type ID"),
		),
	)
}

func (t *ItemTypeFieldsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_type_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_type_id' is required"), nil
	}
	itemType, err := t.api.GetItemType(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(map[string]any{
		"itemType": itemType.ID,
		"name":     itemType.Display,
		"fields":   itemType.Fields,
	})
}
