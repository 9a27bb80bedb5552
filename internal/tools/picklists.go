package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// PickListsTool handles jama_get_pick_lists.
type PickListsTool struct {
	api jama.API
}

func NewPickListsTool(api jama.API) *PickListsTool {
	return &PickListsTool{api: api}
}

func (t *PickListsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_pick_lists",
		mcp.WithDescription("List the pick lists defined on the instance."),
	)
}

func (t *PickListsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lists, err := t.api.GetPickLists(ctx)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: lists})
}

// PickListTool handles jama_get_pick_list.
type PickListTool struct {
	api jama.API
}

func NewPickListTool(api jama.API) *PickListTool {
	return &PickListTool{api: api}
}

func (t *PickListTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_pick_list",
		mcp.WithDescription("Fetch a single pick list by ID."),
		mcp.WithNumber("pick_list_id",
			mcp.Required(),
			mcp.Description("Pick list ID"),
		),
	)
}

func (t *PickListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "pick_list_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'pick_list_id' is required"), nil
	}
	list, err := t.api.GetPickList(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(list)
}

// PickListOptionsTool handles jama_get_pick_list_options.
type PickListOptionsTool struct {
	api jama.API
}

func NewPickListOptionsTool(api jama.API) *PickListOptionsTool {
	return &PickListOptionsTool{api: api}
}

func (t *PickListOptionsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_pick_list_options",
		mcp.WithDescription(
			"List the options of a pick list. Option IDs are what item fields "+
				"store, so use these when setting option-valued fields.",
		),
		mcp.WithNumber("pick_list_id",
			mcp.Required(),
			mcp.Description("Pick list ID"),
		),
	)
}

func (t *PickListOptionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "pick_list_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'pick_list_id' is required"), nil
	}
	options, err := t.api.GetPickListOptions(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: options})
}

// PickListOptionTool handles jama_get_pick_list_option.
type PickListOptionTool struct {
	api jama.API
}

func NewPickListOptionTool(api jama.API) *PickListOptionTool {
	return &PickListOptionTool{api: api}
}

func (t *PickListOptionTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_pick_list_option",
		mcp.WithDescription("Fetch a single pick list option by ID."),
		mcp.WithNumber("option_id",
			mcp.Required(),
			mcp.Description("Pick list option ID"),
		),
	)
}

func (t *PickListOptionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "option_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'option_id' is required"), nil
	}
	option, err := t.api.GetPickListOption(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(option)
}
