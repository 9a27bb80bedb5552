package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// BaselinesTool handles jama_get_baselines.
type BaselinesTool struct {
	api jama.API
}

func NewBaselinesTool(api jama.API) *BaselinesTool {
	return &BaselinesTool{api: api}
}

func (t *BaselinesTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_baselines",
		mcp.WithDescription("List the baselines of a project."),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
	)
}

func (t *BaselinesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "project_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}
	baselines, err := t.api.GetBaselines(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: baselines})
}

// BaselineTool handles jama_get_baseline.
type BaselineTool struct {
	api jama.API
}

func NewBaselineTool(api jama.API) *BaselineTool {
	return &BaselineTool{api: api}
}

func (t *BaselineTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_baseline",
		mcp.WithDescription("Fetch a single baseline by ID."),
		mcp.WithNumber("baseline_id",
			mcp.Required(),
			mcp.Description("Baseline ID"),
		),
	)
}

func (t *BaselineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "baseline_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'baseline_id' is required"), nil
	}
	baseline, err := t.api.GetBaseline(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(baseline)
}

// BaselineItemsTool handles jama_get_baseline_items.
type BaselineItemsTool struct {
	api jama.API
}

func NewBaselineItemsTool(api jama.API) *BaselineItemsTool {
	return &BaselineItemsTool{api: api}
}

func (t *BaselineItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_baseline_items",
		mcp.WithDescription(
			"List the items captured in a baseline. Baselines are frozen, so "+
				"this reflects the project at snapshot time, not its current state.",
		),
		mcp.WithNumber("baseline_id",
			mcp.Required(),
			mcp.Description("Baseline ID"),
		),
	)
}

func (t *BaselineItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "baseline_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'baseline_id' is required"), nil
	}
	items, err := t.api.GetBaselineItems(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: items})
}
