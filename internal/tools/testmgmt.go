package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// TestPlansTool handles jama_get_test_plans.
type TestPlansTool struct {
	api jama.API
}

func NewTestPlansTool(api jama.API) *TestPlansTool {
	return &TestPlansTool{api: api}
}

func (t *TestPlansTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_test_plans",
		mcp.WithDescription("List the test plans of a project."),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
	)
}

func (t *TestPlansTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "project_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}
	plans, err := t.api.GetTestPlans(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: plans})
}

// TestCyclesTool handles jama_get_test_cycles.
type TestCyclesTool struct {
	api jama.API
}

func NewTestCyclesTool(api jama.API) *TestCyclesTool {
	return &TestCyclesTool{api: api}
}

func (t *TestCyclesTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_test_cycles",
		mcp.WithDescription("List the test cycles of a test plan."),
		mcp.WithNumber("test_plan_id",
			mcp.Required(),
			mcp.Description("Test plan ID"),
		),
	)
}

func (t *TestCyclesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "test_plan_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'test_plan_id' is required"), nil
	}
	cycles, err := t.api.GetTestCycles(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: cycles})
}

// TestCycleTool handles jama_get_test_cycle.
type TestCycleTool struct {
	api jama.API
}

func NewTestCycleTool(api jama.API) *TestCycleTool {
	return &TestCycleTool{api: api}
}

func (t *TestCycleTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_test_cycle",
		mcp.WithDescription("Fetch a single test cycle by ID."),
		mcp.WithNumber("test_cycle_id",
			mcp.Required(),
			mcp.Description("Test cycle ID"),
		),
	)
}

func (t *TestCycleTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "test_cycle_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'test_cycle_id' is required"), nil
	}
	cycle, err := t.api.GetTestCycle(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(cycle)
}

// TestRunsTool handles jama_get_test_runs.
type TestRunsTool struct {
	api jama.API
}

func NewTestRunsTool(api jama.API) *TestRunsTool {
	return &TestRunsTool{api: api}
}

func (t *TestRunsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_test_runs",
		mcp.WithDescription(
			"List the test runs of a test cycle. Run fields carry the execution "+
				"status as a pick list option ID.",
		),
		mcp.WithNumber("test_cycle_id",
			mcp.Required(),
			mcp.Description("Test cycle ID"),
		),
	)
}

func (t *TestRunsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "test_cycle_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'test_cycle_id' is required"), nil
	}
	runs, err := t.api.GetTestRuns(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: runs})
}

// TestRunTool handles jama_get_test_run.
type TestRunTool struct {
	api jama.API
}

func NewTestRunTool(api jama.API) *TestRunTool {
	return &TestRunTool{api: api}
}

func (t *TestRunTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_test_run",
		mcp.WithDescription("Fetch a single test run by ID."),
		mcp.WithNumber("test_run_id",
			mcp.Required(),
			mcp.Description("Test run ID"),
		),
	)
}

func (t *TestRunTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "test_run_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'test_run_id' is required"), nil
	}
	run, err := t.api.GetTestRun(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(run)
}
