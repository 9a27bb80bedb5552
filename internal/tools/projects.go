package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// ProjectsTool handles jama_get_projects.
type ProjectsTool struct {
	api jama.API
}

func NewProjectsTool(api jama.API) *ProjectsTool {
	return &ProjectsTool{api: api}
}

func (t *ProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_projects",
		mcp.WithDescription("List Jama projects. Paginated; use start_at to fetch further pages."),
		mcp.WithNumber("start_at",
			mcp.Description("Zero-based offset of the first project to return (default 0)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Page size, 1-50 (default 20)"),
		),
	)
}

func (t *ProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startAt, maxResults := pageArgs(req)
	projects, page, err := t.api.GetProjects(ctx, startAt, maxResults)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: projects, PageInfo: page})
}

// ProjectTool handles jama_get_project.
type ProjectTool struct {
	api jama.API
}

func NewProjectTool(api jama.API) *ProjectTool {
	return &ProjectTool{api: api}
}

func (t *ProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_project",
		mcp.WithDescription("Fetch a single Jama project by its numeric ID."),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
	)
}

func (t *ProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "project_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}
	project, err := t.api.GetProject(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(project)
}
