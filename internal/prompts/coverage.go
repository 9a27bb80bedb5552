package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// CoverageCheckPrompt handles the jama_coverage_check MCP prompt.
// It drives a traceability walk over a project: which requirements have
// downstream verification and how the linked test runs stand.
type CoverageCheckPrompt struct{}

// NewCoverageCheckPrompt creates a CoverageCheckPrompt.
func NewCoverageCheckPrompt() *CoverageCheckPrompt {
	return &CoverageCheckPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CoverageCheckPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("jama_coverage_check",
		mcp.WithPromptDescription(
			"Walk a project's requirements and report verification coverage: "+
				"which requirements lack downstream links and how their test "+
				"runs are doing.",
		),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("ID of the project to analyze"),
		),
	)
}

// Handle processes the jama_coverage_check prompt request.
func (p *CoverageCheckPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectID := ""
	if args := req.Params.Arguments; args != nil {
		projectID = args["project_id"]
	}

	intro := "I want a requirements coverage report for a Jama project."
	scope := "1. Ask me for the project ID, then run `jama_get_project` to confirm it\n"
	if projectID != "" {
		intro = fmt.Sprintf("I want a requirements coverage report for Jama project %s.", projectID)
		scope = fmt.Sprintf("1. Run `jama_get_project` with project_id=%s to confirm the project\n", projectID)
	}

	return &mcp.GetPromptResult{
		Description: "Jama coverage check",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(intro + "\n\nPlease:\n" +
					scope +
					"2. Run `jama_get_item_types` with the project_id and identify the " +
					"requirement and test case types\n" +
					"3. Run `jama_search_items` filtered by the project and the requirement " +
					"type to collect every requirement\n" +
					"4. Run `jama_get_relationships` with the project_id and map which " +
					"requirements have downstream links to test cases\n" +
					"5. Run `jama_get_test_plans`, then `jama_get_test_cycles` and " +
					"`jama_get_test_runs`, and resolve each run's execution_status via " +
					"`jama_get_pick_list_options`\n\n" +
					"Then report:\n" +
					"- Requirements with no downstream verification link, as the critical list\n" +
					"- Requirements whose linked test runs failed, are blocked, or never ran\n" +
					"- Overall coverage as a fraction of requirements verified\n" +
					"- A short recommendation of what to fix first"),
			},
		},
	}, nil
}
