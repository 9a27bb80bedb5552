// Package prompts implements MCP prompt handlers for the Jama server.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ItemReviewPrompt handles the jama_item_review MCP prompt.
// It guides the AI through a structured review of a single item.
type ItemReviewPrompt struct{}

// NewItemReviewPrompt creates an ItemReviewPrompt.
func NewItemReviewPrompt() *ItemReviewPrompt {
	return &ItemReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ItemReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("jama_item_review",
		mcp.WithPromptDescription(
			"Review a Jama item in depth: its fields, history, traceability, "+
				"and attachments, ending with an assessment of its quality.",
		),
		mcp.WithArgument("item_id",
			mcp.ArgumentDescription("ID of the item to review"),
		),
	)
}

// Handle processes the jama_item_review prompt request.
func (p *ItemReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	itemID := ""
	if args := req.Params.Arguments; args != nil {
		itemID = args["item_id"]
	}

	intro := "I want to review a Jama item."
	fetch := "1. Ask me for the item ID, then run `jama_get_item` with it\n"
	if itemID != "" {
		intro = fmt.Sprintf("I want to review Jama item %s.", itemID)
		fetch = fmt.Sprintf("1. Run `jama_get_item` with item_id=%s\n", itemID)
	}

	return &mcp.GetPromptResult{
		Description: "Jama item review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(intro + "\n\nPlease:\n" +
					fetch +
					"2. Run `jama_get_item_history` on it and note how the item evolved\n" +
					"3. Run `jama_get_relationships` with the item_id and check both directions: " +
					"what it derives from upstream and what verifies it downstream\n" +
					"4. Run `jama_get_item_attachments` and mention any supporting files\n" +
					"5. Resolve pick-list-valued fields (status, priority) to their display names " +
					"via `jama_get_pick_list_options`\n\n" +
					"Then give me a review covering:\n" +
					"- A one-paragraph summary of the item and its current state\n" +
					"- Whether the description is testable and unambiguous\n" +
					"- Traceability gaps: missing upstream sources or downstream verification\n" +
					"- Whether the item is locked and by whom, if that blocks edits\n" +
					"- Concrete suggested changes, if any (do not apply them without my go-ahead)"),
			},
		},
	}, nil
}
