package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// DeleteItemTool handles jama_delete_item.
type DeleteItemTool struct {
	api jama.API
	log *zap.Logger
}

func NewDeleteItemTool(api jama.API, log *zap.Logger) *DeleteItemTool {
	return &DeleteItemTool{api: api, log: log}
}

func (t *DeleteItemTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_delete_item",
		mcp.WithDescription(
			"Delete an item and everything beneath it. Jama removes the whole "+
				"subtree, so delete a folder and its contents go with it.",
		),
		mcp.WithNumber("item_id",
			mcp.Required(),
			mcp.Description("Item ID"),
		),
	)
}

func (t *DeleteItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_id' is required"), nil
	}
	if err := t.api.DeleteItem(ctx, id); err != nil {
		return apiResult(err)
	}
	t.log.Info("item deleted", zap.Int("item", id))
	return jsonResult(map[string]any{
		"deleted": true,
		"message": fmt.Sprintf("item %d deleted", id),
	})
}
