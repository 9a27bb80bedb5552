package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// ConnectionTool handles jama_test_connection.
type ConnectionTool struct {
	api    jama.API
	target string
}

// NewConnectionTool creates a ConnectionTool. target is the instance URL,
// or a mode label like "mock" when no live instance is configured.
func NewConnectionTool(api jama.API, target string) *ConnectionTool {
	return &ConnectionTool{api: api, target: target}
}

func (t *ConnectionTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_test_connection",
		mcp.WithDescription(
			"Test connectivity and authentication against the configured Jama Connect instance. "+
				"Call this first if other tools fail, to separate connection problems from bad arguments.",
		),
	)
}

func (t *ConnectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.api.Ping(ctx); err != nil {
		return apiResult(err)
	}
	return jsonResult(map[string]any{
		"connected": true,
		"target":    t.target,
	})
}
