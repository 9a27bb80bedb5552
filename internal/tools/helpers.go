// Package tools implements the MCP tool catalog for Jama Connect.
//
// Each tool follows the same pattern:
// - A struct holding its dependencies (jama.API, archive.Store, logger)
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Argument validation failures and Jama application errors (4xx) come
// back as tool error results so the calling agent can correct itself;
// transport and internal failures return a wrapped Go error instead.
// Successful results are JSON payloads rendered as text content.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// pageArgs extracts the standard start_at/max_results pagination pair.
func pageArgs(req mcp.CallToolRequest) (startAt, maxResults int) {
	return intArg(req, "start_at", 0), intArg(req, "max_results", 20)
}

// fieldsArg extracts a field map argument that may arrive either as a
// JSON object or as a string containing JSON.
func fieldsArg(req mcp.CallToolRequest, key string) (map[string]any, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(v), &fields); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s", key)
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("'%s' must be a JSON object", key)
	}
}

// jsonResult marshals v as the tool's text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// pagedResult mirrors Jama's list envelope in tool output.
type pagedResult struct {
	Data     any            `json:"data"`
	PageInfo *jama.PageInfo `json:"pageInfo,omitempty"`
}

// apiResult converts a client error into the right MCP shape: Jama
// application errors become tool error results, everything else is an
// internal failure.
func apiResult(err error) (*mcp.CallToolResult, error) {
	var apiErr *jama.Error
	if errors.As(err, &apiErr) {
		return mcp.NewToolResultError(apiErr.Error()), nil
	}
	return nil, err
}
