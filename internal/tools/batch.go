package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// maxBatchSize caps how many entries one batch call may carry.
const maxBatchSize = 100

// batchError records a failed batch entry by its zero-based index.
// Processing is sequential and stops at the first failure, so entries
// after the recorded index were never attempted.
type batchError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// listArg extracts an array argument that may arrive as a JSON array or
// as a string containing one.
func listArg(req mcp.CallToolRequest, key string) ([]map[string]any, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []any:
		entries := make([]map[string]any, 0, len(v))
		for _, elem := range v {
			entry, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("'%s' must be an array of objects", key)
			}
			entries = append(entries, entry)
		}
		return entries, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var entries []map[string]any
		if err := json.Unmarshal([]byte(v), &entries); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s", key)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("'%s' must be an array of objects", key)
	}
}

// entryInt reads an integer key from a decoded batch entry.
func entryInt(entry map[string]any, key string) int {
	v, ok := entry[key].(float64)
	if !ok {
		return 0
	}
	return int(v)
}

// BatchCreateItemsTool handles jama_batch_create_items.
type BatchCreateItemsTool struct {
	api jama.API
	log *zap.Logger
}

func NewBatchCreateItemsTool(api jama.API, log *zap.Logger) *BatchCreateItemsTool {
	return &BatchCreateItemsTool{api: api, log: log}
}

func (t *BatchCreateItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_batch_create_items",
		mcp.WithDescription(
			"Create up to 100 items in one call. Entries are processed in "+
				"order and the batch stops at the first failure; the result "+
				"reports which entries succeeded and where it stopped.",
		),
		mcp.WithString("items",
			mcp.Required(),
			mcp.Description(
				"JSON array of items, each with project, item_type, name, and "+
					"optional description, parent_id, fields",
			),
		),
	)
}

func (t *BatchCreateItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := listArg(req, "items")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultError("'items' is required"), nil
	}
	if len(entries) > maxBatchSize {
		return mcp.NewToolResultError(fmt.Sprintf(
			"batch size %d exceeds maximum of %d", len(entries), maxBatchSize,
		)), nil
	}

	created := []map[string]any{}
	errs := []batchError{}
	for i, entry := range entries {
		id, err := t.createEntry(ctx, i, entry)
		if err != nil {
			errs = append(errs, batchError{Index: i, Error: err.Error()})
			break
		}
		created = append(created, map[string]any{"index": i, "id": id})
	}

	t.log.Info("batch create finished",
		zap.Int("total", len(entries)),
		zap.Int("succeeded", len(created)),
		zap.Int("failed", len(errs)),
	)
	return jsonResult(map[string]any{
		"total":         len(entries),
		"succeeded":     len(created),
		"failed":        len(errs),
		"created_items": created,
		"errors":        errs,
	})
}

func (t *BatchCreateItemsTool) createEntry(ctx context.Context, index int, entry map[string]any) (int, error) {
	projectID := entryInt(entry, "project")
	if projectID <= 0 {
		return 0, fmt.Errorf("create at index %d missing required 'project'", index)
	}
	itemTypeID := entryInt(entry, "item_type")
	if itemTypeID <= 0 {
		return 0, fmt.Errorf("create at index %d missing required 'item_type'", index)
	}
	name, _ := entry["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("create at index %d missing required 'name'", index)
	}

	custom, _ := entry["fields"].(map[string]any)
	fields := make(map[string]any, len(custom)+2)
	for k, v := range custom {
		fields[k] = v
	}
	fields["name"] = name
	if desc, _ := entry["description"].(string); desc != "" {
		fields["description"] = desc
	}

	createReq := jama.CreateItemRequest{
		Project:  projectID,
		ItemType: itemTypeID,
		Location: jama.Location{Parent: &jama.ParentRef{Project: projectID}},
		Fields:   fields,
	}
	if parentID := entryInt(entry, "parent_id"); parentID > 0 {
		createReq.Location.Parent = &jama.ParentRef{Item: parentID}
	}
	return t.api.CreateItem(ctx, createReq)
}

// BatchUpdateItemsTool handles jama_batch_update_items.
type BatchUpdateItemsTool struct {
	api jama.API
	log *zap.Logger
}

func NewBatchUpdateItemsTool(api jama.API, log *zap.Logger) *BatchUpdateItemsTool {
	return &BatchUpdateItemsTool{api: api, log: log}
}

func (t *BatchUpdateItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_batch_update_items",
		mcp.WithDescription(
			"Update up to 100 items in one call. Each entry goes through the "+
				"same guarded flow as jama_update_item, including the lock check. "+
				"Entries are processed in order and the batch stops at the first "+
				"failure.",
		),
		mcp.WithString("updates",
			mcp.Required(),
			mcp.Description("JSON array of updates, each with item_id and a fields object"),
		),
	)
}

func (t *BatchUpdateItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := listArg(req, "updates")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultError("'updates' is required"), nil
	}
	if len(entries) > maxBatchSize {
		return mcp.NewToolResultError(fmt.Sprintf(
			"batch size %d exceeds maximum of %d", len(entries), maxBatchSize,
		)), nil
	}

	updated := []map[string]any{}
	errs := []batchError{}
	for i, entry := range entries {
		result, err := t.updateEntry(ctx, i, entry)
		if err != nil {
			errs = append(errs, batchError{Index: i, Error: err.Error()})
			break
		}
		updated = append(updated, result)
	}

	t.log.Info("batch update finished",
		zap.Int("total", len(entries)),
		zap.Int("succeeded", len(updated)),
		zap.Int("failed", len(errs)),
	)
	return jsonResult(map[string]any{
		"total":         len(entries),
		"succeeded":     len(updated),
		"failed":        len(errs),
		"updated_items": updated,
		"errors":        errs,
	})
}

func (t *BatchUpdateItemsTool) updateEntry(ctx context.Context, index int, entry map[string]any) (map[string]any, error) {
	id := entryInt(entry, "item_id")
	if id <= 0 {
		return nil, fmt.Errorf("update at index %d missing required 'item_id'", index)
	}
	fields, _ := entry["fields"].(map[string]any)
	if len(fields) == 0 {
		return nil, fmt.Errorf("update at index %d missing required 'fields'", index)
	}

	outcome, err := updateItemFields(ctx, t.api, t.log, id, fields)
	if err != nil {
		return nil, err
	}
	result := map[string]any{
		"index":       index,
		"item_id":     id,
		"old_version": outcome.OldVersion,
		"new_version": outcome.NewVersion,
	}
	if outcome.VersionWarning != "" {
		result["version_warning"] = outcome.VersionWarning
	}
	return result, nil
}
