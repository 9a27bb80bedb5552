package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/jama"
	"github.com/irisworks/jama-mcp/internal/jsonpatch"
)

// UpdateItemTool handles jama_update_item.
type UpdateItemTool struct {
	api jama.API
	log *zap.Logger
}

func NewUpdateItemTool(api jama.API, log *zap.Logger) *UpdateItemTool {
	return &UpdateItemTool{api: api, log: log}
}

func (t *UpdateItemTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_update_item",
		mcp.WithDescription(
			"Update fields on an item via JSON Patch. Only the given fields "+
				"change; everything else is left alone. Locked items are rejected "+
				"before any update is attempted.",
		),
		mcp.WithNumber("item_id",
			mcp.Required(),
			mcp.Description("Item ID"),
		),
		mcp.WithString("fields",
			mcp.Required(),
			mcp.Description("Fields to set as a JSON object, e.g. {\"status\": 292, \"description\": \"...\"}"),
		),
	)
}

func (t *UpdateItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_id' is required"), nil
	}
	fields, err := fieldsArg(req, "fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := updateItemFields(ctx, t.api, t.log, id, fields)
	if err != nil {
		var apiErr *jama.Error
		if errors.As(err, &apiErr) {
			return apiResult(err)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(outcome)
}

// itemUpdateOutcome is the per-item result of a guarded update: the fresh
// item, the version transition, and a warning when the version failed to
// move forward.
type itemUpdateOutcome struct {
	Item           *jama.Item `json:"item"`
	OldVersion     int        `json:"old_version"`
	NewVersion     int        `json:"new_version"`
	VersionWarning string     `json:"version_warning,omitempty"`
}

// updateItemFields runs the guarded update flow shared by jama_update_item
// and jama_batch_update_items: lock check, patch build, PATCH, read-back,
// version check. Non-API errors it returns are safe to show the caller.
func updateItemFields(ctx context.Context, api jama.API, log *zap.Logger, id int, fields map[string]any) (*itemUpdateOutcome, error) {
	before, err := api.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.IsLocked() {
		if before.Lock != nil && before.Lock.LockedBy != 0 {
			return nil, fmt.Errorf("cannot update locked item %d (locked by user %d)", id, before.Lock.LockedBy)
		}
		return nil, fmt.Errorf("cannot update locked item %d", id)
	}

	ops, err := jsonpatch.FromFields(fields)
	if err != nil {
		return nil, err
	}
	if err := jsonpatch.Validate(ops); err != nil {
		return nil, err
	}
	if err := api.PatchItem(ctx, id, ops); err != nil {
		return nil, err
	}

	after, err := api.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	outcome := &itemUpdateOutcome{
		Item:       after,
		OldVersion: before.CurrentVersion,
		NewVersion: after.CurrentVersion,
	}
	if after.CurrentVersion <= before.CurrentVersion {
		outcome.VersionWarning = fmt.Sprintf("version did not increment: old=%d, new=%d",
			before.CurrentVersion, after.CurrentVersion)
		log.Warn("item update version check",
			zap.Int("item", id),
			zap.Int("oldVersion", before.CurrentVersion),
			zap.Int("newVersion", after.CurrentVersion),
		)
	}
	return outcome, nil
}
