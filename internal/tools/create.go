package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// CreateItemTool handles jama_create_item.
type CreateItemTool struct {
	api jama.API
	log *zap.Logger
}

func NewCreateItemTool(api jama.API, log *zap.Logger) *CreateItemTool {
	return &CreateItemTool{api: api, log: log}
}

func (t *CreateItemTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_create_item",
		mcp.WithDescription(
			"Create an item. Without parent_id the item lands at the project "+
				"root. Option-valued fields take pick list option IDs; use "+
				"jama_get_item_type_fields to discover the schema first.",
		),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("Project to create the item in"),
		),
		mcp.WithNumber("item_type_id",
			mcp.Required(),
			mcp.Description("Item type ID"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Item name"),
		),
		mcp.WithString("description",
			mcp.Description("Item description, may contain HTML"),
		),
		mcp.WithNumber("parent_id",
			mcp.Description("Parent item ID (omit for the project root)"),
		),
		mcp.WithString("custom_fields",
			mcp.Description("Additional fields as a JSON object, e.g. {\"priority\": 300}"),
		),
	)
}

func (t *CreateItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := intArg(req, "project_id", 0)
	itemTypeID := intArg(req, "item_type_id", 0)
	name := strings.TrimSpace(req.GetString("name", ""))
	if projectID <= 0 || itemTypeID <= 0 || name == "" {
		return mcp.NewToolResultError("'project_id', 'item_type_id', and 'name' are required"), nil
	}

	custom, err := fieldsArg(req, "custom_fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	parentID := intArg(req, "parent_id", 0)
	if parentID > 0 {
		if _, err := t.api.GetItem(ctx, parentID); err != nil {
			switch {
			case jama.IsNotFound(err):
				return mcp.NewToolResultError(fmt.Sprintf("parent item %d not found", parentID)), nil
			case jama.IsPermission(err):
				return mcp.NewToolResultError(fmt.Sprintf("permission denied for parent item %d", parentID)), nil
			}
			return apiResult(err)
		}
		if result := t.checkDuplicateName(ctx, parentID, name); result != nil {
			return result, nil
		}
	}

	fields := make(map[string]any, len(custom)+2)
	for k, v := range custom {
		fields[k] = v
	}
	fields["name"] = name
	if desc := req.GetString("description", ""); desc != "" {
		fields["description"] = desc
	}

	createReq := jama.CreateItemRequest{
		Project:  projectID,
		ItemType: itemTypeID,
		Location: jama.Location{Parent: &jama.ParentRef{Project: projectID}},
		Fields:   fields,
	}
	if parentID > 0 {
		createReq.Location.Parent = &jama.ParentRef{Item: parentID}
	}

	id, err := t.api.CreateItem(ctx, createReq)
	if err != nil {
		return apiResult(err)
	}
	t.log.Info("item created",
		zap.Int("item", id),
		zap.Int("project", projectID),
		zap.Int("itemType", itemTypeID),
	)

	item, err := t.api.GetItem(ctx, id)
	if err != nil {
		// Creation succeeded; report the ID even if the read-back failed.
		t.log.Warn("created item read-back failed", zap.Int("item", id), zap.Error(err))
		return jsonResult(map[string]any{"id": id})
	}
	return jsonResult(map[string]any{"id": id, "item": item})
}

// checkDuplicateName rejects a create that would give two siblings the same
// name. A failed children lookup is logged and the create proceeds.
func (t *CreateItemTool) checkDuplicateName(ctx context.Context, parentID int, name string) *mcp.CallToolResult {
	children, err := t.api.GetItemChildren(ctx, parentID)
	if err != nil {
		t.log.Warn("duplicate-name check skipped",
			zap.Int("parent", parentID),
			zap.Error(err),
		)
		return nil
	}
	for _, child := range children {
		if strings.EqualFold(child.Name(), name) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"item named %q already exists under parent %d", name, parentID,
			))
		}
	}
	return nil
}
