package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// RelationshipsTool handles jama_get_relationships.
type RelationshipsTool struct {
	api jama.API
}

func NewRelationshipsTool(api jama.API) *RelationshipsTool {
	return &RelationshipsTool{api: api}
}

func (t *RelationshipsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_relationships",
		mcp.WithDescription(
			"List relationships. With item_id, every relationship the item "+
				"participates in, both directions; with project_id, every "+
				"relationship in the project.",
		),
		mcp.WithNumber("item_id",
			mcp.Description("Item ID (takes precedence over project_id)"),
		),
		mcp.WithNumber("project_id",
			mcp.Description("Project ID"),
		),
	)
}

func (t *RelationshipsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		rels []jama.Relationship
		err  error
	)
	switch {
	case intArg(req, "item_id", 0) > 0:
		rels, err = t.api.GetItemRelationships(ctx, intArg(req, "item_id", 0))
	case intArg(req, "project_id", 0) > 0:
		rels, err = t.api.GetProjectRelationships(ctx, intArg(req, "project_id", 0))
	default:
		return mcp.NewToolResultError("either 'item_id' or 'project_id' is required"), nil
	}
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: rels})
}

// UpstreamRelationshipsTool handles jama_get_upstream_relationships.
type UpstreamRelationshipsTool struct {
	api jama.API
}

func NewUpstreamRelationshipsTool(api jama.API) *UpstreamRelationshipsTool {
	return &UpstreamRelationshipsTool{api: api}
}

func (t *UpstreamRelationshipsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_upstream_relationships",
		mcp.WithDescription(
			"List relationships pointing INTO an item (the item is the target). "+
				"Set include_items to also fetch the upstream items themselves.",
		),
		mcp.WithNumber("item_id",
			mcp.Required(),
			mcp.Description("Item ID"),
		),
		mcp.WithBoolean("include_items",
			mcp.Description("Also return the upstream items, not just the relationship records"),
		),
	)
}

func (t *UpstreamRelationshipsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_id' is required"), nil
	}
	rels, err := t.api.GetUpstreamRelationships(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	result := map[string]any{"relationships": rels}
	if boolArg(req, "include_items", false) {
		items, err := t.api.GetUpstreamRelated(ctx, id)
		if err != nil {
			return apiResult(err)
		}
		result["items"] = items
	}
	return jsonResult(result)
}

// DownstreamRelationshipsTool handles jama_get_downstream_relationships.
type DownstreamRelationshipsTool struct {
	api jama.API
}

func NewDownstreamRelationshipsTool(api jama.API) *DownstreamRelationshipsTool {
	return &DownstreamRelationshipsTool{api: api}
}

func (t *DownstreamRelationshipsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_downstream_relationships",
		mcp.WithDescription(
			"List relationships pointing OUT OF an item (the item is the source). "+
				"Set include_items to also fetch the downstream items themselves.",
		),
		mcp.WithNumber("item_id",
			mcp.Required(),
			mcp.Description("Item ID"),
		),
		mcp.WithBoolean("include_items",
			mcp.Description("Also return the downstream items, not just the relationship records"),
		),
	)
}

func (t *DownstreamRelationshipsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_id' is required"), nil
	}
	rels, err := t.api.GetDownstreamRelationships(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	result := map[string]any{"relationships": rels}
	if boolArg(req, "include_items", false) {
		items, err := t.api.GetDownstreamRelated(ctx, id)
		if err != nil {
			return apiResult(err)
		}
		result["items"] = items
	}
	return jsonResult(result)
}

// RelationshipTypesTool handles jama_get_relationship_types.
type RelationshipTypesTool struct {
	api jama.API
}

func NewRelationshipTypesTool(api jama.API) *RelationshipTypesTool {
	return &RelationshipTypesTool{api: api}
}

func (t *RelationshipTypesTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_relationship_types",
		mcp.WithDescription("List the relationship types defined on the instance."),
	)
}

func (t *RelationshipTypesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	types, err := t.api.GetRelationshipTypes(ctx)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: types})
}

// CreateRelationshipTool handles jama_create_relationship.
type CreateRelationshipTool struct {
	api jama.API
}

func NewCreateRelationshipTool(api jama.API) *CreateRelationshipTool {
	return &CreateRelationshipTool{api: api}
}

func (t *CreateRelationshipTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_create_relationship",
		mcp.WithDescription(
			"Create a directional relationship between two items. Without "+
				"relationship_type_id, Jama applies the project default type.",
		),
		mcp.WithNumber("from_item",
			mcp.Required(),
			mcp.Description("Source item ID"),
		),
		mcp.WithNumber("to_item",
			mcp.Required(),
			mcp.Description("Target item ID"),
		),
		mcp.WithNumber("relationship_type_id",
			mcp.Description("Relationship type ID (omit for the default type)"),
		),
	)
}

func (t *CreateRelationshipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fromItem := intArg(req, "from_item", 0)
	toItem := intArg(req, "to_item", 0)
	if fromItem <= 0 || toItem <= 0 {
		return mcp.NewToolResultError("'from_item' and 'to_item' are required"), nil
	}

	id, err := t.api.CreateRelationship(ctx, jama.CreateRelationshipRequest{
		FromItem:         fromItem,
		ToItem:           toItem,
		RelationshipType: intArg(req, "relationship_type_id", 0),
	})
	if err != nil {
		return apiResult(err)
	}

	rel, err := t.api.GetRelationship(ctx, id)
	if err != nil {
		// Creation succeeded; report the ID even if the read-back failed.
		return jsonResult(map[string]any{"id": id})
	}
	return jsonResult(map[string]any{"id": id, "relationship": rel})
}

// DeleteRelationshipTool handles jama_delete_relationship.
type DeleteRelationshipTool struct {
	api jama.API
}

func NewDeleteRelationshipTool(api jama.API) *DeleteRelationshipTool {
	return &DeleteRelationshipTool{api: api}
}

func (t *DeleteRelationshipTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_delete_relationship",
		mcp.WithDescription("Delete a relationship by its ID. The linked items are untouched."),
		mcp.WithNumber("relationship_id",
			mcp.Required(),
			mcp.Description("Relationship ID"),
		),
	)
}

func (t *DeleteRelationshipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "relationship_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'relationship_id' is required"), nil
	}
	if err := t.api.DeleteRelationship(ctx, id); err != nil {
		return apiResult(err)
	}
	return jsonResult(map[string]any{
		"deleted": true,
		"message": fmt.Sprintf("relationship %d deleted", id),
	})
}
