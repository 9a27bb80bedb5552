package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/irisworks/jama-mcp/internal/jama"
)

func TestRelationshipsTool_Handle_ByItem(t *testing.T) {
	tool := NewRelationshipsTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"item_id": float64(2),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		Data []jama.Relationship `json:"data"`
	}
	decodeResult(t, result, &got)
	if len(got.Data) != 2 {
		t.Fatalf("got %d relationships for item 2, want 2", len(got.Data))
	}
}

func TestRelationshipsTool_Handle_ByProject(t *testing.T) {
	tool := NewRelationshipsTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"project_id": float64(1),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		Data []jama.Relationship `json:"data"`
	}
	decodeResult(t, result, &got)
	if len(got.Data) != 3 {
		t.Fatalf("got %d relationships for project 1, want 3", len(got.Data))
	}
}

func TestRelationshipsTool_Handle_NoArgs(t *testing.T) {
	tool := NewRelationshipsTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error when neither item_id nor project_id is given")
	}
}

func TestUpstreamRelationshipsTool_Handle(t *testing.T) {
	tool := NewUpstreamRelationshipsTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"item_id":       float64(2),
		"include_items": true,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		Relationships []jama.Relationship `json:"relationships"`
		Items         []jama.Item         `json:"items"`
	}
	decodeResult(t, result, &got)
	if len(got.Relationships) != 1 || got.Relationships[0].FromItem != 4 {
		t.Fatalf("upstream relationships = %+v, want one from item 4", got.Relationships)
	}
	if len(got.Items) != 1 || got.Items[0].ID != 4 {
		t.Fatalf("upstream items = %+v, want item 4", got.Items)
	}
}

func TestDownstreamRelationshipsTool_Handle(t *testing.T) {
	tool := NewDownstreamRelationshipsTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"item_id": float64(2),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		Relationships []jama.Relationship `json:"relationships"`
		Items         []jama.Item         `json:"items"`
	}
	decodeResult(t, result, &got)
	if len(got.Relationships) != 1 || got.Relationships[0].ToItem != 6 {
		t.Fatalf("downstream relationships = %+v, want one to item 6", got.Relationships)
	}
	if got.Items != nil {
		t.Errorf("items should be absent without include_items, got %+v", got.Items)
	}
}

func TestRelationshipTypesTool_Handle(t *testing.T) {
	tool := NewRelationshipTypesTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		Data []jama.RelationshipType `json:"data"`
	}
	decodeResult(t, result, &got)
	if len(got.Data) != 3 {
		t.Fatalf("got %d relationship types, want 3", len(got.Data))
	}
	if !got.Data[0].IsDefault {
		t.Error("first relationship type should be the default")
	}
}

func TestCreateRelationshipTool_Handle(t *testing.T) {
	ws := newWorkspace(t)
	tool := NewCreateRelationshipTool(ws)

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"from_item":            float64(4),
		"to_item":              float64(6),
		"relationship_type_id": float64(2),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		ID           int                `json:"id"`
		Relationship *jama.Relationship `json:"relationship"`
	}
	decodeResult(t, result, &got)
	if got.ID == 0 {
		t.Fatal("result carries no relationship ID")
	}
	if got.Relationship == nil || got.Relationship.RelationshipType != 2 {
		t.Fatalf("relationship = %+v, want type 2", got.Relationship)
	}
}

func TestCreateRelationshipTool_Handle_DefaultType(t *testing.T) {
	ws := newWorkspace(t)
	tool := NewCreateRelationshipTool(ws)

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"from_item": float64(6),
		"to_item":   float64(7),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		Relationship *jama.Relationship `json:"relationship"`
	}
	decodeResult(t, result, &got)
	if got.Relationship == nil || got.Relationship.RelationshipType != 1 {
		t.Fatalf("relationship = %+v, want default type 1", got.Relationship)
	}
}

func TestCreateRelationshipTool_Handle_Rejections(t *testing.T) {
	ws := newWorkspace(t)
	tool := NewCreateRelationshipTool(ws)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{
			name: "missing endpoints",
			args: map[string]interface{}{"from_item": float64(4)},
			want: "required",
		},
		{
			name: "self relation",
			args: map[string]interface{}{"from_item": float64(4), "to_item": float64(4)},
			want: "cannot relate to itself",
		},
		{
			name: "unknown item",
			args: map[string]interface{}{"from_item": float64(4), "to_item": float64(999)},
			want: "999 does not exist",
		},
		{
			name: "duplicate",
			args: map[string]interface{}{
				"from_item":            float64(2),
				"to_item":              float64(6),
				"relationship_type_id": float64(3),
			},
			want: "already exists",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Handle(context.Background(), callReq(tt.args))
			if err != nil {
				t.Fatalf("Handle failed: %v", err)
			}
			if !isErrorResult(result) {
				t.Fatal("expected tool error")
			}
			if text := getResultText(result); !strings.Contains(text, tt.want) {
				t.Errorf("error = %q, want it to contain %q", text, tt.want)
			}
		})
	}
}

func TestDeleteRelationshipTool_Handle(t *testing.T) {
	ws := newWorkspace(t)
	tool := NewDeleteRelationshipTool(ws)

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"relationship_id": float64(1),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		Deleted bool `json:"deleted"`
	}
	decodeResult(t, result, &got)
	if !got.Deleted {
		t.Error("deleted = false, want true")
	}

	// The second delete finds nothing.
	result, err = tool.Handle(context.Background(), callReq(map[string]interface{}{
		"relationship_id": float64(1),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error deleting a relationship twice")
	}
}
