package tools

import (
	"context"
	"testing"

	"github.com/irisworks/jama-mcp/internal/jama"
)

func TestItemTypesTool_Handle(t *testing.T) {
	tool := NewItemTypesTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		Data []jama.ItemType `json:"data"`
	}
	decodeResult(t, result, &got)
	if len(got.Data) != 6 {
		t.Fatalf("got %d item types, want 6", len(got.Data))
	}
}

func TestItemTypeTool_Handle(t *testing.T) {
	tool := NewItemTypeTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"item_type_id": float64(2),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got jama.ItemType
	decodeResult(t, result, &got)
	if got.TypeKey != "REQ" {
		t.Errorf("typeKey = %q, want REQ", got.TypeKey)
	}
	if len(got.Fields) != 4 {
		t.Errorf("got %d fields, want 4", len(got.Fields))
	}
}

func TestItemTypeFieldsTool_Handle(t *testing.T) {
	tool := NewItemTypeFieldsTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"item_type_id": float64(2),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		ItemType int                  `json:"itemType"`
		Name     string               `json:"name"`
		Fields   []jama.ItemTypeField `json:"fields"`
	}
	decodeResult(t, result, &got)
	if got.ItemType != 2 {
		t.Errorf("itemType = %d, want 2", got.ItemType)
	}

	var priority *jama.ItemTypeField
	for i := range got.Fields {
		if got.Fields[i].Name == "priority" {
			priority = &got.Fields[i]
		}
	}
	if priority == nil {
		t.Fatal("priority field missing from schema")
	}
	if priority.PickList != 1 {
		t.Errorf("priority pickList = %d, want 1", priority.PickList)
	}
}

func TestItemTypeFieldsTool_Handle_NotFound(t *testing.T) {
	tool := NewItemTypeFieldsTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"item_type_id": float64(999),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error for unknown item type")
	}
}
