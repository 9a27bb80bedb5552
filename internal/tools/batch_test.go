package tools

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type batchResult struct {
	Total        int                      `json:"total"`
	Succeeded    int                      `json:"succeeded"`
	Failed       int                      `json:"failed"`
	CreatedItems []map[string]interface{} `json:"created_items"`
	UpdatedItems []map[string]interface{} `json:"updated_items"`
	Errors       []batchError             `json:"errors"`
}

func TestBatchCreateItemsTool_Handle(t *testing.T) {
	ws := newWorkspace(t)
	tool := NewBatchCreateItemsTool(ws, zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"items": `[
			{"project": 1, "item_type": 2, "name": "Link margin", "parent_id": 1},
			{"project": 1, "item_type": 2, "name": "Beacon interval", "parent_id": 1,
			 "fields": {"priority": 3}}
		]`,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got batchResult
	decodeResult(t, result, &got)
	if got.Total != 2 || got.Succeeded != 2 || got.Failed != 0 {
		t.Fatalf("got total=%d succeeded=%d failed=%d, want 2/2/0",
			got.Total, got.Succeeded, got.Failed)
	}
	if len(got.CreatedItems) != 2 {
		t.Fatalf("got %d created items, want 2", len(got.CreatedItems))
	}

	id := int(got.CreatedItems[1]["id"].(float64))
	item, err := ws.GetItem(context.Background(), id)
	if err != nil {
		t.Fatalf("read back created item: %v", err)
	}
	if item.Fields["priority"] != float64(3) {
		t.Errorf("priority = %v, want 3", item.Fields["priority"])
	}
}

func TestBatchCreateItemsTool_Handle_TooLarge(t *testing.T) {
	tool := NewBatchCreateItemsTool(newWorkspace(t), zap.NewNop())

	entries := make([]interface{}, 101)
	for i := range entries {
		entries[i] = map[string]interface{}{
			"project": float64(1), "item_type": float64(2), "name": "bulk",
		}
	}
	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"items": entries,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error for an oversized batch")
	}
	if got := getResultText(result); got != "batch size 101 exceeds maximum of 100" {
		t.Errorf("error = %q", got)
	}
}

func TestBatchCreateItemsTool_Handle_StopsAtFirstFailure(t *testing.T) {
	ws := newWorkspace(t)
	tool := NewBatchCreateItemsTool(ws, zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"items": `[
			{"project": 1, "item_type": 2, "name": "First"},
			{"project": 1, "item_type": 2},
			{"project": 1, "item_type": 2, "name": "Never attempted"}
		]`,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got batchResult
	decodeResult(t, result, &got)
	if got.Total != 3 || got.Succeeded != 1 || got.Failed != 1 {
		t.Fatalf("got total=%d succeeded=%d failed=%d, want 3/1/1",
			got.Total, got.Succeeded, got.Failed)
	}
	if len(got.Errors) != 1 || got.Errors[0].Index != 1 {
		t.Fatalf("errors = %+v, want one at index 1", got.Errors)
	}
	if got.Errors[0].Error != "create at index 1 missing required 'name'" {
		t.Errorf("error = %q", got.Errors[0].Error)
	}
}

func TestBatchUpdateItemsTool_Handle(t *testing.T) {
	ws := newWorkspace(t)
	tool := NewBatchUpdateItemsTool(ws, zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"updates": `[
			{"item_id": 4, "fields": {"status": 6}},
			{"item_id": 12, "fields": {"priority": 1}}
		]`,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got batchResult
	decodeResult(t, result, &got)
	if got.Succeeded != 2 || got.Failed != 0 {
		t.Fatalf("got succeeded=%d failed=%d, want 2/0", got.Succeeded, got.Failed)
	}
	if got.UpdatedItems[0]["new_version"] != float64(2) {
		t.Errorf("new_version = %v, want 2", got.UpdatedItems[0]["new_version"])
	}

	item, err := ws.GetItem(context.Background(), 12)
	if err != nil {
		t.Fatalf("read back updated item: %v", err)
	}
	if item.Fields["priority"] != float64(1) {
		t.Errorf("priority = %v, want 1", item.Fields["priority"])
	}
}

func TestBatchUpdateItemsTool_Handle_LockAborts(t *testing.T) {
	ws := newWorkspace(t)
	tool := NewBatchUpdateItemsTool(ws, zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"updates": `[
			{"item_id": 2, "fields": {"status": 5}},
			{"item_id": 3, "fields": {"status": 5}},
			{"item_id": 4, "fields": {"status": 5}}
		]`,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got batchResult
	decodeResult(t, result, &got)
	if got.Succeeded != 1 || got.Failed != 1 {
		t.Fatalf("got succeeded=%d failed=%d, want 1/1", got.Succeeded, got.Failed)
	}
	if got.Errors[0].Index != 1 || !strings.Contains(got.Errors[0].Error, "locked") {
		t.Fatalf("errors = %+v, want a lock failure at index 1", got.Errors)
	}

	// The entry after the failure was never attempted.
	item, err := ws.GetItem(context.Background(), 4)
	if err != nil {
		t.Fatalf("read back item 4: %v", err)
	}
	if item.CurrentVersion != 1 {
		t.Errorf("item 4 version = %d, want untouched 1", item.CurrentVersion)
	}
}

func TestBatchUpdateItemsTool_Handle_EntryValidation(t *testing.T) {
	tool := NewBatchUpdateItemsTool(newWorkspace(t), zap.NewNop())

	tests := []struct {
		name    string
		updates string
		want    string
	}{
		{
			name:    "missing item_id",
			updates: `[{"fields": {"status": 5}}]`,
			want:    "update at index 0 missing required 'item_id'",
		},
		{
			name:    "missing fields",
			updates: `[{"item_id": 4}]`,
			want:    "update at index 0 missing required 'fields'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
				"updates": tt.updates,
			}))
			if err != nil {
				t.Fatalf("Handle failed: %v", err)
			}

			var got batchResult
			decodeResult(t, result, &got)
			if got.Failed != 1 || len(got.Errors) != 1 {
				t.Fatalf("got %+v, want exactly one failure", got)
			}
			if got.Errors[0].Error != tt.want {
				t.Errorf("error = %q, want %q", got.Errors[0].Error, tt.want)
			}
		})
	}
}
