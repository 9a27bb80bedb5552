package tools

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/jama"
)

func TestDeleteItemTool_Handle(t *testing.T) {
	ws := newWorkspace(t)
	tool := NewDeleteItemTool(ws, zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"item_id": float64(5),
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

	// The folder's children went with it.
	if _, err := ws.GetItem(context.Background(), 6); !jama.IsNotFound(err) {
		t.Errorf("child item 6 should be gone, got err = %v", err)
	}
}

func TestDeleteItemTool_Handle_Locked(t *testing.T) {
	tool := NewDeleteItemTool(newWorkspace(t), zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"item_id": float64(3),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error for a locked item")
	}
	if !strings.Contains(getResultText(result), "locked") {
		t.Errorf("error = %q, want a locked message", getResultText(result))
	}
}
