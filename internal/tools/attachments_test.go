package tools

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/archive"
	"github.com/irisworks/jama-mcp/internal/jama"
)

func TestItemAttachmentsTool_Handle(t *testing.T) {
	tool := NewItemAttachmentsTool(newWorkspace(t))

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"item_id": float64(2),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		Data []jama.Attachment `json:"data"`
	}
	decodeResult(t, result, &got)
	if len(got.Data) != 1 {
		t.Fatalf("got %d attachments, want 1", len(got.Data))
	}
	if got.Data[0].FileName != "downlink_latency_budget.csv" {
		t.Errorf("fileName = %q", got.Data[0].FileName)
	}
	if got.Data[0].FileSize == 0 {
		t.Error("fileSize = 0, want the stored length")
	}
}

func TestDownloadAttachmentTool_Handle(t *testing.T) {
	tool := NewDownloadAttachmentTool(newWorkspace(t), nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"attachment_id": float64(1),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		ID         int    `json:"id"`
		FileName   string `json:"file_name"`
		MimeType   string `json:"mime_type"`
		SizeBytes  int    `json:"size_bytes"`
		Item       int    `json:"item"`
		ArchivedTo string `json:"archived_to"`
	}
	decodeResult(t, result, &got)
	if got.FileName != "downlink_latency_budget.csv" || got.Item != 2 {
		t.Errorf("got %+v, want attachment 1 of item 2", got)
	}
	if got.MimeType != "text/csv" {
		t.Errorf("mimeType = %q, want text/csv", got.MimeType)
	}
	if got.SizeBytes == 0 {
		t.Error("size_bytes = 0, want the content length")
	}
	if got.ArchivedTo != "" {
		t.Errorf("archived_to = %q, want empty without the archive flag", got.ArchivedTo)
	}
}

func TestDownloadAttachmentTool_Handle_Archive(t *testing.T) {
	store := archive.NewMemory()
	tool := NewDownloadAttachmentTool(newWorkspace(t), store, zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"attachment_id": float64(1),
		"archive":       true,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var got struct {
		ArchivedTo string `json:"archived_to"`
	}
	decodeResult(t, result, &got)
	want := "memory://items/2/1_downlink_latency_budget.csv"
	if got.ArchivedTo != want {
		t.Errorf("archived_to = %q, want %q", got.ArchivedTo, want)
	}

	obj, ok := store.Object("items/2/1_downlink_latency_budget.csv")
	if !ok {
		t.Fatal("attachment missing from the archive store")
	}
	if obj.ContentType != "text/csv" {
		t.Errorf("stored content type = %q, want text/csv", obj.ContentType)
	}
	if len(obj.Data) == 0 {
		t.Error("stored object is empty")
	}
}

func TestDownloadAttachmentTool_Handle_ArchiveNotConfigured(t *testing.T) {
	tool := NewDownloadAttachmentTool(newWorkspace(t), nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"attachment_id": float64(1),
		"archive":       true,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error when no archive store is configured")
	}
	if got := getResultText(result); got != "archiving is not configured" {
		t.Errorf("error = %q", got)
	}
}

func TestDownloadAttachmentTool_Handle_NotFound(t *testing.T) {
	tool := NewDownloadAttachmentTool(newWorkspace(t), nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), callReq(map[string]interface{}{
		"attachment_id": float64(999),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error for an unknown attachment")
	}
}
