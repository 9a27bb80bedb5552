package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/archive"
	"github.com/irisworks/jama-mcp/internal/jama"
)

// ItemAttachmentsTool handles jama_get_item_attachments.
type ItemAttachmentsTool struct {
	api jama.API
}

func NewItemAttachmentsTool(api jama.API) *ItemAttachmentsTool {
	return &ItemAttachmentsTool{api: api}
}

func (t *ItemAttachmentsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_get_item_attachments",
		mcp.WithDescription("List the attachments of an item: file names, MIME types, sizes."),
		mcp.WithNumber("item_id",
			mcp.Required(),
			mcp.Description("Item ID"),
		),
	)
}

func (t *ItemAttachmentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "item_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'item_id' is required"), nil
	}
	attachments, err := t.api.GetItemAttachments(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	return jsonResult(pagedResult{Data: attachments})
}

// DownloadAttachmentTool handles jama_download_attachment. File bytes never
// enter the tool result; the tool reports metadata and, when asked, copies
// the file into the configured archive store.
type DownloadAttachmentTool struct {
	api   jama.API
	store archive.Store
	log   *zap.Logger
}

func NewDownloadAttachmentTool(api jama.API, store archive.Store, log *zap.Logger) *DownloadAttachmentTool {
	return &DownloadAttachmentTool{api: api, store: store, log: log}
}

func (t *DownloadAttachmentTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_download_attachment",
		mcp.WithDescription(
			"Download an attachment and report its metadata and size. Set "+
				"archive to also copy the file into the configured archive store; "+
				"the result then includes where it landed.",
		),
		mcp.WithNumber("attachment_id",
			mcp.Required(),
			mcp.Description("Attachment ID"),
		),
		mcp.WithBoolean("archive",
			mcp.Description("Copy the file into the archive store"),
		),
	)
}

func (t *DownloadAttachmentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "attachment_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'attachment_id' is required"), nil
	}
	toArchive := boolArg(req, "archive", false)
	if toArchive && t.store == nil {
		return mcp.NewToolResultError("archiving is not configured"), nil
	}

	meta, err := t.api.GetAttachment(ctx, id)
	if err != nil {
		return apiResult(err)
	}
	data, contentType, err := t.api.DownloadAttachment(ctx, id)
	if err != nil {
		return apiResult(err)
	}

	result := map[string]any{
		"id":         meta.ID,
		"file_name":  meta.FileName,
		"mime_type":  contentType,
		"size_bytes": len(data),
		"item":       meta.Item,
	}
	if toArchive {
		key := fmt.Sprintf("items/%d/%d_%s", meta.Item, meta.ID, meta.FileName)
		location, err := t.store.Put(ctx, key, contentType, data)
		if err != nil {
			return nil, fmt.Errorf("archiving attachment %d: %w", id, err)
		}
		t.log.Info("attachment archived",
			zap.Int("attachment", id),
			zap.String("driver", t.store.Driver()),
			zap.String("location", location),
		)
		result["archived_to"] = location
	}
	return jsonResult(result)
}
