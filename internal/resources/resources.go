// Package resources implements MCP resource handlers for the Jama server.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (jama://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/config"
	"github.com/irisworks/jama-mcp/internal/jama"
)

// Handler manages the Jama resource endpoints.
type Handler struct {
	api     jama.API
	cfg     config.Config
	catalog []mcp.Tool
}

// NewHandler creates a resource Handler. catalog is the registered tool
// set, used to render jama://catalog.
func NewHandler(api jama.API, cfg config.Config, catalog []mcp.Tool) *Handler {
	return &Handler{api: api, cfg: cfg, catalog: catalog}
}

// ConnectionResource returns the MCP resource definition for the
// connection status.
func (h *Handler) ConnectionResource() mcp.Resource {
	return mcp.NewResource(
		"jama://connection",
		"Jama Connection Status",
		mcp.WithResourceDescription("Target instance, auth mode, and live connectivity. Secret values are never included."),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleConnection returns the connection status as JSON. Credentials are
// reported by mode only; the payload never carries secret values.
func (h *Handler) HandleConnection(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := map[string]any{
		"target":      h.target(),
		"mockMode":    h.cfg.MockMode,
		"auth":        h.authMode(),
		"verifySSL":   h.cfg.VerifySSL,
		"rateLimit":   h.cfg.RateLimit,
		"archive":     h.archiveTarget(),
		"metricsAddr": h.cfg.MetricsAddr,
	}
	if err := h.api.Ping(ctx); err != nil {
		status["connected"] = false
		status["error"] = err.Error()
	} else {
		status["connected"] = true
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling connection status: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// CatalogResource returns the MCP resource definition for the tool catalog.
func (h *Handler) CatalogResource() mcp.Resource {
	return mcp.NewResource(
		"jama://catalog",
		"Jama Tool Catalog",
		mcp.WithResourceDescription("Every registered tool with its description"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleCatalog returns the registered tool set as JSON.
func (h *Handler) HandleCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	type toolEntry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	entries := make([]toolEntry, 0, len(h.catalog))
	for _, t := range h.catalog {
		entries = append(entries, toolEntry{Name: t.Name, Description: t.Description})
	}

	data, err := json.MarshalIndent(map[string]any{
		"toolCount": len(entries),
		"tools":     entries,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling catalog: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *Handler) target() string {
	if h.cfg.MockMode {
		return "mock"
	}
	return h.cfg.URL
}

func (h *Handler) authMode() string {
	switch {
	case h.cfg.MockMode:
		return "none"
	case h.cfg.HasToken():
		return "token"
	case h.cfg.HasOAuth():
		return "oauth"
	case h.cfg.HasSecretRef():
		return "secrets-manager"
	default:
		return "none"
	}
}

func (h *Handler) archiveTarget() string {
	switch {
	case h.cfg.ArchiveS3Bucket != "":
		return "s3://" + h.cfg.ArchiveS3Bucket + "/" + h.cfg.ArchiveS3Prefix
	case h.cfg.ArchiveDir != "":
		return h.cfg.ArchiveDir
	default:
		return "disabled"
	}
}
