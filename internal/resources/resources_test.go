package resources

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/config"
	"github.com/irisworks/jama-mcp/internal/mock"
)

func newTestHandler(t *testing.T, cfg config.Config, catalog []mcp.Tool) *Handler {
	t.Helper()
	ws, err := mock.Open(filepath.Join(t.TempDir(), "jama.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return NewHandler(ws, cfg, catalog)
}

func readReq(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func resourceText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents are %T, want TextResourceContents", contents[0])
	}
	return tc.Text
}

func TestHandleConnection(t *testing.T) {
	cfg := config.Default()
	cfg.MockMode = true
	h := newTestHandler(t, cfg, nil)

	contents, err := h.HandleConnection(context.Background(), readReq("jama://connection"))
	if err != nil {
		t.Fatalf("HandleConnection failed: %v", err)
	}

	var got struct {
		Target    string `json:"target"`
		Auth      string `json:"auth"`
		Connected bool   `json:"connected"`
		Archive   string `json:"archive"`
	}
	if err := json.Unmarshal([]byte(resourceText(t, contents)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Target != "mock" {
		t.Errorf("target = %q, want mock", got.Target)
	}
	if !got.Connected {
		t.Error("connected = false, want true")
	}
	if got.Archive != "disabled" {
		t.Errorf("archive = %q, want disabled", got.Archive)
	}
}

func TestHandleConnection_RedactsSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.MockMode = true
	cfg.Token = "tok-s3cret-value"
	cfg.ClientSecret = "oauth-s3cret"
	h := newTestHandler(t, cfg, nil)

	contents, err := h.HandleConnection(context.Background(), readReq("jama://connection"))
	if err != nil {
		t.Fatalf("HandleConnection failed: %v", err)
	}

	text := resourceText(t, contents)
	if strings.Contains(text, "s3cret") {
		t.Fatalf("payload leaks a secret:\n%s", text)
	}
}

func TestHandleConnection_AuthModes(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*config.Config)
		want string
	}{
		{"token", func(c *config.Config) { c.Token = "t" }, "token"},
		{"oauth", func(c *config.Config) { c.ClientID = "id"; c.ClientSecret = "s" }, "oauth"},
		{"secrets manager", func(c *config.Config) { c.CredentialsSecret = "jama/creds" }, "secrets-manager"},
		{"none", func(c *config.Config) {}, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mut(&cfg)
			h := &Handler{cfg: cfg}
			if got := h.authMode(); got != tt.want {
				t.Errorf("authMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleCatalog(t *testing.T) {
	catalog := []mcp.Tool{
		mcp.NewTool("jama_get_item", mcp.WithDescription("Fetch one item")),
		mcp.NewTool("jama_create_item", mcp.WithDescription("Create an item")),
	}
	h := newTestHandler(t, config.Default(), catalog)

	contents, err := h.HandleCatalog(context.Background(), readReq("jama://catalog"))
	if err != nil {
		t.Fatalf("HandleCatalog failed: %v", err)
	}

	var got struct {
		ToolCount int `json:"toolCount"`
		Tools     []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"tools"`
	}
	if err := json.Unmarshal([]byte(resourceText(t, contents)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ToolCount != 2 || len(got.Tools) != 2 {
		t.Fatalf("got %+v, want 2 tools", got)
	}
	if got.Tools[0].Name != "jama_get_item" {
		t.Errorf("first tool = %q, want jama_get_item", got.Tools[0].Name)
	}
}
