// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it builds the rate limiter, token
// source, REST client (or mock workspace), catalog cache, archive store,
// and metrics, and injects them into the tools/prompts/resources that
// depend on abstractions. No business logic lives here — only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/archive"
	"github.com/irisworks/jama-mcp/internal/cache"
	"github.com/irisworks/jama-mcp/internal/config"
	"github.com/irisworks/jama-mcp/internal/jama"
	"github.com/irisworks/jama-mcp/internal/metrics"
	"github.com/irisworks/jama-mcp/internal/mock"
	"github.com/irisworks/jama-mcp/internal/prompts"
	"github.com/irisworks/jama-mcp/internal/ratelimit"
	"github.com/irisworks/jama-mcp/internal/resources"
	"github.com/irisworks/jama-mcp/internal/secrets"
	"github.com/irisworks/jama-mcp/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the mock workspace, the catalog
// cache, and the metrics listener, and must be called on shutdown
// (typically via defer). It is always non-nil and safe to call even
// when construction failed partway.
func New(cfg config.Config, log *zap.Logger) (*server.MCPServer, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}
	ctx := context.Background()

	var closers []func()
	cleanup := func() {
		// Tear down in reverse construction order.
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	m := metrics.New()

	// --- Build the Jama API ---

	var api jama.API
	if cfg.MockMode {
		ws, err := mock.Open(cfg.MockDB, log)
		if err != nil {
			return nil, noop, fmt.Errorf("opening mock workspace: %w", err)
		}
		closers = append(closers, func() {
			if err := ws.Close(); err != nil {
				log.Warn("mock workspace close", zap.Error(err))
			}
		})
		api = ws
		log.Info("mock mode enabled", zap.String("db", cfg.MockDB))
	} else {
		tokens, err := tokenSource(ctx, cfg, log)
		if err != nil {
			return nil, noop, err
		}
		client, err := jama.NewClient(jama.Config{
			Host:       cfg.URL,
			Tokens:     tokens,
			HTTPClient: jama.NewHTTPClient(cfg.VerifySSL),
			Limiter:    ratelimit.New(cfg.RateLimit),
			Logger:     log,
			Metrics:    m,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("building jama client: %w", err)
		}
		api = client
	}

	// --- Layer the catalog cache ---

	cached, err := cache.New(api, cache.Config{}, log)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("building catalog cache: %w", err)
	}
	closers = append(closers, cached.Close)
	api = cached

	// --- Open the attachment archive ---
	//
	// Archiving is an independent subsystem: if it fails to open, the
	// download tool keeps working and refuses archive requests. We log
	// a warning and the server stays fully functional.

	store, err := archive.Open(ctx, cfg)
	if err != nil {
		log.Warn("attachment archiving disabled", zap.Error(err))
		store = nil
	}

	// --- Expose metrics ---

	if cfg.MetricsAddr != "" {
		stop, err := m.ListenAndServe(cfg.MetricsAddr)
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("starting metrics listener: %w", err)
		}
		closers = append(closers, stop)
		log.Info("metrics listener started", zap.String("addr", cfg.MetricsAddr))
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"jama-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	defs := registerTools(s, toolDeps{
		api:     api,
		store:   store,
		log:     log,
		metrics: m,
		target:  targetName(cfg),
	})

	// --- Register prompts ---

	review := prompts.NewItemReviewPrompt()
	s.AddPrompt(review.Definition(), review.Handle)

	coverage := prompts.NewCoverageCheckPrompt()
	s.AddPrompt(coverage.Definition(), coverage.Handle)

	// --- Register resources ---

	rh := resources.NewHandler(api, cfg, defs)
	s.AddResource(rh.ConnectionResource(), rh.HandleConnection)
	s.AddResource(rh.CatalogResource(), rh.HandleCatalog)

	return s, cleanup, nil
}

// noop is a no-op cleanup function returned when construction fails
// before anything needs tearing down.
func noop() {}

// tokenSource picks the auth strategy from configuration. Precedence:
// pre-issued token, direct OAuth credentials, then a Secrets Manager
// reference holding OAuth credentials.
func tokenSource(ctx context.Context, cfg config.Config, log *zap.Logger) (jama.TokenSource, error) {
	switch {
	case cfg.HasToken():
		return jama.NewStaticTokenSource(cfg.Token), nil
	case cfg.HasOAuth():
		return jama.NewOAuthTokenSource(cfg.URL, cfg.ClientID, cfg.ClientSecret, jama.NewHTTPClient(cfg.VerifySSL), log), nil
	case cfg.HasSecretRef():
		resolver, err := secrets.NewResolver(ctx, log)
		if err != nil {
			return nil, fmt.Errorf("building secrets resolver: %w", err)
		}
		creds, err := resolver.Resolve(ctx, cfg.CredentialsSecret)
		if err != nil {
			return nil, err
		}
		return jama.NewOAuthTokenSource(cfg.URL, creds.ClientID, creds.ClientSecret, jama.NewHTTPClient(cfg.VerifySSL), log), nil
	default:
		return nil, fmt.Errorf("no credentials configured: set token, client_id/client_secret, or credentials_secret")
	}
}

// targetName is the instance label reported by jama_test_connection.
func targetName(cfg config.Config) string {
	if cfg.MockMode {
		return "mock"
	}
	return cfg.URL
}

// toolDeps carries the shared dependencies of the tool constructors.
type toolDeps struct {
	api     jama.API
	store   archive.Store
	log     *zap.Logger
	metrics *metrics.Metrics
	target  string
}

// registerTools registers every Jama tool, wrapping each handler with
// call metrics, and returns the definitions for the jama://catalog
// resource.
func registerTools(s *server.MCPServer, d toolDeps) []mcp.Tool {
	var defs []mcp.Tool
	add := func(def mcp.Tool, h server.ToolHandlerFunc) {
		s.AddTool(def, withCallMetrics(d.metrics, def.Name, h))
		defs = append(defs, def)
	}

	// --- Connection ---
	connection := tools.NewConnectionTool(d.api, d.target)
	add(connection.Definition(), connection.Handle)

	// --- Projects ---
	projects := tools.NewProjectsTool(d.api)
	add(projects.Definition(), projects.Handle)

	project := tools.NewProjectTool(d.api)
	add(project.Definition(), project.Handle)

	// --- Item reads ---
	item := tools.NewItemTool(d.api)
	add(item.Definition(), item.Handle)

	projectItems := tools.NewProjectItemsTool(d.api)
	add(projectItems.Definition(), projectItems.Handle)

	children := tools.NewItemChildrenTool(d.api)
	add(children.Definition(), children.Handle)

	search := tools.NewSearchItemsTool(d.api)
	add(search.Definition(), search.Handle)

	history := tools.NewItemHistoryTool(d.api)
	add(history.Definition(), history.Handle)

	// --- Item writes ---
	createItem := tools.NewCreateItemTool(d.api, d.log)
	add(createItem.Definition(), createItem.Handle)

	updateItem := tools.NewUpdateItemTool(d.api, d.log)
	add(updateItem.Definition(), updateItem.Handle)

	deleteItem := tools.NewDeleteItemTool(d.api, d.log)
	add(deleteItem.Definition(), deleteItem.Handle)

	batchCreate := tools.NewBatchCreateItemsTool(d.api, d.log)
	add(batchCreate.Definition(), batchCreate.Handle)

	batchUpdate := tools.NewBatchUpdateItemsTool(d.api, d.log)
	add(batchUpdate.Definition(), batchUpdate.Handle)

	validate := tools.NewValidateItemFieldsTool(d.api)
	add(validate.Definition(), validate.Handle)

	// --- Relationships ---
	relationships := tools.NewRelationshipsTool(d.api)
	add(relationships.Definition(), relationships.Handle)

	upstream := tools.NewUpstreamRelationshipsTool(d.api)
	add(upstream.Definition(), upstream.Handle)

	downstream := tools.NewDownstreamRelationshipsTool(d.api)
	add(downstream.Definition(), downstream.Handle)

	relTypes := tools.NewRelationshipTypesTool(d.api)
	add(relTypes.Definition(), relTypes.Handle)

	createRel := tools.NewCreateRelationshipTool(d.api)
	add(createRel.Definition(), createRel.Handle)

	deleteRel := tools.NewDeleteRelationshipTool(d.api)
	add(deleteRel.Definition(), deleteRel.Handle)

	// --- Schema: item types and pick lists ---
	itemTypes := tools.NewItemTypesTool(d.api)
	add(itemTypes.Definition(), itemTypes.Handle)

	itemType := tools.NewItemTypeTool(d.api)
	add(itemType.Definition(), itemType.Handle)

	typeFields := tools.NewItemTypeFieldsTool(d.api)
	add(typeFields.Definition(), typeFields.Handle)

	pickLists := tools.NewPickListsTool(d.api)
	add(pickLists.Definition(), pickLists.Handle)

	pickList := tools.NewPickListTool(d.api)
	add(pickList.Definition(), pickList.Handle)

	pickListOptions := tools.NewPickListOptionsTool(d.api)
	add(pickListOptions.Definition(), pickListOptions.Handle)

	pickListOption := tools.NewPickListOptionTool(d.api)
	add(pickListOption.Definition(), pickListOption.Handle)

	// --- Tags ---
	tags := tools.NewTagsTool(d.api)
	add(tags.Definition(), tags.Handle)

	taggedItems := tools.NewTaggedItemsTool(d.api)
	add(taggedItems.Definition(), taggedItems.Handle)

	// --- Baselines ---
	baselines := tools.NewBaselinesTool(d.api)
	add(baselines.Definition(), baselines.Handle)

	baseline := tools.NewBaselineTool(d.api)
	add(baseline.Definition(), baseline.Handle)

	baselineItems := tools.NewBaselineItemsTool(d.api)
	add(baselineItems.Definition(), baselineItems.Handle)

	// --- Test management ---
	testPlans := tools.NewTestPlansTool(d.api)
	add(testPlans.Definition(), testPlans.Handle)

	testCycles := tools.NewTestCyclesTool(d.api)
	add(testCycles.Definition(), testCycles.Handle)

	testCycle := tools.NewTestCycleTool(d.api)
	add(testCycle.Definition(), testCycle.Handle)

	testRuns := tools.NewTestRunsTool(d.api)
	add(testRuns.Definition(), testRuns.Handle)

	testRun := tools.NewTestRunTool(d.api)
	add(testRun.Definition(), testRun.Handle)

	// --- Attachments ---
	attachments := tools.NewItemAttachmentsTool(d.api)
	add(attachments.Definition(), attachments.Handle)

	download := tools.NewDownloadAttachmentTool(d.api, d.store, d.log)
	add(download.Definition(), download.Handle)

	return defs
}

// withCallMetrics counts tool invocations by outcome. A handler error is
// an internal failure; a result flagged IsError is a user-facing tool
// error.
func withCallMetrics(m *metrics.Metrics, tool string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := h(ctx, req)
		switch {
		case err != nil:
			m.IncToolCall(tool, "internal_error")
		case res != nil && res.IsError:
			m.IncToolCall(tool, "tool_error")
		default:
			m.IncToolCall(tool, "ok")
		}
		return res, err
	}
}

// serverInstructions returns the system instructions that tell the AI
// how to work with Jama Connect through this server.
func serverInstructions() string {
	return `You have access to jama-mcp, an MCP server for Jama Connect, the
requirements and test management platform. The tools wrap Jama's REST
API: reading projects and items, tracing relationships, and creating
or updating items.

## Finding things

Start from IDs, not names. The usual path is:
1. jama_get_projects to find the project ID
2. jama_get_project_items or jama_search_items to find items
3. jama_get_item for full detail

jama_search_items filters by contained text, exact document key
(e.g. PRJ-REQ-12), project, and item type. Users usually refer to
items by document key, so prefer a document_key search when they
give you one.

All list tools paginate with start_at/max_results. Page size is
capped at 50; check pageInfo.totalResults and keep paging when a
result looks truncated.

## Reading items

An item's editable values live in its "fields" map. Pick-list fields
(status, priority, and similar) hold option IDs, not labels. To show
human-readable values, resolve them: jama_get_item_type_fields tells
you which fields are pick lists, jama_get_pick_list_options maps
option IDs to names.

## Writing safely

Jama items are shared, versioned records. Before any update:
1. jama_get_item to see the current state. Locked items cannot be
   updated; tell the user who holds the lock instead of retrying.
2. Resolve pick-list option IDs for any field you intend to set.
   Passing a label where an option ID belongs is the most common
   mistake.
3. jama_validate_item_fields checks a field map against the item
   type's schema without writing anything. Use it when unsure.
4. After jama_update_item, the result reports old_version and
   new_version. A version_warning means the write may not have
   landed; surface it to the user.

jama_create_item requires project_id, item_type_id, and name, and
rejects a name that already exists under the same parent. Deleting
an item or relationship cannot be undone by this server; confirm
with the user first.

## Batches

jama_batch_create_items and jama_batch_update_items process entries
in order and stop at the first failure. The result reports which
entries succeeded and the zero-based index of the failure; entries
after it were never attempted. Batches are capped at 100 entries.

## Tracing and coverage

Relationships connect items directionally: upstream is toward
sources (what an item derives from), downstream toward consumers
(what verifies or implements it). jama_get_upstream_relationships
and jama_get_downstream_relationships take include_items to fetch
the related items in one call. For test coverage questions, walk
jama_get_test_plans → jama_get_test_cycles → jama_get_test_runs and
read each run's execution_status field.

## Attachments

jama_get_item_attachments lists metadata. jama_download_attachment
verifies the file and reports its name, type, and size; file bytes
are never returned inline. With archive=true the file is stored on
the server's configured archive target and the result says where.

## Resources and prompts

The resource jama://connection reports the configured instance,
auth mode, and live connectivity; jama://catalog lists every
registered tool. The jama_item_review prompt walks through a
structured review of one item, and jama_coverage_check audits a
project's requirement-to-test coverage.`
}
