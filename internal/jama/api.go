package jama

import (
	"context"

	"github.com/irisworks/jama-mcp/internal/jsonpatch"
)

// API is the Jama Connect surface the tool layer works against. Two
// implementations exist: *Client speaks to a real instance over REST,
// and the mock package serves a seeded local workspace for demos and
// tests.
type API interface {
	// Ping verifies connectivity and authentication with a lightweight
	// root-endpoint request.
	Ping(ctx context.Context) error

	// --- Projects ---
	GetProjects(ctx context.Context, startAt, maxResults int) ([]Project, *PageInfo, error)
	GetProject(ctx context.Context, id int) (*Project, error)

	// --- Items ---
	GetAbstractItems(ctx context.Context, q SearchQuery) ([]Item, *PageInfo, error)
	GetItem(ctx context.Context, id int) (*Item, error)
	GetItemChildren(ctx context.Context, id int) ([]Item, error)
	GetItemVersions(ctx context.Context, id, startAt, maxResults int) ([]ItemVersion, *PageInfo, error)
	CreateItem(ctx context.Context, req CreateItemRequest) (int, error)
	PatchItem(ctx context.Context, id int, ops []jsonpatch.Op) error
	DeleteItem(ctx context.Context, id int) error

	// --- Relationships ---
	GetItemRelationships(ctx context.Context, itemID int) ([]Relationship, error)
	GetProjectRelationships(ctx context.Context, projectID int) ([]Relationship, error)
	GetRelationship(ctx context.Context, id int) (*Relationship, error)
	GetUpstreamRelationships(ctx context.Context, itemID int) ([]Relationship, error)
	GetDownstreamRelationships(ctx context.Context, itemID int) ([]Relationship, error)
	GetUpstreamRelated(ctx context.Context, itemID int) ([]Item, error)
	GetDownstreamRelated(ctx context.Context, itemID int) ([]Item, error)
	GetRelationshipTypes(ctx context.Context) ([]RelationshipType, error)
	CreateRelationship(ctx context.Context, req CreateRelationshipRequest) (int, error)
	DeleteRelationship(ctx context.Context, id int) error

	// --- Item types ---
	GetItemTypes(ctx context.Context) ([]ItemType, error)
	GetItemType(ctx context.Context, id int) (*ItemType, error)
	GetProjectItemTypes(ctx context.Context, projectID int) ([]ItemType, error)

	// --- Pick lists ---
	GetPickLists(ctx context.Context) ([]PickList, error)
	GetPickList(ctx context.Context, id int) (*PickList, error)
	GetPickListOptions(ctx context.Context, pickListID int) ([]PickListOption, error)
	GetPickListOption(ctx context.Context, id int) (*PickListOption, error)

	// --- Tags ---
	GetTags(ctx context.Context, projectID int) ([]Tag, error)
	GetTaggedItems(ctx context.Context, tagID int) ([]Item, error)

	// --- Test management ---
	GetTestPlans(ctx context.Context, projectID int) ([]Item, error)
	GetTestCycles(ctx context.Context, testPlanID int) ([]Item, error)
	GetTestCycle(ctx context.Context, id int) (*Item, error)
	GetTestRuns(ctx context.Context, testCycleID int) ([]Item, error)
	GetTestRun(ctx context.Context, id int) (*Item, error)

	// --- Baselines ---
	GetBaselines(ctx context.Context, projectID int) ([]Baseline, error)
	GetBaseline(ctx context.Context, id int) (*Baseline, error)
	GetBaselineItems(ctx context.Context, id int) ([]Item, error)

	// --- Attachments ---
	GetItemAttachments(ctx context.Context, itemID int) ([]Attachment, error)
	GetAttachment(ctx context.Context, id int) (*Attachment, error)
	DownloadAttachment(ctx context.Context, id int) ([]byte, string, error)
}
