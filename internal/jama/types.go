package jama

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// --- Response envelope ---

// PageInfo is Jama's pagination block, present on every list response.
type PageInfo struct {
	StartIndex   int `json:"startIndex"`
	ResultCount  int `json:"resultCount"`
	TotalResults int `json:"totalResults"`
}

// Meta is the meta block of a Jama REST v1 response. Message is only set
// on error responses; ID and Location only on create responses.
type Meta struct {
	Status    string    `json:"status,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	Message   string    `json:"message,omitempty"`
	ID        int       `json:"id,omitempty"`
	Location  string    `json:"location,omitempty"`
	PageInfo  *PageInfo `json:"pageInfo,omitempty"`
}

type listEnvelope[T any] struct {
	Meta Meta `json:"meta"`
	Data []T  `json:"data"`
}

type singleEnvelope[T any] struct {
	Meta Meta `json:"meta"`
	Data T    `json:"data"`
}

// --- Core entities ---

// Project is a Jama project container.
type Project struct {
	ID           int    `json:"id"`
	ProjectKey   string `json:"projectKey,omitempty"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	IsFolder     bool   `json:"isFolder,omitempty"`
	CreatedDate  string `json:"createdDate,omitempty"`
	ModifiedDate string `json:"modifiedDate,omitempty"`
	CreatedBy    int    `json:"createdBy,omitempty"`
	ModifiedBy   int    `json:"modifiedBy,omitempty"`
}

// Lock is the nested lock block on an item. Jama sets Locked when a user
// holds an edit lock; updates against such items are rejected client-side
// before any PATCH is attempted.
type Lock struct {
	Locked         bool   `json:"locked"`
	LockedBy       int    `json:"lockedBy,omitempty"`
	LastLockedDate string `json:"lastLockedDate,omitempty"`
}

// ParentRef points at an item's parent, either another item or the
// project root. Jama serializes it as an object, but older payloads carry
// a bare item ID, so decoding accepts both.
type ParentRef struct {
	Item    int `json:"item,omitempty"`
	Project int `json:"project,omitempty"`
}

func (p *ParentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		type plain ParentRef
		return json.Unmarshal(data, (*plain)(p))
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("parent must be an object or an item ID: %w", err)
	}
	p.Item = id
	return nil
}

// Location places an item in the project tree.
type Location struct {
	Parent    *ParentRef `json:"parent,omitempty"`
	SortOrder int        `json:"sortOrder,omitempty"`
}

// Item is a Jama work item: requirement, test case, folder, or any other
// item type. Fields holds the name/description pair plus every custom
// field the type defines.
type Item struct {
	ID               int            `json:"id"`
	DocumentKey      string         `json:"documentKey,omitempty"`
	GlobalID         string         `json:"globalId,omitempty"`
	Project          int            `json:"project,omitempty"`
	ItemType         int            `json:"itemType,omitempty"`
	ChildItemType    int            `json:"childItemType,omitempty"`
	Location         *Location      `json:"location,omitempty"`
	Fields           map[string]any `json:"fields,omitempty"`
	CreatedDate      string         `json:"createdDate,omitempty"`
	ModifiedDate     string         `json:"modifiedDate,omitempty"`
	LastActivityDate string         `json:"lastActivityDate,omitempty"`
	CreatedBy        int            `json:"createdBy,omitempty"`
	ModifiedBy       int            `json:"modifiedBy,omitempty"`
	CurrentVersion   int            `json:"currentVersion,omitempty"`
	Lock             *Lock          `json:"lock,omitempty"`
	Locked           bool           `json:"locked,omitempty"`
}

// IsLocked reports whether the item carries an active edit lock. The
// nested lock block wins over the legacy top-level flag.
func (it *Item) IsLocked() bool {
	if it == nil {
		return false
	}
	if it.Lock != nil {
		return it.Lock.Locked
	}
	return it.Locked
}

// Name returns the item's name field, or "" when unset.
func (it *Item) Name() string {
	if it == nil || it.Fields == nil {
		return ""
	}
	name, _ := it.Fields["name"].(string)
	return name
}

// ItemVersion is one entry in an item's version history.
type ItemVersion struct {
	ID            int    `json:"id,omitempty"`
	ItemID        int    `json:"item,omitempty"`
	VersionNumber int    `json:"versionNumber"`
	Name          string `json:"name,omitempty"`
	Comment       string `json:"comment,omitempty"`
	CreatedDate   string `json:"createdDate,omitempty"`
	CreatedBy     int    `json:"createdBy,omitempty"`
}

// Relationship links two items directionally.
type Relationship struct {
	ID               int    `json:"id"`
	FromItem         int    `json:"fromItem"`
	ToItem           int    `json:"toItem"`
	RelationshipType int    `json:"relationshipType,omitempty"`
	Suspect          bool   `json:"suspect,omitempty"`
	CreatedDate      string `json:"createdDate,omitempty"`
	ModifiedDate     string `json:"modifiedDate,omitempty"`
	CreatedBy        int    `json:"createdBy,omitempty"`
	ModifiedBy       int    `json:"modifiedBy,omitempty"`
}

// RelationshipType describes a relationship kind and its display names.
type RelationshipType struct {
	ID          int    `json:"id"`
	Name        string `json:"name,omitempty"`
	ForwardName string `json:"forwardName,omitempty"`
	ReverseName string `json:"reverseName,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
}

// ItemTypeField is one field definition in an item type's schema.
type ItemTypeField struct {
	ID        int    `json:"id,omitempty"`
	Name      string `json:"name"`
	Label     string `json:"label,omitempty"`
	FieldType string `json:"fieldType,omitempty"`
	Required  bool   `json:"required,omitempty"`
	ReadOnly  bool   `json:"readOnly,omitempty"`
	PickList  int    `json:"pickList,omitempty"`
}

// ItemType describes a Jama item type and its field schema.
type ItemType struct {
	ID       int             `json:"id"`
	Name     string          `json:"name,omitempty"`
	Display  string          `json:"display,omitempty"`
	Category string          `json:"category,omitempty"`
	TypeKey  string          `json:"typeKey,omitempty"`
	Image    string          `json:"image,omitempty"`
	Fields   []ItemTypeField `json:"fields,omitempty"`
}

// PickList is a named set of selectable options.
type PickList struct {
	ID          int    `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// PickListOption is a single selectable value in a pick list.
type PickListOption struct {
	ID       int    `json:"id"`
	PickList int    `json:"pickList,omitempty"`
	Name     string `json:"name,omitempty"`
	Value    string `json:"value,omitempty"`
	Active   bool   `json:"active,omitempty"`
	Default  bool   `json:"default,omitempty"`
}

// Tag is a project-scoped label applied to items.
type Tag struct {
	ID      int    `json:"id"`
	Name    string `json:"name,omitempty"`
	Project int    `json:"project,omitempty"`
}

// Baseline is a frozen snapshot of project items.
type Baseline struct {
	ID          int    `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Project     int    `json:"project,omitempty"`
	CreatedDate string `json:"createdDate,omitempty"`
	CreatedBy   int    `json:"createdBy,omitempty"`
}

// Attachment is file metadata attached to an item. File bytes are fetched
// separately with DownloadAttachment.
type Attachment struct {
	ID           int    `json:"id"`
	FileName     string `json:"fileName,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	FileSize     int64  `json:"fileSize,omitempty"`
	Item         int    `json:"item,omitempty"`
	CreatedDate  string `json:"createdDate,omitempty"`
	ModifiedDate string `json:"modifiedDate,omitempty"`
	CreatedBy    int    `json:"createdBy,omitempty"`
	ModifiedBy   int    `json:"modifiedBy,omitempty"`
}

// --- Request payloads ---

// CreateItemRequest is the POST /items body. Location.Parent must point
// at either a parent item or the project root.
type CreateItemRequest struct {
	Project       int            `json:"project"`
	ItemType      int            `json:"itemType"`
	ChildItemType int            `json:"childItemType,omitempty"`
	Location      Location       `json:"location"`
	Fields        map[string]any `json:"fields"`
}

// CreateRelationshipRequest is the POST /relationships body.
// RelationshipType zero means Jama's project default.
type CreateRelationshipRequest struct {
	FromItem         int `json:"fromItem"`
	ToItem           int `json:"toItem"`
	RelationshipType int `json:"relationshipType,omitempty"`
}

// SearchQuery narrows a GET /abstractitems call. Zero values are omitted
// from the request.
type SearchQuery struct {
	Project     int
	Contains    string
	ItemType    int
	DocumentKey string
	StartAt     int
	MaxResults  int
}
