package mock

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/jama"
	"github.com/irisworks/jama-mcp/internal/jsonpatch"
)

const (
	maxPageSize     = 50
	defaultPageSize = 20
)

func clampPage(startAt, maxResults int) (int, int) {
	if startAt < 0 {
		startAt = 0
	}
	switch {
	case maxResults <= 0:
		maxResults = defaultPageSize
	case maxResults > maxPageSize:
		maxResults = maxPageSize
	}
	return startAt, maxResults
}

// Ping verifies the workspace database is reachable.
func (w *Workspace) Ping(ctx context.Context) error {
	var one int
	if err := w.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("mock: ping: %w", err)
	}
	return nil
}

// ─── Projects ────────────────────────────────────────────────────────────────

func (w *Workspace) GetProjects(ctx context.Context, startAt, maxResults int) ([]jama.Project, *jama.PageInfo, error) {
	startAt, maxResults = clampPage(startAt, maxResults)

	var total int
	if err := w.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&total); err != nil {
		return nil, nil, err
	}

	rows, err := w.db.QueryContext(ctx, `
		SELECT id, project_key, name, description, is_folder, created_date, modified_date
		FROM projects ORDER BY id LIMIT ? OFFSET ?`, maxResults, startAt)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var projects []jama.Project
	for rows.Next() {
		var p jama.Project
		var isFolder int
		if err := rows.Scan(&p.ID, &p.ProjectKey, &p.Name, &p.Description, &isFolder, &p.CreatedDate, &p.ModifiedDate); err != nil {
			return nil, nil, err
		}
		p.IsFolder = isFolder != 0
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	page := &jama.PageInfo{StartIndex: startAt, ResultCount: len(projects), TotalResults: total}
	return projects, page, nil
}

func (w *Workspace) GetProject(ctx context.Context, id int) (*jama.Project, error) {
	var p jama.Project
	var isFolder int
	err := w.db.QueryRowContext(ctx, `
		SELECT id, project_key, name, description, is_folder, created_date, modified_date
		FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.ProjectKey, &p.Name, &p.Description, &isFolder, &p.CreatedDate, &p.ModifiedDate)
	if err == sql.ErrNoRows {
		return nil, notFound("Project %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	p.IsFolder = isFolder != 0
	return &p, nil
}

func (w *Workspace) requireProject(ctx context.Context, id int) error {
	var one int
	err := w.db.QueryRowContext(ctx, "SELECT 1 FROM projects WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return notFound("Project %d not found", id)
	}
	return err
}

// ─── Items ───────────────────────────────────────────────────────────────────

func (w *Workspace) GetAbstractItems(ctx context.Context, q jama.SearchQuery) ([]jama.Item, *jama.PageInfo, error) {
	startAt, maxResults := clampPage(q.StartAt, q.MaxResults)

	where := []string{"deleted_at IS NULL"}
	var args []any
	if q.Project != 0 {
		where = append(where, "project = ?")
		args = append(args, q.Project)
	}
	if q.ItemType != 0 {
		where = append(where, "item_type = ?")
		args = append(args, q.ItemType)
	}
	if q.DocumentKey != "" {
		where = append(where, "document_key = ?")
		args = append(args, q.DocumentKey)
	}
	if match := sanitizeFTS(q.Contains); match != "" {
		where = append(where, "id IN (SELECT rowid FROM items_fts WHERE items_fts MATCH ?)")
		args = append(args, match)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := w.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM items WHERE %s ORDER BY id LIMIT ? OFFSET ?", itemColumns, cond)
	items, err := w.queryItems(ctx, query, append(args, maxResults, startAt)...)
	if err != nil {
		return nil, nil, err
	}
	page := &jama.PageInfo{StartIndex: startAt, ResultCount: len(items), TotalResults: total}
	return items, page, nil
}

func (w *Workspace) GetItem(ctx context.Context, id int) (*jama.Item, error) {
	row := w.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM items WHERE id = ? AND deleted_at IS NULL", itemColumns), id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, notFound("Item %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (w *Workspace) requireItem(ctx context.Context, id int) error {
	var one int
	err := w.db.QueryRowContext(ctx, "SELECT 1 FROM items WHERE id = ? AND deleted_at IS NULL", id).Scan(&one)
	if err == sql.ErrNoRows {
		return notFound("Item %d not found", id)
	}
	return err
}

func (w *Workspace) GetItemChildren(ctx context.Context, id int) ([]jama.Item, error) {
	if err := w.requireItem(ctx, id); err != nil {
		return nil, err
	}
	return w.queryItems(ctx, fmt.Sprintf(
		"SELECT %s FROM items WHERE parent_item = ? AND deleted_at IS NULL ORDER BY sort_order, id",
		itemColumns), id)
}

func (w *Workspace) GetItemVersions(ctx context.Context, id, startAt, maxResults int) ([]jama.ItemVersion, *jama.PageInfo, error) {
	if err := w.requireItem(ctx, id); err != nil {
		return nil, nil, err
	}
	startAt, maxResults = clampPage(startAt, maxResults)

	var total int
	if err := w.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM item_versions WHERE item = ?", id).Scan(&total); err != nil {
		return nil, nil, err
	}

	rows, err := w.db.QueryContext(ctx, `
		SELECT id, item, version_number, ifnull(json_extract(fields, '$.name'), ''), comment, created_date
		FROM item_versions WHERE item = ? ORDER BY version_number LIMIT ? OFFSET ?`,
		id, maxResults, startAt)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var versions []jama.ItemVersion
	for rows.Next() {
		var v jama.ItemVersion
		if err := rows.Scan(&v.ID, &v.ItemID, &v.VersionNumber, &v.Name, &v.Comment, &v.CreatedDate); err != nil {
			return nil, nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	page := &jama.PageInfo{StartIndex: startAt, ResultCount: len(versions), TotalResults: total}
	return versions, page, nil
}

func (w *Workspace) CreateItem(ctx context.Context, req jama.CreateItemRequest) (int, error) {
	if err := w.requireProject(ctx, req.Project); err != nil {
		if jama.IsNotFound(err) {
			return 0, badRequest("project %d does not exist", req.Project)
		}
		return 0, err
	}

	var projectKey, typeKey string
	if err := w.db.QueryRowContext(ctx,
		"SELECT project_key FROM projects WHERE id = ?", req.Project).Scan(&projectKey); err != nil {
		return 0, err
	}
	err := w.db.QueryRowContext(ctx,
		"SELECT type_key FROM item_types WHERE id = ?", req.ItemType).Scan(&typeKey)
	if err == sql.ErrNoRows {
		return 0, badRequest("item type %d does not exist", req.ItemType)
	}
	if err != nil {
		return 0, err
	}

	var parentItem, parentProject any
	if p := req.Location.Parent; p != nil {
		switch {
		case p.Item != 0:
			if err := w.requireItem(ctx, p.Item); err != nil {
				if jama.IsNotFound(err) {
					return 0, badRequest("parent item %d does not exist", p.Item)
				}
				return 0, err
			}
			parentItem = p.Item
		case p.Project != 0:
			if err := w.requireProject(ctx, p.Project); err != nil {
				if jama.IsNotFound(err) {
					return 0, badRequest("parent project %d does not exist", p.Project)
				}
				return 0, err
			}
			parentProject = p.Project
		}
	}
	if parentItem == nil && parentProject == nil {
		parentProject = req.Project
	}

	fields := req.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return 0, fmt.Errorf("mock: encode fields: %w", err)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var seq, sortOrder int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) + 1 FROM items WHERE project = ? AND item_type = ?",
		req.Project, req.ItemType).Scan(&seq); err != nil {
		return 0, err
	}
	if err := tx.QueryRowContext(ctx, `
		SELECT ifnull(MAX(sort_order), 0) + 1 FROM items
		WHERE ifnull(parent_item, 0) = ifnull(?, 0) AND ifnull(parent_project, 0) = ifnull(?, 0)`,
		parentItem, parentProject).Scan(&sortOrder); err != nil {
		return 0, err
	}

	documentKey := fmt.Sprintf("%s-%s-%d", projectKey, typeKey, seq)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO items (document_key, project, item_type, child_item_type,
			parent_item, parent_project, sort_order, fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		documentKey, req.Project, req.ItemType, nullableInt(req.ChildItemType),
		parentItem, parentProject, sortOrder, string(fieldsJSON))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE items SET global_id = 'GID-' || id WHERE id = ?", id); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO item_versions (item, version_number, fields, comment)
		VALUES (?, 1, ?, 'Created')`, id, string(fieldsJSON)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	w.log.Debug("mock item created", zap.Int64("id", id), zap.String("documentKey", documentKey))
	return int(id), nil
}

func (w *Workspace) PatchItem(ctx context.Context, id int, ops []jsonpatch.Op) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		fieldsJSON string
		version    int
		locked     int
	)
	err = tx.QueryRowContext(ctx,
		"SELECT fields, current_version, locked FROM items WHERE id = ? AND deleted_at IS NULL", id).
		Scan(&fieldsJSON, &version, &locked)
	if err == sql.ErrNoRows {
		return notFound("Item %d not found", id)
	}
	if err != nil {
		return err
	}
	if locked != 0 {
		return badRequest("Item %d is locked and cannot be modified", id)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return fmt.Errorf("item %d fields: %w", id, err)
	}
	if err := applyOps(fields, ops); err != nil {
		return err
	}

	updated, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("mock: encode fields: %w", err)
	}
	version++
	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET fields = ?, current_version = ?, modified_date = datetime('now')
		WHERE id = ?`, string(updated), version, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO item_versions (item, version_number, fields, comment)
		VALUES (?, ?, ?, 'Updated')`, id, version, string(updated)); err != nil {
		return err
	}
	return tx.Commit()
}

// applyOps applies a patch document to a field map. Only paths under
// /fields are valid; anything else is a validation error, as is any op
// the live API would reject on this endpoint.
func applyOps(fields map[string]any, ops []jsonpatch.Op) error {
	for i, op := range ops {
		name, ok := strings.CutPrefix(op.Path, "/fields/")
		if !ok || name == "" {
			return badRequest("patch at index %d: path %q is not a field path", i, op.Path)
		}
		name = unescapePointer(name)

		switch op.Op {
		case "add", "replace":
			var value any
			if err := json.Unmarshal(op.Value, &value); err != nil {
				return badRequest("patch at index %d: invalid value: %v", i, err)
			}
			fields[name] = value
		case "remove":
			if _, ok := fields[name]; !ok {
				return badRequest("patch at index %d: field %q does not exist", i, name)
			}
			delete(fields, name)
		case "test":
			var want any
			if err := json.Unmarshal(op.Value, &want); err != nil {
				return badRequest("patch at index %d: invalid value: %v", i, err)
			}
			if !reflect.DeepEqual(normalizeJSON(fields[name]), want) {
				return conflict("patch at index %d: test failed for field %q", i, name)
			}
		default:
			return badRequest("patch at index %d: op %q is not supported", i, op.Op)
		}
	}
	return nil
}

// normalizeJSON round-trips a value through JSON so stored Go values
// compare equal to freshly decoded ones (int vs float64 and so on).
func normalizeJSON(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func unescapePointer(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	s = strings.ReplaceAll(s, "~0", "~")
	return s
}

func (w *Workspace) DeleteItem(ctx context.Context, id int) error {
	var locked int
	err := w.db.QueryRowContext(ctx,
		"SELECT locked FROM items WHERE id = ? AND deleted_at IS NULL", id).Scan(&locked)
	if err == sql.ErrNoRows {
		return notFound("Item %d not found", id)
	}
	if err != nil {
		return err
	}
	if locked != 0 {
		return badRequest("Item %d is locked and cannot be deleted", id)
	}

	// Deleting an item removes its whole subtree, matching server behavior.
	_, err = w.db.ExecContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT ?
			UNION ALL
			SELECT i.id FROM items i JOIN subtree s ON i.parent_item = s.id
			WHERE i.deleted_at IS NULL
		)
		UPDATE items SET deleted_at = datetime('now')
		WHERE id IN (SELECT id FROM subtree) AND deleted_at IS NULL`, id)
	return err
}

// ─── Relationships ───────────────────────────────────────────────────────────

// relationshipSelect joins both endpoints so relationships touching a
// soft-deleted item disappear along with it.
const relationshipSelect = `
	SELECT r.id, r.from_item, r.to_item, r.relationship_type, r.suspect, r.created_date
	FROM relationships r
	JOIN items fi ON fi.id = r.from_item AND fi.deleted_at IS NULL
	JOIN items ti ON ti.id = r.to_item   AND ti.deleted_at IS NULL`

func scanRelationship(row rowScanner) (*jama.Relationship, error) {
	var r jama.Relationship
	var suspect int
	if err := row.Scan(&r.ID, &r.FromItem, &r.ToItem, &r.RelationshipType, &suspect, &r.CreatedDate); err != nil {
		return nil, err
	}
	r.Suspect = suspect != 0
	return &r, nil
}

func (w *Workspace) queryRelationships(ctx context.Context, where string, args ...any) ([]jama.Relationship, error) {
	rows, err := w.db.QueryContext(ctx, relationshipSelect+" WHERE "+where+" ORDER BY r.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []jama.Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, *r)
	}
	return rels, rows.Err()
}

func (w *Workspace) GetItemRelationships(ctx context.Context, itemID int) ([]jama.Relationship, error) {
	if err := w.requireItem(ctx, itemID); err != nil {
		return nil, err
	}
	return w.queryRelationships(ctx, "r.from_item = ? OR r.to_item = ?", itemID, itemID)
}

func (w *Workspace) GetProjectRelationships(ctx context.Context, projectID int) ([]jama.Relationship, error) {
	if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return w.queryRelationships(ctx, "fi.project = ?", projectID)
}

func (w *Workspace) GetRelationship(ctx context.Context, id int) (*jama.Relationship, error) {
	row := w.db.QueryRowContext(ctx, relationshipSelect+" WHERE r.id = ?", id)
	r, err := scanRelationship(row)
	if err == sql.ErrNoRows {
		return nil, notFound("Relationship %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (w *Workspace) GetUpstreamRelationships(ctx context.Context, itemID int) ([]jama.Relationship, error) {
	if err := w.requireItem(ctx, itemID); err != nil {
		return nil, err
	}
	return w.queryRelationships(ctx, "r.to_item = ?", itemID)
}

func (w *Workspace) GetDownstreamRelationships(ctx context.Context, itemID int) ([]jama.Relationship, error) {
	if err := w.requireItem(ctx, itemID); err != nil {
		return nil, err
	}
	return w.queryRelationships(ctx, "r.from_item = ?", itemID)
}

func (w *Workspace) GetUpstreamRelated(ctx context.Context, itemID int) ([]jama.Item, error) {
	if err := w.requireItem(ctx, itemID); err != nil {
		return nil, err
	}
	return w.queryItems(ctx, fmt.Sprintf(`
		SELECT %s FROM items
		WHERE id IN (SELECT from_item FROM relationships WHERE to_item = ?)
		AND deleted_at IS NULL ORDER BY id`, itemColumns), itemID)
}

func (w *Workspace) GetDownstreamRelated(ctx context.Context, itemID int) ([]jama.Item, error) {
	if err := w.requireItem(ctx, itemID); err != nil {
		return nil, err
	}
	return w.queryItems(ctx, fmt.Sprintf(`
		SELECT %s FROM items
		WHERE id IN (SELECT to_item FROM relationships WHERE from_item = ?)
		AND deleted_at IS NULL ORDER BY id`, itemColumns), itemID)
}

func (w *Workspace) GetRelationshipTypes(ctx context.Context) ([]jama.RelationshipType, error) {
	rows, err := w.db.QueryContext(ctx,
		"SELECT id, name, forward_name, reverse_name, is_default FROM relationship_types ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []jama.RelationshipType
	for rows.Next() {
		var t jama.RelationshipType
		var isDefault int
		if err := rows.Scan(&t.ID, &t.Name, &t.ForwardName, &t.ReverseName, &isDefault); err != nil {
			return nil, err
		}
		t.IsDefault = isDefault != 0
		types = append(types, t)
	}
	return types, rows.Err()
}

func (w *Workspace) CreateRelationship(ctx context.Context, req jama.CreateRelationshipRequest) (int, error) {
	for _, itemID := range []int{req.FromItem, req.ToItem} {
		if err := w.requireItem(ctx, itemID); err != nil {
			if jama.IsNotFound(err) {
				return 0, badRequest("item %d does not exist", itemID)
			}
			return 0, err
		}
	}
	if req.FromItem == req.ToItem {
		return 0, badRequest("an item cannot relate to itself")
	}

	relType := req.RelationshipType
	if relType == 0 {
		err := w.db.QueryRowContext(ctx,
			"SELECT id FROM relationship_types ORDER BY is_default DESC, id LIMIT 1").Scan(&relType)
		if err == sql.ErrNoRows {
			return 0, badRequest("no relationship types are defined")
		}
		if err != nil {
			return 0, err
		}
	} else {
		var one int
		err := w.db.QueryRowContext(ctx,
			"SELECT 1 FROM relationship_types WHERE id = ?", relType).Scan(&one)
		if err == sql.ErrNoRows {
			return 0, badRequest("relationship type %d does not exist", relType)
		}
		if err != nil {
			return 0, err
		}
	}

	res, err := w.db.ExecContext(ctx,
		"INSERT INTO relationships (from_item, to_item, relationship_type) VALUES (?, ?, ?)",
		req.FromItem, req.ToItem, relType)
	if isUniqueViolation(err) {
		return 0, conflict("relationship already exists between items %d and %d", req.FromItem, req.ToItem)
	}
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (w *Workspace) DeleteRelationship(ctx context.Context, id int) error {
	res, err := w.db.ExecContext(ctx, "DELETE FROM relationships WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("Relationship %d not found", id)
	}
	return nil
}

// ─── Item types ──────────────────────────────────────────────────────────────

func scanItemType(row rowScanner) (*jama.ItemType, error) {
	var t jama.ItemType
	var fieldsJSON string
	if err := row.Scan(&t.ID, &t.Name, &t.Display, &t.Category, &t.TypeKey, &fieldsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &t.Fields); err != nil {
		return nil, fmt.Errorf("item type %d fields: %w", t.ID, err)
	}
	return &t, nil
}

func (w *Workspace) GetItemTypes(ctx context.Context) ([]jama.ItemType, error) {
	rows, err := w.db.QueryContext(ctx,
		"SELECT id, name, display, category, type_key, fields FROM item_types ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []jama.ItemType
	for rows.Next() {
		t, err := scanItemType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *t)
	}
	return types, rows.Err()
}

func (w *Workspace) GetItemType(ctx context.Context, id int) (*jama.ItemType, error) {
	row := w.db.QueryRowContext(ctx,
		"SELECT id, name, display, category, type_key, fields FROM item_types WHERE id = ?", id)
	t, err := scanItemType(row)
	if err == sql.ErrNoRows {
		return nil, notFound("Item type %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetProjectItemTypes returns every defined type. The mock workspace does
// not scope type availability per project.
func (w *Workspace) GetProjectItemTypes(ctx context.Context, projectID int) ([]jama.ItemType, error) {
	if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return w.GetItemTypes(ctx)
}

func (w *Workspace) itemTypeIDByKey(ctx context.Context, typeKey string) (int, error) {
	var id int
	err := w.db.QueryRowContext(ctx,
		"SELECT id FROM item_types WHERE type_key = ?", typeKey).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, notFound("Item type %q not found", typeKey)
	}
	return id, err
}

// ─── Pick lists ──────────────────────────────────────────────────────────────

func (w *Workspace) GetPickLists(ctx context.Context) ([]jama.PickList, error) {
	rows, err := w.db.QueryContext(ctx, "SELECT id, name, description FROM picklists ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []jama.PickList
	for rows.Next() {
		var pl jama.PickList
		if err := rows.Scan(&pl.ID, &pl.Name, &pl.Description); err != nil {
			return nil, err
		}
		lists = append(lists, pl)
	}
	return lists, rows.Err()
}

func (w *Workspace) GetPickList(ctx context.Context, id int) (*jama.PickList, error) {
	var pl jama.PickList
	err := w.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM picklists WHERE id = ?", id).
		Scan(&pl.ID, &pl.Name, &pl.Description)
	if err == sql.ErrNoRows {
		return nil, notFound("Pick list %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func (w *Workspace) GetPickListOptions(ctx context.Context, pickListID int) ([]jama.PickListOption, error) {
	if _, err := w.GetPickList(ctx, pickListID); err != nil {
		return nil, err
	}
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, picklist, name, value, active, is_default
		FROM picklist_options WHERE picklist = ? ORDER BY id`, pickListID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []jama.PickListOption
	for rows.Next() {
		var o jama.PickListOption
		var active, isDefault int
		if err := rows.Scan(&o.ID, &o.PickList, &o.Name, &o.Value, &active, &isDefault); err != nil {
			return nil, err
		}
		o.Active = active != 0
		o.Default = isDefault != 0
		options = append(options, o)
	}
	return options, rows.Err()
}

func (w *Workspace) GetPickListOption(ctx context.Context, id int) (*jama.PickListOption, error) {
	var o jama.PickListOption
	var active, isDefault int
	err := w.db.QueryRowContext(ctx, `
		SELECT id, picklist, name, value, active, is_default
		FROM picklist_options WHERE id = ?`, id).
		Scan(&o.ID, &o.PickList, &o.Name, &o.Value, &active, &isDefault)
	if err == sql.ErrNoRows {
		return nil, notFound("Pick list option %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	o.Active = active != 0
	o.Default = isDefault != 0
	return &o, nil
}

// ─── Tags ────────────────────────────────────────────────────────────────────

func (w *Workspace) GetTags(ctx context.Context, projectID int) ([]jama.Tag, error) {
	if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := w.db.QueryContext(ctx,
		"SELECT id, name, project FROM tags WHERE project = ? ORDER BY id", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []jama.Tag
	for rows.Next() {
		var t jama.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Project); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (w *Workspace) GetTaggedItems(ctx context.Context, tagID int) ([]jama.Item, error) {
	var one int
	err := w.db.QueryRowContext(ctx, "SELECT 1 FROM tags WHERE id = ?", tagID).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, notFound("Tag %d not found", tagID)
	}
	if err != nil {
		return nil, err
	}
	return w.queryItems(ctx, fmt.Sprintf(`
		SELECT %s FROM items
		WHERE id IN (SELECT item FROM item_tags WHERE tag = ?)
		AND deleted_at IS NULL ORDER BY id`, itemColumns), tagID)
}

// ─── Test management ─────────────────────────────────────────────────────────

// Test plans, cycles, and runs are items with dedicated types, mirroring
// how Jama models them.

func (w *Workspace) itemsOfType(ctx context.Context, typeKey, scope string, scopeID int) ([]jama.Item, error) {
	typeID, err := w.itemTypeIDByKey(ctx, typeKey)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM items WHERE item_type = ? AND %s = ? AND deleted_at IS NULL ORDER BY id",
		itemColumns, scope)
	return w.queryItems(ctx, query, typeID, scopeID)
}

func (w *Workspace) itemOfType(ctx context.Context, typeKey, kind string, id int) (*jama.Item, error) {
	it, err := w.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	typeID, err := w.itemTypeIDByKey(ctx, typeKey)
	if err != nil {
		return nil, err
	}
	if it.ItemType != typeID {
		return nil, notFound("%s %d not found", kind, id)
	}
	return it, nil
}

func (w *Workspace) GetTestPlans(ctx context.Context, projectID int) ([]jama.Item, error) {
	if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return w.itemsOfType(ctx, typeKeyTestPlan, "project", projectID)
}

func (w *Workspace) GetTestCycles(ctx context.Context, testPlanID int) ([]jama.Item, error) {
	if _, err := w.itemOfType(ctx, typeKeyTestPlan, "Test plan", testPlanID); err != nil {
		return nil, err
	}
	return w.itemsOfType(ctx, typeKeyTestCycle, "parent_item", testPlanID)
}

func (w *Workspace) GetTestCycle(ctx context.Context, id int) (*jama.Item, error) {
	return w.itemOfType(ctx, typeKeyTestCycle, "Test cycle", id)
}

func (w *Workspace) GetTestRuns(ctx context.Context, testCycleID int) ([]jama.Item, error) {
	if _, err := w.itemOfType(ctx, typeKeyTestCycle, "Test cycle", testCycleID); err != nil {
		return nil, err
	}
	return w.itemsOfType(ctx, typeKeyTestRun, "parent_item", testCycleID)
}

func (w *Workspace) GetTestRun(ctx context.Context, id int) (*jama.Item, error) {
	return w.itemOfType(ctx, typeKeyTestRun, "Test run", id)
}

// ─── Baselines ───────────────────────────────────────────────────────────────

func (w *Workspace) GetBaselines(ctx context.Context, projectID int) ([]jama.Baseline, error) {
	if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, name, description, project, created_date
		FROM baselines WHERE project = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var baselines []jama.Baseline
	for rows.Next() {
		var b jama.Baseline
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Project, &b.CreatedDate); err != nil {
			return nil, err
		}
		baselines = append(baselines, b)
	}
	return baselines, rows.Err()
}

func (w *Workspace) GetBaseline(ctx context.Context, id int) (*jama.Baseline, error) {
	var b jama.Baseline
	err := w.db.QueryRowContext(ctx, `
		SELECT id, name, description, project, created_date
		FROM baselines WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Description, &b.Project, &b.CreatedDate)
	if err == sql.ErrNoRows {
		return nil, notFound("Baseline %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBaselineItems returns the snapshot members. Baselines are frozen, so
// items deleted after the snapshot still appear.
func (w *Workspace) GetBaselineItems(ctx context.Context, id int) ([]jama.Item, error) {
	if _, err := w.GetBaseline(ctx, id); err != nil {
		return nil, err
	}
	return w.queryItems(ctx, fmt.Sprintf(`
		SELECT %s FROM items
		WHERE id IN (SELECT item FROM baseline_items WHERE baseline = ?)
		ORDER BY id`, itemColumns), id)
}

// ─── Attachments ─────────────────────────────────────────────────────────────

func (w *Workspace) GetItemAttachments(ctx context.Context, itemID int) ([]jama.Attachment, error) {
	if err := w.requireItem(ctx, itemID); err != nil {
		return nil, err
	}
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, item, file_name, mime_type, length(content), created_date
		FROM attachments WHERE item = ? ORDER BY id`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []jama.Attachment
	for rows.Next() {
		var a jama.Attachment
		if err := rows.Scan(&a.ID, &a.Item, &a.FileName, &a.MimeType, &a.FileSize, &a.CreatedDate); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (w *Workspace) GetAttachment(ctx context.Context, id int) (*jama.Attachment, error) {
	var a jama.Attachment
	err := w.db.QueryRowContext(ctx, `
		SELECT id, item, file_name, mime_type, length(content), created_date
		FROM attachments WHERE id = ?`, id).
		Scan(&a.ID, &a.Item, &a.FileName, &a.MimeType, &a.FileSize, &a.CreatedDate)
	if err == sql.ErrNoRows {
		return nil, notFound("Attachment %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (w *Workspace) DownloadAttachment(ctx context.Context, id int) ([]byte, string, error) {
	var (
		content  []byte
		mimeType string
	)
	err := w.db.QueryRowContext(ctx,
		"SELECT content, mime_type FROM attachments WHERE id = ?", id).Scan(&content, &mimeType)
	if err == sql.ErrNoRows {
		return nil, "", notFound("Attachment %d not found", id)
	}
	if err != nil {
		return nil, "", err
	}
	return content, mimeType, nil
}
