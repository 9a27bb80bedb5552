// Package mock serves a seeded local Jama workspace from SQLite, so the
// server can run demos, integration tests, and offline development
// without a live instance. It implements the same API surface as the
// REST client, including versioning, locking, and soft deletes.
package mock

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Workspace is the SQLite-backed mock instance.
type Workspace struct {
	db  *sql.DB
	log *zap.Logger
}

var _ jama.API = (*Workspace)(nil)

// Open creates or reopens the workspace database at path. A fresh
// database is seeded with a small demo workspace.
func Open(path string, log *zap.Logger) (*Workspace, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mock: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("mock: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("mock: pragma %q: %w", p, err)
		}
	}

	w := &Workspace{db: db, log: log}
	if err := w.migrate(); err != nil {
		return nil, fmt.Errorf("mock: migration: %w", err)
	}

	seeded, err := w.seedIfEmpty()
	if err != nil {
		return nil, fmt.Errorf("mock: seed: %w", err)
	}
	if seeded {
		log.Info("seeded mock jama workspace", zap.String("path", path))
	}
	return w, nil
}

// Close closes the underlying database connection.
func (w *Workspace) Close() error {
	return w.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (w *Workspace) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			project_key   TEXT    NOT NULL UNIQUE,
			name          TEXT    NOT NULL,
			description   TEXT    NOT NULL DEFAULT '',
			is_folder     INTEGER NOT NULL DEFAULT 0,
			created_date  TEXT    NOT NULL DEFAULT (datetime('now')),
			modified_date TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS item_types (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			name     TEXT NOT NULL,
			display  TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			type_key TEXT NOT NULL DEFAULT '',
			fields   TEXT NOT NULL DEFAULT '[]'
		);

		CREATE TABLE IF NOT EXISTS items (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			document_key    TEXT    NOT NULL,
			global_id       TEXT    NOT NULL DEFAULT '',
			project         INTEGER NOT NULL,
			item_type       INTEGER NOT NULL,
			child_item_type INTEGER,
			parent_item     INTEGER,
			parent_project  INTEGER,
			sort_order      INTEGER NOT NULL DEFAULT 0,
			fields          TEXT    NOT NULL DEFAULT '{}',
			current_version INTEGER NOT NULL DEFAULT 1,
			locked          INTEGER NOT NULL DEFAULT 0,
			locked_by       INTEGER,
			created_date    TEXT    NOT NULL DEFAULT (datetime('now')),
			modified_date   TEXT    NOT NULL DEFAULT (datetime('now')),
			deleted_at      TEXT,
			FOREIGN KEY (project)   REFERENCES projects(id),
			FOREIGN KEY (item_type) REFERENCES item_types(id)
		);

		CREATE INDEX IF NOT EXISTS idx_items_project ON items(project);
		CREATE INDEX IF NOT EXISTS idx_items_type    ON items(item_type);
		CREATE INDEX IF NOT EXISTS idx_items_parent  ON items(parent_item);
		CREATE INDEX IF NOT EXISTS idx_items_deleted ON items(deleted_at);
		CREATE INDEX IF NOT EXISTS idx_items_key     ON items(document_key);

		CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
			name,
			description,
			document_key
		);

		CREATE TABLE IF NOT EXISTS item_versions (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			item           INTEGER NOT NULL,
			version_number INTEGER NOT NULL,
			fields         TEXT    NOT NULL,
			comment        TEXT    NOT NULL DEFAULT '',
			created_date   TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (item) REFERENCES items(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_versions_item ON item_versions(item, version_number DESC);

		CREATE TABLE IF NOT EXISTS relationship_types (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			name         TEXT    NOT NULL,
			forward_name TEXT    NOT NULL DEFAULT '',
			reverse_name TEXT    NOT NULL DEFAULT '',
			is_default   INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS relationships (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			from_item         INTEGER NOT NULL,
			to_item           INTEGER NOT NULL,
			relationship_type INTEGER NOT NULL,
			suspect           INTEGER NOT NULL DEFAULT 0,
			created_date      TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (from_item) REFERENCES items(id) ON DELETE CASCADE,
			FOREIGN KEY (to_item)   REFERENCES items(id) ON DELETE CASCADE
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_rel_unique ON relationships(from_item, to_item, relationship_type);
		CREATE INDEX IF NOT EXISTS idx_rel_from ON relationships(from_item);
		CREATE INDEX IF NOT EXISTS idx_rel_to   ON relationships(to_item);

		CREATE TABLE IF NOT EXISTS picklists (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS picklist_options (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			picklist   INTEGER NOT NULL,
			name       TEXT    NOT NULL,
			value      TEXT    NOT NULL DEFAULT '',
			active     INTEGER NOT NULL DEFAULT 1,
			is_default INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (picklist) REFERENCES picklists(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS tags (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			name    TEXT    NOT NULL,
			project INTEGER NOT NULL,
			FOREIGN KEY (project) REFERENCES projects(id)
		);

		CREATE TABLE IF NOT EXISTS item_tags (
			item INTEGER NOT NULL,
			tag  INTEGER NOT NULL,
			PRIMARY KEY (item, tag),
			FOREIGN KEY (item) REFERENCES items(id) ON DELETE CASCADE,
			FOREIGN KEY (tag)  REFERENCES tags(id)  ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS baselines (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			name         TEXT    NOT NULL,
			description  TEXT    NOT NULL DEFAULT '',
			project      INTEGER NOT NULL,
			created_date TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (project) REFERENCES projects(id)
		);

		CREATE TABLE IF NOT EXISTS baseline_items (
			baseline INTEGER NOT NULL,
			item     INTEGER NOT NULL,
			PRIMARY KEY (baseline, item),
			FOREIGN KEY (baseline) REFERENCES baselines(id) ON DELETE CASCADE,
			FOREIGN KEY (item)     REFERENCES items(id)     ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS attachments (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			item         INTEGER NOT NULL,
			file_name    TEXT    NOT NULL,
			mime_type    TEXT    NOT NULL DEFAULT 'application/octet-stream',
			content      BLOB    NOT NULL,
			created_date TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (item) REFERENCES items(id) ON DELETE CASCADE
		);
	`
	if _, err := w.db.Exec(schema); err != nil {
		return err
	}

	// FTS triggers keep the contains-search index in sync with the item
	// name/description fields (idempotent).
	var name string
	err := w.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='items_fts_insert'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER items_fts_insert AFTER INSERT ON items BEGIN
				INSERT INTO items_fts(rowid, name, description, document_key)
				VALUES (new.id,
				        ifnull(json_extract(new.fields, '$.name'), ''),
				        ifnull(json_extract(new.fields, '$.description'), ''),
				        new.document_key);
			END;

			CREATE TRIGGER items_fts_delete AFTER DELETE ON items BEGIN
				DELETE FROM items_fts WHERE rowid = old.id;
			END;

			CREATE TRIGGER items_fts_update AFTER UPDATE OF fields, document_key ON items BEGIN
				DELETE FROM items_fts WHERE rowid = old.id;
				INSERT INTO items_fts(rowid, name, description, document_key)
				VALUES (new.id,
				        ifnull(json_extract(new.fields, '$.name'), ''),
				        ifnull(json_extract(new.fields, '$.description'), ''),
				        new.document_key);
			END;
		`
		if _, err := w.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Row helpers ─────────────────────────────────────────────────────────────

const itemColumns = `id, document_key, global_id, project, item_type, child_item_type,
	parent_item, parent_project, sort_order, fields, current_version,
	locked, locked_by, created_date, modified_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*jama.Item, error) {
	var (
		it            jama.Item
		childItemType sql.NullInt64
		parentItem    sql.NullInt64
		parentProject sql.NullInt64
		sortOrder     int
		fieldsJSON    string
		locked        int
		lockedBy      sql.NullInt64
	)
	if err := row.Scan(
		&it.ID, &it.DocumentKey, &it.GlobalID, &it.Project, &it.ItemType, &childItemType,
		&parentItem, &parentProject, &sortOrder, &fieldsJSON, &it.CurrentVersion,
		&locked, &lockedBy, &it.CreatedDate, &it.ModifiedDate,
	); err != nil {
		return nil, err
	}
	it.ChildItemType = int(childItemType.Int64)
	if parentItem.Valid || parentProject.Valid {
		it.Location = &jama.Location{
			Parent: &jama.ParentRef{
				Item:    int(parentItem.Int64),
				Project: int(parentProject.Int64),
			},
			SortOrder: sortOrder,
		}
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &it.Fields); err != nil {
		return nil, fmt.Errorf("item %d fields: %w", it.ID, err)
	}
	it.Lock = &jama.Lock{Locked: locked != 0, LockedBy: int(lockedBy.Int64)}
	it.Locked = locked != 0
	return &it, nil
}

func (w *Workspace) queryItems(ctx context.Context, query string, args ...any) ([]jama.Item, error) {
	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []jama.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ─── Error and FTS helpers ───────────────────────────────────────────────────

func notFound(format string, args ...any) *jama.Error {
	return &jama.Error{Code: jama.CodeNotFound, StatusCode: 404, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *jama.Error {
	return &jama.Error{Code: jama.CodeValidation, StatusCode: 400, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *jama.Error {
	return &jama.Error{Code: jama.CodeConflict, StatusCode: 409, Message: fmt.Sprintf(format, args...)}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var ftsStripPattern = regexp.MustCompile(`[^\p{L}\p{N} ]+`)

// sanitizeFTS turns free text into a safe FTS5 prefix query. Operators
// and quotes are stripped, each remaining term is quoted and suffixed
// with * for prefix matching.
func sanitizeFTS(query string) string {
	cleaned := ftsStripPattern.ReplaceAllString(query, " ")
	terms := strings.Fields(cleaned)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + term + `"*`
	}
	return strings.Join(quoted, " ")
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
