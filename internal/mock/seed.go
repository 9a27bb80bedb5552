package mock

// Well-known item type keys in the seeded workspace. Test management
// lookups resolve type IDs through these.
const (
	typeKeyFolder      = "FLD"
	typeKeyRequirement = "REQ"
	typeKeyTestCase    = "TC"
	typeKeyTestPlan    = "TSTPL"
	typeKeyTestCycle   = "TSTCY"
	typeKeyTestRun     = "TSTRN"
)

// seedIfEmpty populates a fresh database with a small but complete demo
// workspace: two projects, a requirement tree with history and a locked
// item, test coverage, tags, a baseline, and attachments. An already
// populated database is left untouched.
func (w *Workspace) seedIfEmpty() (bool, error) {
	var n int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	stmts := []string{
		`INSERT INTO projects (id, project_key, name, description) VALUES
			(1, 'OCP', 'Orbital Comms Platform', 'Satellite communication payload and ground link requirements'),
			(2, 'GST', 'Ground Station Tooling', 'Operator-facing tooling for the ground segment')`,

		`INSERT INTO picklists (id, name, description) VALUES
			(1, 'Priority', 'Requirement priority'),
			(2, 'Status', 'Workflow status'),
			(3, 'Execution Status', 'Test run outcome')`,

		`INSERT INTO picklist_options (id, picklist, name, value, active, is_default) VALUES
			(1,  1, 'High',      'high',      1, 0),
			(2,  1, 'Medium',    'medium',    1, 1),
			(3,  1, 'Low',       'low',       1, 0),
			(4,  2, 'Draft',     'draft',     1, 1),
			(5,  2, 'In Review', 'in_review', 1, 0),
			(6,  2, 'Approved',  'approved',  1, 0),
			(7,  2, 'Rejected',  'rejected',  0, 0),
			(8,  3, 'Not Run',   'not_run',   1, 1),
			(9,  3, 'Passed',    'passed',    1, 0),
			(10, 3, 'Failed',    'failed',    1, 0),
			(11, 3, 'Blocked',   'blocked',   1, 0)`,

		`INSERT INTO item_types (id, name, display, category, type_key, fields) VALUES
			(1, 'Folder', 'Folder', 'CORE', 'FLD',
				'[{"id":1,"name":"name","label":"Name","fieldType":"STRING","required":true},
				  {"id":2,"name":"description","label":"Description","fieldType":"RICHTEXT"}]'),
			(2, 'Requirement', 'Requirement', 'REQUIREMENT', 'REQ',
				'[{"id":3,"name":"name","label":"Name","fieldType":"STRING","required":true},
				  {"id":4,"name":"description","label":"Description","fieldType":"RICHTEXT"},
				  {"id":5,"name":"priority","label":"Priority","fieldType":"PICKLIST","pickList":1},
				  {"id":6,"name":"status","label":"Status","fieldType":"PICKLIST","pickList":2}]'),
			(3, 'Test Case', 'Test Case', 'TEST_CASE', 'TC',
				'[{"id":7,"name":"name","label":"Name","fieldType":"STRING","required":true},
				  {"id":8,"name":"description","label":"Description","fieldType":"RICHTEXT"},
				  {"id":9,"name":"steps","label":"Steps","fieldType":"RICHTEXT"}]'),
			(4, 'Test Plan', 'Test Plan', 'TEST_PLAN', 'TSTPL',
				'[{"id":10,"name":"name","label":"Name","fieldType":"STRING","required":true},
				  {"id":11,"name":"description","label":"Description","fieldType":"RICHTEXT"}]'),
			(5, 'Test Cycle', 'Test Cycle', 'TEST_CYCLE', 'TSTCY',
				'[{"id":12,"name":"name","label":"Name","fieldType":"STRING","required":true},
				  {"id":13,"name":"start_date","label":"Start Date","fieldType":"DATE"},
				  {"id":14,"name":"end_date","label":"End Date","fieldType":"DATE"}]'),
			(6, 'Test Run', 'Test Run', 'TEST_RUN', 'TSTRN',
				'[{"id":15,"name":"name","label":"Name","fieldType":"STRING","required":true},
				  {"id":16,"name":"execution_status","label":"Execution Status","fieldType":"PICKLIST","pickList":3}]')`,

		`INSERT INTO relationship_types (id, name, forward_name, reverse_name, is_default) VALUES
			(1, 'Related to',   'related to',   'related to', 1),
			(2, 'Derived from', 'derived from', 'derives',    0),
			(3, 'Verified by',  'verified by',  'verifies',   0)`,

		`INSERT INTO items (id, document_key, global_id, project, item_type,
			parent_item, parent_project, sort_order, fields, current_version, locked, locked_by) VALUES
			(1, 'OCP-FLD-1', 'GID-1', 1, 1, NULL, 1, 1,
				'{"name":"Requirements","description":"System requirements for the comms payload"}', 1, 0, NULL),
			(2, 'OCP-REQ-1', 'GID-2', 1, 2, 1, NULL, 1,
				'{"name":"Telemetry downlink latency","description":"End-to-end telemetry latency shall not exceed 400 ms at p99.","priority":1,"status":6}', 3, 0, NULL),
			(3, 'OCP-REQ-2', 'GID-3', 1, 2, 1, NULL, 2,
				'{"name":"Uplink command authentication","description":"All uplink commands shall carry a valid Ed25519 signature.","priority":1,"status":4}', 1, 1, 42),
			(4, 'OCP-REQ-3', 'GID-4', 1, 2, 1, NULL, 3,
				'{"name":"Ground station failover","description":"Loss of the primary ground station shall trigger failover within 30 s.","priority":2,"status":5}', 1, 0, NULL),
			(5, 'OCP-FLD-2', 'GID-5', 1, 1, NULL, 1, 2,
				'{"name":"Test Cases","description":"Verification test cases"}', 1, 0, NULL),
			(6, 'OCP-TC-1', 'GID-6', 1, 3, 5, NULL, 1,
				'{"name":"Verify downlink latency under load","description":"Measure p99 latency with saturated downlink.","steps":"1. Saturate downlink. 2. Sample 10k frames. 3. Assert p99 < 400 ms."}', 1, 0, NULL),
			(7, 'OCP-TC-2', 'GID-7', 1, 3, 5, NULL, 2,
				'{"name":"Reject unsigned uplink commands","description":"Send a command without a signature and expect rejection.","steps":"1. Send unsigned NOOP. 2. Expect NACK with AUTH_FAIL."}', 1, 0, NULL),
			(8, 'OCP-TSTPL-1', 'GID-8', 1, 4, NULL, 1, 3,
				'{"name":"Release 1.0 verification","description":"Verification plan for the first flight release"}', 1, 0, NULL),
			(9, 'OCP-TSTCY-1', 'GID-9', 1, 5, 8, NULL, 1,
				'{"name":"Cycle 1 - functional","start_date":"2025-05-05","end_date":"2025-05-16"}', 1, 0, NULL),
			(10, 'OCP-TSTRN-1', 'GID-10', 1, 6, 9, NULL, 1,
				'{"name":"Run: downlink latency","execution_status":9}', 1, 0, NULL),
			(11, 'OCP-TSTRN-2', 'GID-11', 1, 6, 9, NULL, 2,
				'{"name":"Run: uplink auth","execution_status":8}', 1, 0, NULL),
			(12, 'GST-REQ-1', 'GID-12', 2, 2, NULL, 2, 1,
				'{"name":"Operator console dark mode","description":"The console shall offer a dark color scheme.","priority":3,"status":4}', 1, 0, NULL)`,

		`INSERT INTO item_versions (item, version_number, fields, comment)
			SELECT id, 1, fields, 'Created' FROM items`,

		`UPDATE item_versions SET fields =
			'{"name":"Telemetry latency","description":"Telemetry latency shall be low.","priority":2,"status":4}'
			WHERE item = 2 AND version_number = 1`,

		`INSERT INTO item_versions (item, version_number, fields, comment) VALUES
			(2, 2, '{"name":"Telemetry downlink latency","description":"End-to-end telemetry latency shall not exceed 400 ms.","priority":1,"status":5}', 'Updated'),
			(2, 3, '{"name":"Telemetry downlink latency","description":"End-to-end telemetry latency shall not exceed 400 ms at p99.","priority":1,"status":6}', 'Updated')`,

		`INSERT INTO relationships (id, from_item, to_item, relationship_type) VALUES
			(1, 2, 6, 3),
			(2, 3, 7, 3),
			(3, 4, 2, 2)`,

		`INSERT INTO tags (id, name, project) VALUES
			(1, 'safety-critical', 1),
			(2, 'needs-review', 1),
			(3, 'ux', 2)`,

		`INSERT INTO item_tags (item, tag) VALUES (2, 1), (3, 1), (4, 2), (12, 3)`,

		`INSERT INTO baselines (id, name, description, project) VALUES
			(1, 'R1.0 requirements freeze', 'Requirement set frozen for the 1.0 review board', 1)`,

		`INSERT INTO baseline_items (baseline, item) VALUES (1, 2), (1, 3), (1, 4)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return false, err
		}
	}

	attachments := []struct {
		item     int
		fileName string
		mimeType string
		content  string
	}{
		{2, "downlink_latency_budget.csv", "text/csv",
			"metric,budget_ms,measured_ms\ndownlink_latency_p50,250,181\ndownlink_latency_p99,400,372\n"},
		{3, "uplink_auth_notes.md", "text/markdown",
			"# Uplink Authentication Notes\n\nCommands are signed with Ed25519. Key rotation happens per pass.\n"},
	}
	for _, a := range attachments {
		if _, err := tx.Exec(
			"INSERT INTO attachments (item, file_name, mime_type, content) VALUES (?, ?, ?, ?)",
			a.item, a.fileName, a.mimeType, []byte(a.content)); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
