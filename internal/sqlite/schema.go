package sqlite

// Schema DDL for the catalog tables.
const (
	createLinkTargets = `CREATE TABLE link_targets (
    target_id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createLinkTargetsLabelIndex = `CREATE INDEX idx_link_targets_label ON link_targets(label);`
)

// schemaStatements run in order on a fresh database.
var schemaStatements = []string{
	createLinkTargets,
	createLinkTargetsLabelIndex,
}

// selectTargets reads targets in the column order hydrateTarget scans.
const selectTargets = "SELECT target_id, label, created_at FROM link_targets"
