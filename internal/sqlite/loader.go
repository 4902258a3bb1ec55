package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"
)

// loadJSONL reads the catalog JSONL file from dir and inserts its records
// into SQLite. Loading is transactional: all succeed or the database remains
// empty. Malformed lines and records violating constraints are skipped;
// unknown fields are ignored.
func loadJSONL(db *sql.DB, dir string) error {
	records, err := readJSONL(filepath.Join(dir, targetsFile))
	if err != nil {
		return fmt.Errorf("reading %s: %w", targetsFile, err)
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO link_targets (target_id, label, created_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, raw := range records {
		rec, ok := decodeTarget(raw, now)
		if !ok {
			continue
		}
		if _, err := stmt.Exec(rec.TargetID, rec.Label, rec.CreatedAt); err != nil {
			// Duplicate ids keep the first record.
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}
