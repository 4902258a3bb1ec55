package sqlite

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/internallink/pkg/types"
)

// targetRecord is the JSONL form of a link target. Timestamps stay strings
// so a load and persist cycle is byte-stable.
type targetRecord struct {
	TargetID  string `json:"target_id"`
	Label     string `json:"label"`
	CreatedAt string `json:"created_at"`
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(what string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", what, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// initJSONLFile creates an empty JSONL file when none exists yet.
func initJSONLFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// decodeTarget parses one JSONL record. Records without an id or label are
// rejected; a missing timestamp is filled with now. Unknown fields are
// ignored.
func decodeTarget(raw json.RawMessage, now time.Time) (targetRecord, bool) {
	var rec targetRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, false
	}
	if rec.TargetID == "" || rec.Label == "" {
		return rec, false
	}
	if _, err := time.Parse(time.RFC3339, rec.CreatedAt); err != nil {
		rec.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	return rec, true
}

// snapshotRecords returns every target in catalog order as JSONL records.
// The caller must hold b.mu.
func (b *Backend) snapshotRecords() ([]json.RawMessage, error) {
	rows, err := b.db.Query(selectTargets + " ORDER BY created_at, target_id")
	if err != nil {
		return nil, fmt.Errorf("querying targets: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec targetRecord
		if err := rows.Scan(&rec.TargetID, &rec.Label, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning target: %w", err)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding target %s: %w", rec.TargetID, err)
		}
		records = append(records, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating targets: %w", err)
	}
	return records, nil
}

// persistTargets rewrites the catalog JSONL file from SQLite.
// The caller must hold b.mu.
func (b *Backend) persistTargets() error {
	records, err := b.snapshotRecords()
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dir, targetsFile), records)
}

// Export writes every target to path as JSONL and returns the count.
func (b *Backend) Export(path string) (n int, err error) {
	start := time.Now()
	defer func() { b.record("export", start, err) }()
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrCatalogDetached
	}
	records, err := b.snapshotRecords()
	if err != nil {
		return 0, err
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Import upserts every valid record of the JSONL file at path and returns
// how many were stored. Malformed records are skipped.
func (b *Backend) Import(path string) (n int, err error) {
	start := time.Now()
	defer func() { b.record("import", start, err) }()
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return 0, types.ErrCatalogDetached
	}
	raws, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, raw := range raws {
		rec, ok := decodeTarget(raw, now)
		if !ok {
			continue
		}
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO link_targets (target_id, label, created_at) VALUES (?, ?, ?)",
			rec.TargetID, rec.Label, rec.CreatedAt,
		); err != nil {
			return 0, fmt.Errorf("importing target %s: %w", rec.TargetID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	if err := b.persistTargets(); err != nil {
		return 0, fmt.Errorf("persisting %s: %w", targetsFile, err)
	}
	return n, nil
}
