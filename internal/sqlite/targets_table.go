package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/internallink/pkg/types"
)

var _ types.Table = (*targetsTable)(nil)

// targetsTable is the accessor for link_targets.
type targetsTable struct {
	backend *Backend
}

// Get retrieves a link target by ID.
func (tt *targetsTable) Get(id string) (result any, err error) {
	start := time.Now()
	defer func() { tt.backend.record("get", start, err) }()

	if id == "" {
		return nil, types.ErrInvalidID
	}
	tt.backend.mu.RLock()
	defer tt.backend.mu.RUnlock()
	if !tt.backend.attached {
		return nil, types.ErrCatalogDetached
	}

	row := tt.backend.db.QueryRow(
		selectTargets + " WHERE target_id = ?",
		id,
	)
	target, err := hydrateTarget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting target %s: %w", id, err)
	}
	return target, nil
}

// Set persists a link target. If id is empty, generates a UUID v7 and
// creates the target. If id is provided, creates or updates it.
func (tt *targetsTable) Set(id string, data any) (result string, err error) {
	start := time.Now()
	defer func() { tt.backend.record("set", start, err) }()

	target, ok := data.(*types.LinkTarget)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := target.Validate(); err != nil {
		return "", err
	}

	tt.backend.mu.Lock()
	defer tt.backend.mu.Unlock()
	if !tt.backend.attached {
		return "", types.ErrCatalogDetached
	}

	if id == "" {
		id = generateUUID()
	}
	if target.CreatedAt.IsZero() {
		target.CreatedAt = time.Now().UTC()
	}
	target.TargetID = id

	_, err = tt.backend.db.Exec(
		`INSERT INTO link_targets (target_id, label, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(target_id) DO UPDATE SET label = excluded.label`,
		id, target.Label, target.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("persisting target: %w", err)
	}

	if err := tt.backend.persistTargets(); err != nil {
		return "", fmt.Errorf("persisting %s: %w", targetsFile, err)
	}
	return id, nil
}

// Delete removes a link target by ID.
func (tt *targetsTable) Delete(id string) (err error) {
	start := time.Now()
	defer func() { tt.backend.record("delete", start, err) }()

	if id == "" {
		return types.ErrInvalidID
	}
	tt.backend.mu.Lock()
	defer tt.backend.mu.Unlock()
	if !tt.backend.attached {
		return types.ErrCatalogDetached
	}

	res, err := tt.backend.db.Exec("DELETE FROM link_targets WHERE target_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting target: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking target deletion: %w", err)
	}
	if affected == 0 {
		return types.ErrNotFound
	}

	if err := tt.backend.persistTargets(); err != nil {
		return fmt.Errorf("persisting %s: %w", targetsFile, err)
	}
	return nil
}

// Fetch queries link targets matching the filter, ordered by label.
// Supported filter keys: label (case-insensitive substring), limit, offset.
func (tt *targetsTable) Fetch(filter types.Filter) (results []any, err error) {
	start := time.Now()
	defer func() { tt.backend.record("fetch", start, err) }()

	query := selectTargets
	var args []any

	if v, ok := filter["label"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		if s != "" {
			query += ` WHERE label LIKE ? ESCAPE '\'`
			args = append(args, "%"+escapeLike(s)+"%")
		}
	}
	query += " ORDER BY label COLLATE NOCASE, target_id"

	limit, err := intFilter(filter, "limit")
	if err != nil {
		return nil, err
	}
	offset, err := intFilter(filter, "offset")
	if err != nil {
		return nil, err
	}
	if limit > 0 || offset > 0 {
		if limit <= 0 {
			limit = -1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	tt.backend.mu.RLock()
	defer tt.backend.mu.RUnlock()
	if !tt.backend.attached {
		return nil, types.ErrCatalogDetached
	}

	rows, err := tt.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching targets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		target, err := hydrateTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating target: %w", err)
		}
		results = append(results, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating targets: %w", err)
	}

	if results == nil {
		results = []any{}
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// hydrateTarget converts a SQLite row into a *types.LinkTarget.
func hydrateTarget(row scanner) (*types.LinkTarget, error) {
	var t types.LinkTarget
	var createdAt string
	if err := row.Scan(&t.TargetID, &t.Label, &createdAt); err != nil {
		return nil, err
	}
	var err error
	t.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &t, nil
}

func intFilter(filter types.Filter, key string) (int, error) {
	v, ok := filter[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.(int)
	if !ok {
		return 0, types.ErrInvalidFilter
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
