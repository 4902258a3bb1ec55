// Package sqlite implements the SQLite storage backend for the link-target
// catalog. A JSONL file is the source of truth; SQLite is the query engine
// rebuilt from it on every Attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

const (
	dbFile      = "catalog.db"
	targetsFile = "link_targets.jsonl"
)

var _ types.Catalog = (*Backend)(nil)

// Backend implements the Catalog interface using SQLite as the query engine
// and a JSONL file as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	dir      string
	db       *sql.DB
	tables   map[string]types.Table

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for catalog operations.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// WithMetrics records catalog operations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Backend) { b.metrics = m }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a directory to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables: make(map[string]types.Table),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns a Table interface for the specified table name.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrCatalogDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCatalogDetached
	}

	table, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return table, nil
}

// Attach opens the catalog in dir. Creates dir if it does not exist,
// rebuilds the SQLite schema and loads the JSONL file into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(dir string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if dir == "" {
		return types.ErrNoCatalogDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating catalog dir: %w", err)
	}

	// The database is derived state; start from a fresh schema every time.
	dbPath := filepath.Join(dir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONLFile(filepath.Join(dir, targetsFile)); err != nil {
		db.Close()
		return err
	}
	if err := loadJSONL(db, dir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.dir = dir
	b.attached = true
	b.tables[types.TargetsTable] = &targetsTable{backend: b}

	b.log.Debug().Str("dir", dir).Msg("catalog attached")
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrCatalogDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]types.Table)
	b.log.Debug().Str("dir", b.dir).Msg("catalog detached")
	return nil
}

// Dir returns the attached catalog directory.
func (b *Backend) Dir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dir
}

// record reports a finished operation to metrics and the debug log.
func (b *Backend) record(op string, start time.Time, err error) {
	d := time.Since(start)
	b.metrics.RecordCatalogOperation(op, metrics.Status(err), d)
	if err != nil {
		b.log.Debug().Err(err).Str("operation", op).Dur("duration_ms", d).Msg("catalog operation failed")
	}
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
