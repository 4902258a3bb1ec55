package types

import "errors"

// Catalog is the offline store of link targets that backs autocomplete and
// title lookups when no remote service is configured. Callers attach to a
// directory, access tables by name, and detach when done.
type Catalog interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)

	// Attach opens the catalog stored in dir, creating dir if needed.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(dir string) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on tables return ErrCatalogDetached.
	Detach() error
}

// Catalog lifecycle errors.
var (
	ErrCatalogDetached = errors.New("catalog is detached")
	ErrAlreadyAttached = errors.New("catalog is already attached")
	ErrTableNotFound   = errors.New("table not found")
	ErrNoCatalogDir    = errors.New("catalog directory is not configured")
)
