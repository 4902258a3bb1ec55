// Package sqlite exposes the SQLite link-target catalog while keeping its
// implementation internal.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/internallink/internal/sqlite"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// NewCatalog creates a detached catalog. Call Attach with a directory to
// open it.
//
// Example:
//
//	catalog := sqlite.NewCatalog()
//	err := catalog.Attach(".internallink-catalog")
//	defer catalog.Detach()
func NewCatalog() types.Catalog {
	return sqlite.NewBackend()
}

// Open creates a catalog and attaches it to dir.
func Open(dir string) (types.Catalog, error) {
	c := sqlite.NewBackend()
	if err := c.Attach(dir); err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", dir, err)
	}
	return c, nil
}
