package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/internallink/pkg/types"
)

// DefaultCandidateLimit caps catalog autocomplete results.
const DefaultCandidateLimit = 20

var _ Provider = (*CatalogProvider)(nil)

// CatalogProvider serves lookups from an attached link-target catalog.
type CatalogProvider struct {
	catalog types.Catalog
	limit   int
}

// NewCatalogProvider wraps an attached catalog. A limit <= 0 selects
// DefaultCandidateLimit.
func NewCatalogProvider(catalog types.Catalog, limit int) *CatalogProvider {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	return &CatalogProvider{catalog: catalog, limit: limit}
}

// FindCandidates returns targets whose label contains term.
func (p *CatalogProvider) FindCandidates(_ context.Context, term string) ([]Candidate, error) {
	tbl, err := p.catalog.GetTable(types.TargetsTable)
	if err != nil {
		return nil, err
	}
	entities, err := tbl.Fetch(types.Filter{"label": term, "limit": p.limit})
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	candidates := make([]Candidate, 0, len(entities))
	for _, e := range entities {
		target, ok := e.(*types.LinkTarget)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Label: target.Label, ID: target.TargetID})
	}
	return candidates, nil
}

// ResolveTitle returns the label of the target with id.
func (p *CatalogProvider) ResolveTitle(_ context.Context, id string) (string, error) {
	tbl, err := p.catalog.GetTable(types.TargetsTable)
	if err != nil {
		return "", err
	}
	e, err := tbl.Get(id)
	if errors.Is(err, types.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	if err != nil {
		return "", fmt.Errorf("get target: %w", err)
	}
	target, ok := e.(*types.LinkTarget)
	if !ok {
		return "", types.ErrInvalidData
	}
	return target.Label, nil
}
