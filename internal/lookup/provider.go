// Package lookup resolves link titles and autocomplete candidates. Providers
// report errors; Service recovers them to empty results so a failing lookup
// never blocks editing.
package lookup

import (
	"context"
	"errors"
)

// Candidate is one autocomplete entry. ID is the link id stored on the text.
type Candidate struct {
	Label string `json:"label"`
	ID    string `json:"value"`
}

// Provider is a source of titles and candidates.
type Provider interface {
	FindCandidates(ctx context.Context, term string) ([]Candidate, error)
	ResolveTitle(ctx context.Context, id string) (string, error)
}

// Provider errors.
var (
	ErrNotConfigured    = errors.New("lookup url is not configured")
	ErrUnexpectedStatus = errors.New("unexpected lookup response status")
	ErrUnknownTarget    = errors.New("unknown link target")
)
