package types

import (
	"strings"
	"time"
)

// LinkTarget is an entry of the link-target catalog: something an internal
// link can point at.
type LinkTarget struct {
	TargetID  string    `json:"target_id"` // Stored as the link id on annotated text.
	Label     string    `json:"label"`     // Human-readable title (required, non-empty).
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the target before it is stored.
func (t *LinkTarget) Validate() error {
	if strings.TrimSpace(t.Label) == "" {
		return ErrInvalidLabel
	}
	return nil
}
