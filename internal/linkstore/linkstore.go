// Package linkstore reads and writes the internal link attribute over
// document ranges. Schema validity is decided by the document engine.
package linkstore

import (
	"fmt"

	"github.com/mesh-intelligence/internallink/internal/linkrange"
	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// Store is bound to one document. It holds no document state of its own.
type Store struct {
	doc *model.Document
}

// New returns a Store for doc.
func New(doc *model.Document) *Store {
	return &Store{doc: doc}
}

// Document returns the underlying document.
func (s *Store) Document() *model.Document { return s.doc }

// Value returns the link id carried by the current selection.
func (s *Store) Value() (string, bool) {
	return ValueOf(s.doc.Selection())
}

// ValueOf returns the link id carried by sel. An empty attribute counts as
// absent.
func ValueOf(sel model.Selection) (string, bool) {
	v, ok := sel.Attr(types.LinkAttribute)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Allowed reports whether the schema permits the link attribute at sel.
func (s *Store) Allowed(sel model.Selection) bool {
	return s.doc.Schema().CheckAttributeInSelection(sel, types.LinkAttribute)
}

// ValidRanges splits ranges into the maximal sub-ranges that may carry the
// link attribute. Disallowed nodes are skipped.
func (s *Store) ValidRanges(ranges []model.Range) []model.Range {
	return s.doc.Schema().ValidRanges(ranges, types.LinkAttribute)
}

// RunAt resolves the link run with value around pos. ok is false when no
// node next to pos carries value.
func (s *Store) RunAt(pos model.Position, value string) (model.Range, bool) {
	r := linkrange.Find(pos, value)
	return r, !r.IsCollapsed()
}

// Change runs fn as one document transaction.
func (s *Store) Change(fn func(w *model.Writer) error) error {
	return s.doc.Change(fn)
}

// Set tags every range with id. It must run inside Change.
func (s *Store) Set(w *model.Writer, id string, ranges ...model.Range) error {
	if id == "" {
		return types.ErrEmptyLinkID
	}
	for _, r := range ranges {
		if err := w.SetAttribute(types.LinkAttribute, id, r); err != nil {
			return fmt.Errorf("setting link %q on %s: %w", id, r, err)
		}
	}
	return nil
}

// Clear removes the link attribute from every range. It must run inside
// Change.
func (s *Store) Clear(w *model.Writer, ranges ...model.Range) error {
	for _, r := range ranges {
		if err := w.RemoveAttribute(types.LinkAttribute, r); err != nil {
			return fmt.Errorf("clearing link on %s: %w", r, err)
		}
	}
	return nil
}

// Extend registers the link attribute on text in schema and gives it a
// two-step caret.
func Extend(schema *model.Schema) *model.Schema {
	schema.AllowAttribute(model.TextName, types.LinkAttribute)
	schema.EnableTwoStepCaret(types.LinkAttribute)
	return schema
}
