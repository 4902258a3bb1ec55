package model

// TextName is the schema name under which text attribute rules live.
const TextName = "$text"

// Formatting attributes understood by the default schema.
const (
	AttrBold   = "bold"
	AttrItalic = "italic"
)

// Schema answers which attribute keys each inline node may carry. Blocks
// and the root never carry inline attributes.
type Schema struct {
	allowed map[string]map[string]bool
	twoStep map[string]bool
}

// NewSchema returns a schema that allows nothing.
func NewSchema() *Schema {
	return &Schema{
		allowed: make(map[string]map[string]bool),
		twoStep: make(map[string]bool),
	}
}

// DefaultSchema allows bold and italic on text and nothing on objects.
func DefaultSchema() *Schema {
	s := NewSchema()
	s.AllowAttribute(TextName, AttrBold, AttrItalic)
	return s
}

// AllowAttribute permits keys on nodes named nodeName (TextName for text).
func (s *Schema) AllowAttribute(nodeName string, keys ...string) {
	set, ok := s.allowed[nodeName]
	if !ok {
		set = make(map[string]bool)
		s.allowed[nodeName] = set
	}
	for _, k := range keys {
		set[k] = true
	}
}

// EnableTwoStepCaret marks key as a two-step caret attribute: at a run
// boundary the caret's gravity decides which side's value it inherits.
func (s *Schema) EnableTwoStepCaret(key string) {
	s.twoStep[key] = true
}

// HasTwoStepCaret reports whether key was registered for two-step caret.
func (s *Schema) HasTwoStepCaret(key string) bool {
	return s.twoStep[key]
}

// IsAttributeAllowed reports whether n may carry key.
func (s *Schema) IsAttributeAllowed(n *Node, key string) bool {
	if !n.IsInline() {
		return false
	}
	return s.allowed[n.name][key]
}

// ValidRanges splits ranges into maximal sub-ranges whose inline nodes all
// allow key. Disallowed nodes are skipped, never reported.
func (s *Schema) ValidRanges(ranges []Range, key string) []Range {
	var out []Range
	for _, r := range ranges {
		var cur *Range
		for _, n := range r.Inline() {
			if !s.IsAttributeAllowed(n, key) {
				cur = flush(&out, cur)
				continue
			}
			start, end := Before(n), After(n)
			if start.Compare(r.Start) < 0 {
				start = r.Start
			}
			if end.Compare(r.End) > 0 {
				end = r.End
			}
			if cur != nil && cur.End.Equal(start) {
				cur.End = end
				continue
			}
			cur = flush(&out, cur)
			cur = &Range{Start: start, End: end}
		}
		flush(&out, cur)
	}
	return out
}

func flush(out *[]Range, cur *Range) *Range {
	if cur != nil {
		*out = append(*out, *cur)
	}
	return nil
}

// CheckAttributeInSelection reports whether key may be applied at sel. A
// collapsed selection needs text to be allowed the key at the caret; a
// non-collapsed one needs at least one selected inline node to allow it.
func (s *Schema) CheckAttributeInSelection(sel Selection, key string) bool {
	if len(sel.Ranges) == 0 {
		return false
	}
	if sel.IsCollapsed() {
		p := sel.First()
		return p.Parent != nil && p.Parent.kind == KindBlock && s.allowed[TextName][key]
	}
	for _, r := range sel.Ranges {
		for _, n := range r.Inline() {
			if s.IsAttributeAllowed(n, key) {
				return true
			}
		}
	}
	return false
}
