package model

// Selection is a snapshot of the document selection: its ranges in order
// and the attributes the caret or first selected text carries.
type Selection struct {
	Ranges []Range
	Attrs  Attributes
}

// IsCollapsed reports whether the selection is a single caret.
func (s Selection) IsCollapsed() bool {
	return len(s.Ranges) == 1 && s.Ranges[0].IsCollapsed()
}

// First returns the start of the first range.
func (s Selection) First() Position {
	if len(s.Ranges) == 0 {
		return Position{}
	}
	return s.Ranges[0].Start
}

// Attr returns a selection attribute and whether it is set.
func (s Selection) Attr(key string) (string, bool) {
	v, ok := s.Attrs[key]
	return v, ok
}

// HasAttr reports whether the selection carries key.
func (s Selection) HasAttr(key string) bool {
	_, ok := s.Attrs[key]
	return ok
}

// selectionAttrs derives the attributes of a selection. A non-collapsed
// selection takes them from the first selected text node. A caret takes them
// from the text node it is inside, else from the text before it (after it at
// a block start). Two-step caret keys follow the overridden gravity.
func selectionAttrs(ranges []Range, schema *Schema, gravityOverridden bool) Attributes {
	if len(ranges) == 0 {
		return Attributes{}
	}
	first := ranges[0]
	if !first.IsCollapsed() {
		for _, n := range first.Inline() {
			if n.kind == KindText {
				return n.attrs.Clone()
			}
		}
	}

	p := first.Start
	if t := p.TextNode(); t != nil {
		return t.attrs.Clone()
	}
	before, after := textOrNil(p.NodeBefore()), textOrNil(p.NodeAfter())

	var attrs Attributes
	switch {
	case before != nil:
		attrs = before.attrs.Clone()
	case after != nil:
		attrs = after.attrs.Clone()
	default:
		return Attributes{}
	}
	if !gravityOverridden || before == nil {
		return attrs
	}
	for key := range schema.twoStep {
		if v, ok := afterAttr(after, key); ok {
			attrs[key] = v
		} else {
			delete(attrs, key)
		}
	}
	return attrs
}

func textOrNil(n *Node) *Node {
	if n == nil || n.kind != KindText {
		return nil
	}
	return n
}

func afterAttr(n *Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	return n.Attr(key)
}
