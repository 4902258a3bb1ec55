package model

// Range spans the document between two positions, Start <= End.
type Range struct {
	Start Position
	End   Position
}

// NewRange builds a range, ordering its ends.
func NewRange(a, b Position) Range {
	if a.Compare(b) > 0 {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// Collapsed returns an empty range at p.
func Collapsed(p Position) Range {
	return Range{Start: p, End: p}
}

// On returns the range wrapping exactly the node n.
func On(n *Node) Range {
	return Range{Start: Before(n), End: After(n)}
}

// IsCollapsed reports whether the range is empty.
func (r Range) IsCollapsed() bool {
	return r.Start.Equal(r.End)
}

// IsValid reports whether both ends are valid and ordered.
func (r Range) IsValid() bool {
	return r.Start.IsValid() && r.End.IsValid() && r.Start.Compare(r.End) <= 0
}

// Equal reports whether both ranges share the same ends.
func (r Range) Equal(o Range) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// Contains reports whether p lies within the range, ends included.
func (r Range) Contains(p Position) bool {
	return r.Start.Compare(p) <= 0 && p.Compare(r.End) <= 0
}

// Intersects reports whether n overlaps the range by at least one offset.
func (r Range) Intersects(n *Node) bool {
	return Before(n).Compare(r.End) < 0 && After(n).Compare(r.Start) > 0
}

// Inline returns the inline nodes overlapping the range, in document order.
// A text node only partly covered is included.
func (r Range) Inline() []*Node {
	if r.IsCollapsed() || r.Start.Parent == nil {
		return nil
	}
	root := r.Start.Parent
	for root.parent != nil {
		root = root.parent
	}
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if c.IsInline() {
				if r.Intersects(c) {
					out = append(out, c)
				}
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// String renders the range as "[start]-[end]".
func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}
