package model

import "fmt"

// Position is a boundary between offsets inside a parent node.
type Position struct {
	Parent *Node
	Offset int
}

// At returns the position at offset inside parent.
func At(parent *Node, offset int) Position {
	return Position{Parent: parent, Offset: offset}
}

// Before returns the position immediately before n.
func Before(n *Node) Position {
	return Position{Parent: n.parent, Offset: n.StartOffset()}
}

// After returns the position immediately after n.
func After(n *Node) Position {
	return Position{Parent: n.parent, Offset: n.EndOffset()}
}

// IsZero reports whether the position has no parent.
func (p Position) IsZero() bool { return p.Parent == nil }

// IsValid reports whether the offset lies within the parent's bounds.
func (p Position) IsValid() bool {
	return p.Parent != nil && p.Offset >= 0 && p.Offset <= p.Parent.MaxOffset()
}

// TextNode returns the text node the position lies strictly inside, or nil
// when the position sits on a node boundary.
func (p Position) TextNode() *Node {
	if p.Parent == nil {
		return nil
	}
	idx, inside := p.Parent.locate(p.Offset)
	if !inside {
		return nil
	}
	return p.Parent.children[idx]
}

// NodeBefore returns the node ending at the position. It is nil when the
// position is inside a text node or at the start of its parent.
func (p Position) NodeBefore() *Node {
	if p.Parent == nil {
		return nil
	}
	idx, inside := p.Parent.locate(p.Offset)
	if inside || idx == 0 {
		return nil
	}
	return p.Parent.children[idx-1]
}

// NodeAfter returns the node starting at the position. It is nil when the
// position is inside a text node or at the end of its parent.
func (p Position) NodeAfter() *Node {
	if p.Parent == nil {
		return nil
	}
	idx, inside := p.Parent.locate(p.Offset)
	if inside || idx >= len(p.Parent.children) {
		return nil
	}
	return p.Parent.children[idx]
}

// Block returns the nearest block ancestor of the position, or nil when the
// position sits directly in the root.
func (p Position) Block() *Node {
	for n := p.Parent; n != nil; n = n.parent {
		if n.kind == KindBlock {
			return n
		}
	}
	return nil
}

// Path returns the offsets from the root down to the position.
func (p Position) Path() []int {
	var rev []int
	rev = append(rev, p.Offset)
	for n := p.Parent; n != nil && n.parent != nil; n = n.parent {
		rev = append(rev, n.StartOffset())
	}
	path := make([]int, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = v
	}
	return path
}

// Compare orders two positions in document order: -1, 0 or +1.
func (p Position) Compare(q Position) int {
	a, b := p.Path(), q.Path()
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Equal reports whether both positions denote the same boundary.
func (p Position) Equal(q Position) bool {
	return p.Parent == q.Parent && p.Offset == q.Offset
}

// String renders the position as its path, e.g. "[0 3]".
func (p Position) String() string {
	if p.Parent == nil {
		return "[]"
	}
	return fmt.Sprint(p.Path())
}

// positionFromPath resolves a path against root. It returns false when the
// path no longer fits the tree.
func positionFromPath(root *Node, path []int) (Position, bool) {
	if len(path) == 0 {
		return Position{}, false
	}
	parent := root
	for _, off := range path[:len(path)-1] {
		idx, inside := parent.locate(off)
		if inside || idx >= len(parent.children) {
			return Position{}, false
		}
		parent = parent.children[idx]
	}
	p := Position{Parent: parent, Offset: path[len(path)-1]}
	return p, p.IsValid()
}
