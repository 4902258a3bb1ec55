package model

import (
	"maps"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Kind tags the variant a Node represents.
type Kind int

const (
	// KindRoot is the single top-level container of a Document.
	KindRoot Kind = iota

	// KindBlock is a container of inline nodes, e.g. a paragraph.
	KindBlock

	// KindText is an inline run of characters sharing one attribute set.
	KindText

	// KindObject is an inline non-text element, e.g. an image.
	KindObject
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindBlock:
		return "block"
	case KindText:
		return "text"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Attributes maps an attribute key to its value.
type Attributes map[string]string

// Clone returns an independent copy. A nil receiver yields an empty map.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	maps.Copy(out, a)
	return out
}

// Equal reports whether both maps hold the same keys and values.
func (a Attributes) Equal(b Attributes) bool {
	return maps.Equal(a, b)
}

// Node is one element of the document tree. Inline nodes (text, object)
// carry Attrs; objects additionally carry element Props such as an image
// source. Nodes are mutated only through a Writer.
type Node struct {
	id       string
	kind     Kind
	name     string
	text     string
	attrs    Attributes
	props    Attributes
	parent   *Node
	children []*Node
}

// newID generates a UUID v7 for node identity.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// NewText creates a detached text node.
func NewText(text string, attrs Attributes) *Node {
	return &Node{id: newID(), kind: KindText, name: TextName, text: text, attrs: attrs.Clone()}
}

// NewObject creates a detached inline object such as an image.
func NewObject(name string, props, attrs Attributes) *Node {
	return &Node{id: newID(), kind: KindObject, name: name, props: props.Clone(), attrs: attrs.Clone()}
}

// NewBlock creates a detached block holding the given inline children.
func NewBlock(name string, children ...*Node) *Node {
	b := &Node{id: newID(), kind: KindBlock, name: name}
	for _, c := range children {
		c.parent = b
		b.children = append(b.children, c)
	}
	return b
}

func newRoot() *Node {
	return &Node{id: newID(), kind: KindRoot, name: "$root"}
}

// ID returns the node's stable identity. It survives transaction rollback.
func (n *Node) ID() string { return n.id }

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the element name, or TextName for text nodes.
func (n *Node) Name() string { return n.name }

// Text returns the characters of a text node, or "" for elements.
func (n *Node) Text() string { return n.text }

// Parent returns the containing node, or nil for the root and detached nodes.
func (n *Node) Parent() *Node { return n.parent }

// IsInline reports whether the node is a text or object leaf.
func (n *Node) IsInline() bool { return n.kind == KindText || n.kind == KindObject }

// Attr returns the value of an attribute and whether it is set.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// Attrs returns a copy of the node's attributes.
func (n *Node) Attrs() Attributes { return n.attrs.Clone() }

// Prop returns an element property such as an image source.
func (n *Node) Prop(key string) (string, bool) {
	v, ok := n.props[key]
	return v, ok
}

// Props returns a copy of the node's element properties.
func (n *Node) Props() Attributes { return n.props.Clone() }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return len(n.children) }

// Size is the number of offsets the node occupies in its parent: the rune
// count for text, one for any element.
func (n *Node) Size() int {
	if n.kind == KindText {
		return utf8.RuneCountInString(n.text)
	}
	return 1
}

// MaxOffset is the largest valid offset inside the node.
func (n *Node) MaxOffset() int {
	total := 0
	for _, c := range n.children {
		total += c.Size()
	}
	return total
}

// Index returns the node's position in its parent's child list, or -1.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// StartOffset returns the offset in the parent at which the node begins.
func (n *Node) StartOffset() int {
	if n.parent == nil {
		return 0
	}
	off := 0
	for _, c := range n.parent.children {
		if c == n {
			return off
		}
		off += c.Size()
	}
	return off
}

// EndOffset returns the offset in the parent just after the node.
func (n *Node) EndOffset() int { return n.StartOffset() + n.Size() }

// PreviousSibling returns the sibling before the node, or nil.
func (n *Node) PreviousSibling() *Node {
	i := n.Index()
	if i <= 0 {
		return nil
	}
	return n.parent.children[i-1]
}

// NextSibling returns the sibling after the node, or nil.
func (n *Node) NextSibling() *Node {
	i := n.Index()
	if i < 0 || i+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[i+1]
}

// locate maps an offset inside n to a child index. When inside is true the
// offset falls strictly within the text child at idx; otherwise the offset
// sits just before child idx (idx == len(children) at the end).
func (n *Node) locate(offset int) (idx int, inside bool) {
	start := 0
	for i, c := range n.children {
		if offset == start {
			return i, false
		}
		end := start + c.Size()
		if offset < end {
			return i, c.kind == KindText
		}
		start = end
	}
	return len(n.children), false
}

func (n *Node) insertChild(idx int, c *Node) {
	c.parent = n
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = c
}

func (n *Node) removeChild(idx int) {
	n.children[idx].parent = nil
	n.children = append(n.children[:idx], n.children[idx+1:]...)
}

// clone deep-copies the subtree, preserving ids.
func (n *Node) clone(parent *Node) *Node {
	cp := &Node{
		id:     n.id,
		kind:   n.kind,
		name:   n.name,
		text:   n.text,
		attrs:  n.attrs.Clone(),
		props:  n.props.Clone(),
		parent: parent,
	}
	if len(n.children) > 0 {
		cp.children = make([]*Node, len(n.children))
		for i, c := range n.children {
			cp.children[i] = c.clone(cp)
		}
	}
	return cp
}
