package model

// Update describes a committed change. SelectionOnly is set when the
// transaction moved the selection without touching content.
type Update struct {
	Version       uint64
	SelectionOnly bool
}

type listener struct {
	id int
	fn func(Update)
}

// Document owns the tree, the selection and the update listeners. It is not
// safe for concurrent use: all calls belong to the editor event loop.
type Document struct {
	root              *Node
	schema            *Schema
	ranges            []Range
	gravityOverridden bool
	writer            *Writer
	version           uint64
	listeners         []listener
	nextListener      int
}

// NewDocument creates a document holding blocks, with the caret at the start
// of the first block. A nil schema selects DefaultSchema.
func NewDocument(schema *Schema, blocks ...*Node) *Document {
	if schema == nil {
		schema = DefaultSchema()
	}
	root := newRoot()
	for i, b := range blocks {
		root.insertChild(i, b)
	}
	d := &Document{root: root, schema: schema}
	d.ranges = []Range{Collapsed(d.startPosition())}
	return d
}

// Root returns the root node.
func (d *Document) Root() *Node { return d.root }

// Schema returns the schema governing attribute validity.
func (d *Document) Schema() *Schema { return d.schema }

// Version counts committed transactions.
func (d *Document) Version() uint64 { return d.version }

// Blocks returns the top-level blocks.
func (d *Document) Blocks() []*Node { return d.root.Children() }

// Selection returns a snapshot of the current selection.
func (d *Document) Selection() Selection {
	ranges := make([]Range, len(d.ranges))
	copy(ranges, d.ranges)
	return Selection{
		Ranges: ranges,
		Attrs:  selectionAttrs(ranges, d.schema, d.gravityOverridden),
	}
}

// SetSelection replaces the selection and notifies listeners. Inside a
// transaction it defers to the active Writer.
func (d *Document) SetSelection(ranges ...Range) error {
	return d.Change(func(w *Writer) error {
		return w.SetSelection(ranges...)
	})
}

// OverrideGravity makes a caret at a run boundary take the two-step caret
// attributes of the node after it.
func (d *Document) OverrideGravity() {
	if d.gravityOverridden {
		return
	}
	d.gravityOverridden = true
	d.notify(Update{Version: d.version, SelectionOnly: true})
}

// RestoreGravity undoes OverrideGravity.
func (d *Document) RestoreGravity() {
	if !d.gravityOverridden {
		return
	}
	d.gravityOverridden = false
	d.notify(Update{Version: d.version, SelectionOnly: true})
}

// IsGravityOverridden reports the caret gravity state.
func (d *Document) IsGravityOverridden() bool { return d.gravityOverridden }

// OnUpdate registers fn to run after every committed change. The returned
// function unregisters it.
func (d *Document) OnUpdate(fn func(Update)) (unsubscribe func()) {
	id := d.nextListener
	d.nextListener++
	d.listeners = append(d.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// Change runs fn as one atomic transaction. If fn returns an error the tree
// and selection are restored and no update fires. Nested calls join the
// enclosing transaction.
func (d *Document) Change(fn func(w *Writer) error) error {
	if d.writer != nil {
		return fn(d.writer)
	}

	snap := d.snapshot()
	w := &Writer{doc: d}
	d.writer = w
	err := fn(w)
	d.writer = nil
	if err != nil {
		d.restore(snap)
		return err
	}
	if !w.dirty {
		return nil
	}

	d.normalize()
	d.fixSelection()
	d.version++
	d.notify(Update{Version: d.version, SelectionOnly: !w.contentChanged})
	return nil
}

// Text renders the plain text of the document, one line per block.
func (d *Document) Text() string {
	var out []byte
	for i, b := range d.root.children {
		if i > 0 {
			out = append(out, '\n')
		}
		for _, c := range b.children {
			if c.kind == KindText {
				out = append(out, c.text...)
			}
		}
	}
	return string(out)
}

func (d *Document) notify(u Update) {
	ls := make([]listener, len(d.listeners))
	copy(ls, d.listeners)
	for _, l := range ls {
		l.fn(u)
	}
}

func (d *Document) startPosition() Position {
	if len(d.root.children) > 0 && d.root.children[0].kind == KindBlock {
		return At(d.root.children[0], 0)
	}
	return At(d.root, 0)
}

type snapshot struct {
	root    *Node
	paths   [][2][]int
	gravity bool
}

func (d *Document) snapshot() snapshot {
	s := snapshot{root: d.root.clone(nil), gravity: d.gravityOverridden}
	for _, r := range d.ranges {
		s.paths = append(s.paths, [2][]int{r.Start.Path(), r.End.Path()})
	}
	return s
}

// restore puts the snapshot back while keeping the identity of element
// nodes, so blocks held by callers stay attached after a rollback.
func (d *Document) restore(s snapshot) {
	elements := make(map[string]*Node)
	var collect func(*Node)
	collect = func(n *Node) {
		if !n.IsInline() {
			elements[n.id] = n
		}
		for _, c := range n.children {
			collect(c)
		}
	}
	collect(d.root)

	var adopt func(dst, src *Node)
	adopt = func(dst, src *Node) {
		dst.text, dst.attrs, dst.props = src.text, src.attrs, src.props
		children := make([]*Node, 0, len(src.children))
		for _, c := range src.children {
			if orig, ok := elements[c.id]; ok && !c.IsInline() {
				adopt(orig, c)
				c = orig
			}
			c.parent = dst
			children = append(children, c)
		}
		dst.children = children
	}
	adopt(d.root, s.root)

	d.ranges = d.ranges[:0]
	for _, p := range s.paths {
		start, ok1 := positionFromPath(d.root, p[0])
		end, ok2 := positionFromPath(d.root, p[1])
		if ok1 && ok2 {
			d.ranges = append(d.ranges, Range{Start: start, End: end})
		}
	}
	d.gravityOverridden = s.gravity
	d.fixSelection()
}

// normalize merges adjacent text nodes with equal attributes and drops
// empty text nodes. Offsets are unaffected, so positions survive it.
func (d *Document) normalize() {
	var walk func(*Node)
	walk = func(n *Node) {
		var kept []*Node
		for _, c := range n.children {
			if c.kind == KindText && c.text == "" {
				c.parent = nil
				continue
			}
			if len(kept) > 0 {
				prev := kept[len(kept)-1]
				if prev.kind == KindText && c.kind == KindText && prev.attrs.Equal(c.attrs) {
					prev.text += c.text
					c.parent = nil
					continue
				}
			}
			kept = append(kept, c)
			if !c.IsInline() {
				walk(c)
			}
		}
		n.children = kept
	}
	walk(d.root)
}

// fixSelection collapses the selection to the document start when any of
// its ends no longer resolves inside the tree.
func (d *Document) fixSelection() {
	valid := len(d.ranges) > 0
	for _, r := range d.ranges {
		if !r.IsValid() || !d.attached(r.Start.Parent) || !d.attached(r.End.Parent) {
			valid = false
			break
		}
	}
	if !valid {
		d.ranges = []Range{Collapsed(d.startPosition())}
	}
}

func (d *Document) attached(n *Node) bool {
	for ; n != nil; n = n.parent {
		if n == d.root {
			return true
		}
	}
	return false
}
