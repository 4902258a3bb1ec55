package model

import "fmt"

// Writer mutates a Document inside Change. It is only valid for the
// duration of the callback it was passed to.
type Writer struct {
	doc            *Document
	dirty          bool
	contentChanged bool
}

// SetAttribute sets key to value on every inline node inside r, splitting
// text at the range ends. It fails with ErrAttributeNotAllowed when any
// covered node rejects key; the enclosing transaction then rolls back.
func (w *Writer) SetAttribute(key, value string, r Range) error {
	if err := w.checkRange(r); err != nil {
		return err
	}
	if r.IsCollapsed() {
		return nil
	}
	for _, n := range r.Inline() {
		if !w.doc.schema.IsAttributeAllowed(n, key) {
			return fmt.Errorf("%w: %q on %s", ErrAttributeNotAllowed, key, n.name)
		}
	}

	w.splitAt(r.Start)
	w.splitAt(r.End)
	for _, n := range r.Inline() {
		if n.attrs == nil {
			n.attrs = Attributes{}
		}
		n.attrs[key] = value
	}
	w.touch(true)
	return nil
}

// RemoveAttribute clears key from every inline node inside r.
func (w *Writer) RemoveAttribute(key string, r Range) error {
	if err := w.checkRange(r); err != nil {
		return err
	}
	if r.IsCollapsed() {
		return nil
	}
	w.splitAt(r.Start)
	w.splitAt(r.End)
	for _, n := range r.Inline() {
		delete(n.attrs, key)
	}
	w.touch(true)
	return nil
}

// InsertText inserts a text node carrying attrs at pos, which must sit in a
// block. Selection ends at or after pos in the same block move past it.
func (w *Writer) InsertText(text string, attrs Attributes, pos Position) (*Node, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	for key := range attrs {
		if !w.doc.schema.allowed[TextName][key] {
			return nil, fmt.Errorf("%w: %q on %s", ErrAttributeNotAllowed, key, TextName)
		}
	}
	n := NewText(text, attrs)
	if err := w.insert(n, pos); err != nil {
		return nil, err
	}
	return n, nil
}

// InsertObject inserts an inline object such as an image at pos.
func (w *Writer) InsertObject(name string, props, attrs Attributes, pos Position) (*Node, error) {
	n := NewObject(name, props, attrs)
	for key := range attrs {
		if !w.doc.schema.IsAttributeAllowed(n, key) {
			return nil, fmt.Errorf("%w: %q on %s", ErrAttributeNotAllowed, key, name)
		}
	}
	if err := w.insert(n, pos); err != nil {
		return nil, err
	}
	return n, nil
}

// Remove deletes the content of r. Both ends must share a parent.
func (w *Writer) Remove(r Range) error {
	if err := w.checkRange(r); err != nil {
		return err
	}
	if r.Start.Parent != r.End.Parent {
		return fmt.Errorf("%w: ends in different parents", ErrInvalidRange)
	}
	if r.IsCollapsed() {
		return nil
	}
	w.splitAt(r.Start)
	w.splitAt(r.End)

	parent := r.Start.Parent
	kept := parent.children[:0:0]
	off := 0
	for _, c := range parent.children {
		size := c.Size()
		if off >= r.Start.Offset && off+size <= r.End.Offset {
			c.parent = nil
		} else {
			kept = append(kept, c)
		}
		off += size
	}
	parent.children = kept

	removed := r.End.Offset - r.Start.Offset
	for i := range w.doc.ranges {
		for _, p := range []*Position{&w.doc.ranges[i].Start, &w.doc.ranges[i].End} {
			if p.Parent != parent || p.Offset <= r.Start.Offset {
				continue
			}
			if p.Offset <= r.End.Offset {
				p.Offset = r.Start.Offset
			} else {
				p.Offset -= removed
			}
		}
	}
	w.touch(true)
	return nil
}

// SetSelection replaces the selection and restores default caret gravity.
func (w *Writer) SetSelection(ranges ...Range) error {
	for _, r := range ranges {
		if err := w.checkRange(r); err != nil {
			return err
		}
	}
	if len(ranges) == 0 {
		return fmt.Errorf("%w: empty selection", ErrInvalidRange)
	}
	w.doc.ranges = append([]Range(nil), ranges...)
	w.doc.gravityOverridden = false
	w.touch(false)
	return nil
}

func (w *Writer) insert(n *Node, pos Position) error {
	if !pos.IsValid() || !w.doc.attached(pos.Parent) || pos.Parent.kind != KindBlock {
		return fmt.Errorf("%w: %s", ErrInvalidPosition, pos)
	}
	w.splitAt(pos)
	idx, _ := pos.Parent.locate(pos.Offset)
	pos.Parent.insertChild(idx, n)

	size := n.Size()
	for i := range w.doc.ranges {
		for _, p := range []*Position{&w.doc.ranges[i].Start, &w.doc.ranges[i].End} {
			if p.Parent == pos.Parent && p.Offset >= pos.Offset {
				p.Offset += size
			}
		}
	}
	w.touch(true)
	return nil
}

// splitAt splits the text node p lies strictly inside into two nodes with
// equal attributes. Offsets are unchanged.
func (w *Writer) splitAt(p Position) {
	t := p.TextNode()
	if t == nil {
		return
	}
	k := p.Offset - t.StartOffset()
	runes := []rune(t.text)
	t.text = string(runes[:k])
	right := &Node{id: newID(), kind: KindText, name: TextName, text: string(runes[k:]), attrs: t.attrs.Clone()}
	p.Parent.insertChild(t.Index()+1, right)
}

func (w *Writer) checkRange(r Range) error {
	if !r.IsValid() || !w.doc.attached(r.Start.Parent) || !w.doc.attached(r.End.Parent) {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	return nil
}

func (w *Writer) touch(content bool) {
	w.dirty = true
	if content {
		w.contentChanged = true
	}
}
