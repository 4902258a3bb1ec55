package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linkKey = "internalLinkId"

func linkSchema() *Schema {
	s := DefaultSchema()
	s.AllowAttribute(TextName, linkKey)
	return s
}

func link(id string) Attributes { return Attributes{linkKey: id} }

func TestPositionNeighbours(t *testing.T) {
	hello := NewText("Hello", nil)
	img := NewObject("image", Attributes{"src": "a.png"}, nil)
	world := NewText("World", link("1"))
	p := NewBlock("paragraph", hello, img, world)
	NewDocument(nil, p)

	tests := []struct {
		name       string
		offset     int
		wantText   *Node
		wantBefore *Node
		wantAfter  *Node
	}{
		{name: "block start", offset: 0, wantAfter: hello},
		{name: "inside hello", offset: 2, wantText: hello},
		{name: "between hello and image", offset: 5, wantBefore: hello, wantAfter: img},
		{name: "between image and world", offset: 6, wantBefore: img, wantAfter: world},
		{name: "inside world", offset: 9, wantText: world},
		{name: "block end", offset: 11, wantBefore: world},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := At(p, tt.offset)
			assert.Same(t, tt.wantText, pos.TextNode())
			assert.Same(t, tt.wantBefore, pos.NodeBefore())
			assert.Same(t, tt.wantAfter, pos.NodeAfter())
			assert.Same(t, p, pos.Block())
		})
	}
}

func TestPositionCompare(t *testing.T) {
	p1 := NewBlock("paragraph", NewText("abc", nil))
	p2 := NewBlock("paragraph", NewText("def", nil))
	doc := NewDocument(nil, p1, p2)

	assert.Equal(t, -1, At(p1, 3).Compare(At(p2, 0)))
	assert.Equal(t, 1, At(p2, 0).Compare(At(p1, 1)))
	assert.Equal(t, 0, At(p1, 2).Compare(At(p1, 2)))
	assert.Equal(t, -1, At(doc.Root(), 1).Compare(At(p2, 0)), "boundary before a block precedes its content")
	assert.Equal(t, []int{1, 2}, At(p2, 2).Path())
}

func TestSetAttributeSplitsAndMerges(t *testing.T) {
	p := NewBlock("paragraph", NewText("Hello world", nil))
	doc := NewDocument(linkSchema(), p)

	err := doc.Change(func(w *Writer) error {
		return w.SetAttribute(linkKey, "7", NewRange(At(p, 6), At(p, 11)))
	})
	require.NoError(t, err)
	require.Equal(t, 2, p.ChildCount())
	assert.Equal(t, "Hello ", p.Children()[0].Text())
	v, ok := p.Children()[1].Attr(linkKey)
	assert.True(t, ok)
	assert.Equal(t, "7", v)

	err = doc.Change(func(w *Writer) error {
		return w.RemoveAttribute(linkKey, NewRange(At(p, 0), At(p, 11)))
	})
	require.NoError(t, err)
	require.Equal(t, 1, p.ChildCount(), "equal neighbours merge after the change")
	assert.Equal(t, "Hello world", p.Children()[0].Text())
}

func TestChangeRollsBackOnSchemaRejection(t *testing.T) {
	img := NewObject("image", nil, nil)
	p := NewBlock("paragraph", NewText("ab", nil), img, NewText("cd", nil))
	doc := NewDocument(linkSchema(), p)
	require.NoError(t, doc.SetSelection(Collapsed(At(p, 1))))

	updates := 0
	doc.OnUpdate(func(Update) { updates++ })
	before := doc.Version()

	err := doc.Change(func(w *Writer) error {
		if err := w.SetAttribute(linkKey, "1", NewRange(At(p, 0), At(p, 2))); err != nil {
			return err
		}
		if _, err := w.InsertText("zz", nil, At(p, 0)); err != nil {
			return err
		}
		return w.SetAttribute(linkKey, "1", NewRange(At(p, 0), At(p, 7)))
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAttributeNotAllowed))

	assert.Equal(t, before, doc.Version())
	assert.Zero(t, updates)
	assert.Equal(t, "abcd", doc.Text())
	for _, n := range p.Children() {
		_, ok := n.Attr(linkKey)
		assert.False(t, ok)
	}
	sel := doc.Selection()
	require.Len(t, sel.Ranges, 1)
	assert.Same(t, p, sel.First().Parent, "block identity survives rollback")
	assert.Equal(t, 1, sel.First().Offset)
}

func TestInsertTextShiftsSelection(t *testing.T) {
	p := NewBlock("paragraph", NewText("Hello", nil))
	doc := NewDocument(linkSchema(), p)
	require.NoError(t, doc.SetSelection(Collapsed(At(p, 5))))

	var inserted *Node
	err := doc.Change(func(w *Writer) error {
		var err error
		inserted, err = w.InsertText("!", nil, At(p, 2))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "He!llo", doc.Text())
	assert.Equal(t, 6, doc.Selection().First().Offset)
	assert.NotNil(t, inserted)
}

func TestInsertTextRejectsDisallowedAttribute(t *testing.T) {
	p := NewBlock("paragraph")
	doc := NewDocument(DefaultSchema(), p)

	err := doc.Change(func(w *Writer) error {
		_, err := w.InsertText("x", link("1"), At(p, 0))
		return err
	})
	assert.ErrorIs(t, err, ErrAttributeNotAllowed)
	assert.Equal(t, "", doc.Text())
}

func TestRemoveShiftsSelection(t *testing.T) {
	p := NewBlock("paragraph", NewText("abcdef", nil))
	doc := NewDocument(nil, p)
	require.NoError(t, doc.SetSelection(NewRange(At(p, 2), At(p, 6))))

	require.NoError(t, doc.Change(func(w *Writer) error {
		return w.Remove(NewRange(At(p, 1), At(p, 3)))
	}))
	assert.Equal(t, "adef", doc.Text())
	sel := doc.Selection()
	assert.Equal(t, 1, sel.Ranges[0].Start.Offset)
	assert.Equal(t, 4, sel.Ranges[0].End.Offset)
}

func TestSelectionAttributes(t *testing.T) {
	plain := NewText("ab", Attributes{AttrBold: "true"})
	linked := NewText("cd", link("9"))
	p := NewBlock("paragraph", plain, linked)
	schema := linkSchema()
	doc := NewDocument(schema, p)

	tests := []struct {
		name     string
		rng      Range
		override bool
		want     Attributes
	}{
		{name: "block start inherits the node after", rng: Collapsed(At(p, 0)), want: Attributes{AttrBold: "true"}},
		{name: "inside text", rng: Collapsed(At(p, 3)), want: link("9")},
		{name: "boundary inherits the node before", rng: Collapsed(At(p, 2)), want: Attributes{AttrBold: "true"}},
		{name: "non-collapsed takes the first text", rng: NewRange(At(p, 2), At(p, 4)), want: link("9")},
		{name: "block end", rng: Collapsed(At(p, 4)), want: link("9")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, doc.SetSelection(tt.rng))
			assert.Equal(t, tt.want, doc.Selection().Attrs)
		})
	}
}

func TestTwoStepCaretGravity(t *testing.T) {
	plain := NewText("ab", nil)
	linked := NewText("cd", link("9"))
	p := NewBlock("paragraph", plain, linked)
	schema := linkSchema()
	schema.EnableTwoStepCaret(linkKey)
	doc := NewDocument(schema, p)
	require.NoError(t, doc.SetSelection(Collapsed(At(p, 2))))

	assert.False(t, doc.Selection().HasAttr(linkKey))
	doc.OverrideGravity()
	v, ok := doc.Selection().Attr(linkKey)
	assert.True(t, ok)
	assert.Equal(t, "9", v)

	require.NoError(t, doc.SetSelection(Collapsed(At(p, 2))))
	assert.False(t, doc.IsGravityOverridden(), "selection change restores gravity")
}

func TestValidRangesSkipsDisallowedNodes(t *testing.T) {
	img := NewObject("image", nil, nil)
	p := NewBlock("paragraph", NewText("ab", nil), img, NewText("cd", nil))
	doc := NewDocument(linkSchema(), p)

	got := doc.Schema().ValidRanges([]Range{NewRange(At(p, 1), At(p, 4))}, linkKey)
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(NewRange(At(p, 1), At(p, 2))))
	assert.True(t, got[1].Equal(NewRange(At(p, 3), At(p, 4))))
}

func TestCheckAttributeInSelection(t *testing.T) {
	img := NewObject("image", nil, nil)
	p := NewBlock("paragraph", img, NewText("x", nil))
	doc := NewDocument(linkSchema(), p)
	schema := doc.Schema()

	assert.True(t, schema.CheckAttributeInSelection(Selection{Ranges: []Range{Collapsed(At(p, 0))}}, linkKey))
	assert.False(t, schema.CheckAttributeInSelection(Selection{Ranges: []Range{On(img)}}, linkKey))
	assert.True(t, schema.CheckAttributeInSelection(Selection{Ranges: []Range{NewRange(At(p, 0), At(p, 2))}}, linkKey))
	assert.False(t, DefaultSchema().CheckAttributeInSelection(Selection{Ranges: []Range{Collapsed(At(p, 0))}}, linkKey))
}

func TestOnUpdateUnsubscribe(t *testing.T) {
	p := NewBlock("paragraph", NewText("abc", nil))
	doc := NewDocument(nil, p)

	var got []Update
	unsubscribe := doc.OnUpdate(func(u Update) { got = append(got, u) })

	require.NoError(t, doc.SetSelection(Collapsed(At(p, 1))))
	require.NoError(t, doc.Change(func(w *Writer) error {
		_, err := w.InsertText("x", nil, At(p, 0))
		return err
	}))
	require.NoError(t, doc.Change(func(*Writer) error { return nil }), "empty change is silent")
	unsubscribe()
	require.NoError(t, doc.SetSelection(Collapsed(At(p, 0))))

	require.Len(t, got, 2)
	assert.True(t, got[0].SelectionOnly)
	assert.False(t, got[1].SelectionOnly)
	assert.Equal(t, uint64(2), got[1].Version)
}
