// Package wire converts documents to and from their HTML representation.
// Links travel as <internallink internallinkid="ID"> elements.
package wire

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// Element names of the representation.
const (
	linkElement   = types.ViewLinkTag
	blockDefault  = "paragraph"
	objectImage   = "image"
	headingPrefix = "heading"
)

// blockTags maps HTML block elements onto block names.
var blockTags = map[atom.Atom]string{
	atom.P:          blockDefault,
	atom.Div:        blockDefault,
	atom.Li:         blockDefault,
	atom.Blockquote: blockDefault,
	atom.Pre:        blockDefault,
	atom.H1:         headingPrefix + "1",
	atom.H2:         headingPrefix + "2",
	atom.H3:         headingPrefix + "3",
	atom.H4:         headingPrefix + "4",
	atom.H5:         headingPrefix + "5",
	atom.H6:         headingPrefix + "6",
}

// containers hold blocks rather than inline content.
var containers = map[atom.Atom]bool{
	atom.Ul:    true,
	atom.Ol:    true,
	atom.Div:   true,
	atom.Table: true,
	atom.Tbody: true,
	atom.Tr:    true,
	atom.Td:    true,
}

// Serialize renders the document blocks as HTML.
func Serialize(doc *model.Document) (string, error) {
	var buf bytes.Buffer
	for _, b := range doc.Blocks() {
		if err := html.Render(&buf, renderBlock(b)); err != nil {
			return "", fmt.Errorf("rendering block %s: %w", b.ID(), err)
		}
	}
	return buf.String(), nil
}

func renderBlock(b *model.Node) *html.Node {
	tag := "p"
	if level, ok := strings.CutPrefix(b.Name(), headingPrefix); ok && len(level) == 1 && level[0] >= '1' && level[0] <= '6' {
		tag = "h" + level
	}
	out := element(tag)
	for _, c := range b.Children() {
		out.AppendChild(renderInline(c))
	}
	return out
}

func renderInline(n *model.Node) *html.Node {
	var inner *html.Node
	if n.Kind() == model.KindObject {
		inner = element("img")
		props := n.Props()
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			inner.Attr = append(inner.Attr, html.Attribute{Key: k, Val: props[k]})
		}
	} else {
		inner = &html.Node{Type: html.TextNode, Data: n.Text()}
	}
	if _, ok := n.Attr(model.AttrItalic); ok {
		inner = wrap(element("em"), inner)
	}
	if _, ok := n.Attr(model.AttrBold); ok {
		inner = wrap(element("strong"), inner)
	}
	if id, ok := n.Attr(types.LinkAttribute); ok && id != "" {
		link := element(linkElement)
		link.Attr = []html.Attribute{{Key: types.ViewLinkAttribute, Val: id}}
		inner = wrap(link, inner)
	}
	return inner
}

func element(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func wrap(parent, child *html.Node) *html.Node {
	parent.AppendChild(child)
	return parent
}

// Parse reads an HTML document body into a new document over schema.
// Inline content outside any block lands in an implicit paragraph.
func Parse(src string, schema *model.Schema) (*model.Document, error) {
	roots, err := parseFragment(src)
	if err != nil {
		return nil, err
	}
	p := &parser{schema: schema}
	for _, n := range roots {
		p.top(n)
	}
	p.flush()
	if len(p.blocks) == 0 {
		p.blocks = append(p.blocks, model.NewBlock(blockDefault))
	}
	return model.NewDocument(schema, p.blocks...), nil
}

// pastePolicy keeps the formatting the document understands and the link
// element with its id; everything else is reduced to text.
func pastePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "div", "li", "ul", "ol", "blockquote", "pre",
		"h1", "h2", "h3", "h4", "h5", "h6", "strong", "b", "em", "i", "br")
	p.AllowAttrs(types.ViewLinkAttribute).OnElements(linkElement)
	p.AllowElements(linkElement)
	p.AllowStandardURLs()
	p.AllowImages()
	return p
}

// Sanitize strips pasted HTML down to what Parse understands.
func Sanitize(src string) string {
	return pastePolicy().Sanitize(src)
}

// ParseFragment sanitizes pasted HTML and returns its inline nodes, ready to
// insert at a caret. Block boundaries are dropped.
func ParseFragment(src string, schema *model.Schema) ([]*model.Node, error) {
	roots, err := parseFragment(Sanitize(src))
	if err != nil {
		return nil, err
	}
	p := &parser{schema: schema}
	for _, n := range roots {
		p.inline(n, model.Attributes{})
	}
	return p.pending, nil
}

func parseFragment(src string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return nodes, nil
}

type parser struct {
	schema  *model.Schema
	blocks  []*model.Node
	pending []*model.Node
}

func (p *parser) top(n *html.Node) {
	if n.Type == html.ElementNode {
		if containers[n.DataAtom] && hasBlockChild(n) {
			p.flush()
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				p.top(c)
			}
			return
		}
		if name, ok := blockTags[n.DataAtom]; ok {
			p.flush()
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				p.inline(c, model.Attributes{})
			}
			p.blocks = append(p.blocks, model.NewBlock(name, p.pending...))
			p.pending = nil
			return
		}
	}
	if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" && len(p.pending) == 0 {
		return
	}
	p.inline(n, model.Attributes{})
}

func (p *parser) flush() {
	if len(p.pending) == 0 {
		return
	}
	p.blocks = append(p.blocks, model.NewBlock(blockDefault, p.pending...))
	p.pending = nil
}

// inline appends the inline content of n carrying attrs.
func (p *parser) inline(n *html.Node, attrs model.Attributes) {
	switch n.Type {
	case html.TextNode:
		p.appendText(n.Data, attrs)
		return
	case html.ElementNode:
	default:
		return
	}

	switch {
	case n.DataAtom == atom.Img:
		props := model.Attributes{}
		for _, a := range n.Attr {
			props[a.Key] = a.Val
		}
		p.pending = append(p.pending, model.NewObject(objectImage, props, p.allowed(objectImage, attrs)))
		return
	case n.DataAtom == atom.Strong || n.DataAtom == atom.B:
		attrs = with(attrs, model.AttrBold, "true")
	case n.DataAtom == atom.Em || n.DataAtom == atom.I:
		attrs = with(attrs, model.AttrItalic, "true")
	case n.Data == linkElement:
		if id := attr(n, types.ViewLinkAttribute); id != "" {
			attrs = with(attrs, types.LinkAttribute, id)
		}
	case n.DataAtom == atom.Script || n.DataAtom == atom.Style:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.inline(c, attrs)
	}
}

func (p *parser) appendText(text string, attrs model.Attributes) {
	if text == "" {
		return
	}
	attrs = p.allowed(model.TextName, attrs)
	if last := len(p.pending) - 1; last >= 0 {
		prev := p.pending[last]
		if prev.Kind() == model.KindText && prev.Attrs().Equal(attrs) {
			p.pending[last] = model.NewText(prev.Text()+text, attrs)
			return
		}
	}
	p.pending = append(p.pending, model.NewText(text, attrs))
}

// allowed drops the attributes the schema rejects on nodes named name.
func (p *parser) allowed(name string, attrs model.Attributes) model.Attributes {
	probe := model.NewText("", nil)
	if name != model.TextName {
		probe = model.NewObject(name, nil, nil)
	}
	out := model.Attributes{}
	for k, v := range attrs {
		if p.schema.IsAttributeAllowed(probe, k) {
			out[k] = v
		}
	}
	return out
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if _, ok := blockTags[c.DataAtom]; ok || containers[c.DataAtom] {
			return true
		}
	}
	return false
}

func with(attrs model.Attributes, key, value string) model.Attributes {
	out := attrs.Clone()
	out[key] = value
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
