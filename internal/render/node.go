package render

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is a piece of the calendar document. Each node lowers itself onto an
// x/net/html element tree, which is serialized once by html.Render.
type Node interface {
	lower() *html.Node
}

// Document is the whole page.
type Document struct {
	Title string
	Style string
	// Attrs are set on the root container, in order.
	Attrs []html.Attribute
	Body  []Node
}

// Table holds an optional header row and body rows.
type Table struct {
	Class  string
	Header *Row
	Rows   []Row
}

// Row is one table row. Header rows emit <th> cells.
type Row struct {
	Class  string
	Header bool
	Cells  []Cell
}

// Cell is one grid cell.
type Cell struct {
	Class    string
	Children []Node
}

// Group is a block container for related text lines.
type Group struct {
	Class    string
	Children []Node
}

// Text is a line of escaped text. With an empty Class it lowers to a bare
// text node.
type Text struct {
	Class string
	Value string
}

func element(a atom.Atom, class string, attrs ...html.Attribute) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	n.Attr = append(n.Attr, attrs...)
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendAll(parent *html.Node, children []Node) {
	for _, c := range children {
		parent.AppendChild(c.lower())
	}
}

func (t Text) lower() *html.Node {
	if t.Class == "" {
		return textNode(t.Value)
	}
	n := element(atom.Div, t.Class)
	n.AppendChild(textNode(t.Value))
	return n
}

func (g Group) lower() *html.Node {
	n := element(atom.Div, g.Class)
	appendAll(n, g.Children)
	return n
}

func (c Cell) lowerAs(a atom.Atom) *html.Node {
	n := element(a, c.Class)
	appendAll(n, c.Children)
	return n
}

func (c Cell) lower() *html.Node {
	return c.lowerAs(atom.Td)
}

func (r Row) lower() *html.Node {
	n := element(atom.Tr, r.Class)
	cellAtom := atom.Td
	if r.Header {
		cellAtom = atom.Th
	}
	for _, c := range r.Cells {
		n.AppendChild(c.lowerAs(cellAtom))
	}
	return n
}

func (t Table) lower() *html.Node {
	n := element(atom.Table, t.Class)
	if t.Header != nil {
		head := element(atom.Thead, "")
		head.AppendChild(t.Header.lower())
		n.AppendChild(head)
	}
	body := element(atom.Tbody, "")
	for _, r := range t.Rows {
		body.AppendChild(r.lower())
	}
	n.AppendChild(body)
	return n
}

func (d Document) lower() *html.Node {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlEl := element(atom.Html, "", html.Attribute{Key: "lang", Val: "en"})
	root.AppendChild(htmlEl)

	head := element(atom.Head, "")
	head.AppendChild(element(atom.Meta, "", html.Attribute{Key: "charset", Val: "utf-8"}))
	title := element(atom.Title, "")
	title.AppendChild(textNode(d.Title))
	head.AppendChild(title)
	if d.Style != "" {
		style := element(atom.Style, "")
		style.AppendChild(textNode(d.Style))
		head.AppendChild(style)
	}
	htmlEl.AppendChild(head)

	body := element(atom.Body, "")
	container := element(atom.Div, "calendar", d.Attrs...)
	appendAll(container, d.Body)
	body.AppendChild(container)
	htmlEl.AppendChild(body)

	return root
}

// Bytes serializes the document.
func (d Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.lower()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
