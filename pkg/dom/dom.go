// Package dom is a small, mutable document model over goquery and
// golang.org/x/net/html. It provides the handful of element operations a form
// controller needs (values, attributes, classes, inline style, visibility,
// select options) plus synchronous event listeners, and renders the mutated
// tree back to HTML.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Event types dispatched by the controller.
const (
	EventChange = "change"
	EventInput  = "input"
	EventBlur   = "blur"
)

// Event is delivered to listeners registered with Document.On.
type Event struct {
	Type   string
	Target *Element
}

// Listener handles a dispatched event.
type Listener func(Event)

// Document owns a parsed HTML tree and the listeners attached to its nodes.
type Document struct {
	doc       *goquery.Document
	listeners map[*html.Node]map[string][]Listener
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{doc: doc, listeners: make(map[*html.Node]map[string][]Listener)}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node wrapped as an element.
func (d *Document) Root() *Element {
	return d.wrap(d.doc.Selection.Nodes[0])
}

// Find returns all elements matching a CSS selector in document order.
func (d *Document) Find(selector string) []*Element {
	return d.wrapAll(d.doc.Find(selector))
}

// First returns the first element matching selector, or nil.
func (d *Document) First(selector string) *Element {
	s := d.doc.Find(selector).First()
	if s.Length() == 0 {
		return nil
	}
	return d.wrap(s.Nodes[0])
}

// On registers fn for events of type typ targeting el.
func (d *Document) On(el *Element, typ string, fn Listener) {
	byType, ok := d.listeners[el.node]
	if !ok {
		byType = make(map[string][]Listener)
		d.listeners[el.node] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// Off removes every listener registered on el.
func (d *Document) Off(el *Element) {
	delete(d.listeners, el.node)
}

// Dispatch synchronously invokes the listeners for typ on el.
func (d *Document) Dispatch(el *Element, typ string) {
	fns := d.listeners[el.node][typ]
	ev := Event{Type: typ, Target: el}
	for _, fn := range fns {
		fn(ev)
	}
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.doc.Selection.Nodes[0])
}

// HTML renders the whole document into a string.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{doc: d, node: n}
}

func (d *Document) wrapAll(s *goquery.Selection) []*Element {
	out := make([]*Element, 0, s.Length())
	for _, n := range s.Nodes {
		out = append(out, d.wrap(n))
	}
	return out
}
