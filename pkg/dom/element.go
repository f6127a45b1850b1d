package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Element is a handle on a single node. Two handles on the same node are
// interchangeable; compare them with Is.
type Element struct {
	doc  *Document
	node *html.Node
}

func (e *Element) sel() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.node).Selection
}

// Node exposes the underlying html node.
func (e *Element) Node() *html.Node { return e.node }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Tag returns the lowercase element name.
func (e *Element) Tag() string { return strings.ToLower(e.node.Data) }

// Is reports whether both handles point at the same node.
func (e *Element) Is(other *Element) bool {
	return e != nil && other != nil && e.node == other.node
}

// Matches reports whether the element satisfies a CSS selector.
func (e *Element) Matches(selector string) bool {
	return e.sel().Is(selector)
}

// Find returns descendants matching selector in document order.
func (e *Element) Find(selector string) []*Element {
	return e.doc.wrapAll(e.sel().Find(selector))
}

// First returns the first descendant matching selector, or nil.
func (e *Element) First(selector string) *Element {
	s := e.sel().Find(selector).First()
	if s.Length() == 0 {
		return nil
	}
	return e.doc.wrap(s.Nodes[0])
}

// Closest walks up from the element (inclusive) to the first ancestor
// matching selector.
func (e *Element) Closest(selector string) *Element {
	for n := e.node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if goquery.NewDocumentFromNode(n).Selection.Is(selector) {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// Parent returns the parent element, or nil at the root.
func (e *Element) Parent() *Element {
	if e.node.Parent == nil || e.node.Parent.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(e.node.Parent)
}

// Siblings returns the element siblings matching selector.
func (e *Element) Siblings(selector string) []*Element {
	var out []*Element
	if e.node.Parent == nil {
		return out
	}
	for n := e.node.Parent.FirstChild; n != nil; n = n.NextSibling {
		if n == e.node || n.Type != html.ElementNode {
			continue
		}
		if goquery.NewDocumentFromNode(n).Selection.Is(selector) {
			out = append(out, e.doc.wrap(n))
		}
	}
	return out
}

// Attr returns an attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when absent.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

func (e *Element) SetAttr(name, value string) { e.sel().SetAttr(name, value) }

func (e *Element) RemoveAttr(name string) { e.sel().RemoveAttr(name) }

// ToggleAttr sets a boolean attribute when on is true and removes it otherwise.
func (e *Element) ToggleAttr(name string, on bool) {
	if on {
		e.SetAttr(name, "")
		return
	}
	e.RemoveAttr(name)
}

func (e *Element) HasClass(class string) bool { return e.sel().HasClass(class) }

func (e *Element) AddClass(class ...string) { e.sel().AddClass(class...) }

func (e *Element) RemoveClass(class ...string) { e.sel().RemoveClass(class...) }

// Text returns the combined text of the element and its descendants.
func (e *Element) Text() string { return e.sel().Text() }

// SetText replaces the element's children with a single text node.
func (e *Element) SetText(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Hidden reports whether the element carries the hidden attribute.
func (e *Element) Hidden() bool { return e.HasAttr("hidden") }

// SetHidden shows or hides the element. Both directions are always written.
func (e *Element) SetHidden(hidden bool) {
	e.ToggleAttr("hidden", hidden)
	if hidden {
		e.SetStyle("display", "none")
	} else {
		e.RemoveStyle("display")
	}
}

// Disabled reports whether the element carries the disabled attribute.
func (e *Element) Disabled() bool { return e.HasAttr("disabled") }

// AppendElement creates a child element with optional text and attributes.
func (e *Element) AppendElement(tag, text string, attrs ...html.Attribute) *Element {
	n := &html.Node{Type: html.ElementNode, Data: tag, Attr: attrs}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	e.node.AppendChild(n)
	return e.doc.wrap(n)
}

// Remove detaches the element from its parent and drops its listeners.
func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
	e.doc.Off(e)
}

// OuterHTML renders the element itself.
func (e *Element) OuterHTML() (string, error) {
	return goquery.OuterHtml(e.sel())
}
