package dom

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type declaration struct {
	prop, value string
}

// parseStyle reads the declarations of an inline style attribute. Malformed
// declarations are skipped the way a browser drops them.
func parseStyle(s string) []declaration {
	var out []declaration
	p := css.NewParser(parse.NewInputString(s), true)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return out
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			var value strings.Builder
			for _, v := range p.Values() {
				value.Write(v.Data)
			}
			out = append(out, declaration{
				prop:  strings.ToLower(string(data)),
				value: strings.TrimSpace(value.String()),
			})
		}
	}
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// Style returns an inline style property value.
func (e *Element) Style(prop string) string {
	prop = strings.ToLower(prop)
	for _, d := range parseStyle(e.AttrOr("style", "")) {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

// SetStyle sets an inline style property, keeping the others in place.
func (e *Element) SetStyle(prop, value string) {
	prop = strings.ToLower(prop)
	decls := parseStyle(e.AttrOr("style", ""))
	for i := range decls {
		if decls[i].prop == prop {
			decls[i].value = value
			e.SetAttr("style", formatStyle(decls))
			return
		}
	}
	e.SetAttr("style", formatStyle(append(decls, declaration{prop: prop, value: value})))
}

// RemoveStyle drops an inline style property. The style attribute is removed
// once it is empty.
func (e *Element) RemoveStyle(prop string) {
	prop = strings.ToLower(prop)
	decls := parseStyle(e.AttrOr("style", ""))
	kept := decls[:0]
	for _, d := range decls {
		if d.prop != prop {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		e.RemoveAttr("style")
		return
	}
	e.SetAttr("style", formatStyle(kept))
}
