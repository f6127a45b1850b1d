package form

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sw33tLie/estform/pkg/dom"
)

// MatchOption returns the first option, in document order, whose text, value
// or name attribute equals or contains target, ignoring case.
func MatchOption(options []*dom.Element, target string) *dom.Element {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(target))
	if want == "" {
		return nil
	}
	for _, opt := range options {
		for _, cand := range optionCandidates(opt) {
			c := fold.String(cand)
			if c == want || strings.Contains(c, want) {
				return opt
			}
		}
	}
	return nil
}

func optionCandidates(opt *dom.Element) []string {
	out := []string{strings.TrimSpace(opt.Text()), opt.OptionValue()}
	if name, ok := opt.Attr("data-name"); ok {
		out = append(out, name)
	} else if name, ok := opt.Attr("name"); ok {
		out = append(out, name)
	}
	return out
}

// SetSelectValue selects the option matching target and fires a single
// change event on the select. It reports whether an option matched.
func SetSelectValue(sel *dom.Element, target string) bool {
	opt := MatchOption(sel.Options(), target)
	if opt == nil {
		return false
	}
	sel.SelectOption(opt)
	sel.Document().Dispatch(sel, dom.EventChange)
	return true
}
