package fields

import (
	"strings"
	"unicode"

	"github.com/sw33tLie/estform/pkg/dom"
)

// Candidate is a field group under consideration during a scan.
type Candidate struct {
	// Label is the cleaned label text, possibly empty.
	Label string
	Group *dom.Element
	// Control is the primary input, textarea or select, possibly nil.
	Control *dom.Element
}

// Matcher resolves a candidate to a key.
type Matcher interface {
	Match(c Candidate) (Key, bool)
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(c Candidate) (Key, bool)

func (f MatcherFunc) Match(c Candidate) (Key, bool) { return f(c) }

// ExactLabel matches the label verbatim against the table.
func ExactLabel(table LabelTable) Matcher {
	return MatcherFunc(func(c Candidate) (Key, bool) {
		for _, e := range table {
			if c.Label == e.Label {
				return e.Key, true
			}
		}
		return "", false
	})
}

// LabelPrefix matches when the label starts with a table label, ignoring
// case. The longest table label wins so "Custom Establishment Name" is not
// claimed by a shorter entry.
func LabelPrefix(table LabelTable) Matcher {
	return MatcherFunc(func(c Candidate) (Key, bool) {
		label := fold(c.Label)
		if label == "" {
			return "", false
		}
		best, bestLen := Key(""), 0
		for _, e := range table {
			p := fold(e.Label)
			if strings.HasPrefix(label, p) && len(p) > bestLen {
				best, bestLen = e.Key, len(p)
			}
		}
		return best, bestLen > 0
	})
}

// SelectName matches the machine-readable name attribute of a select
// control, e.g. name="award_level" or name="awardLevel".
func SelectName() Matcher {
	return MatcherFunc(func(c Candidate) (Key, bool) {
		if c.Control == nil || c.Control.Tag() != "select" {
			return "", false
		}
		name := squash(c.Control.AttrOr("name", ""))
		if name == "" {
			return "", false
		}
		for _, k := range AllKeys {
			if squash(string(k)) == name {
				return k, true
			}
		}
		return "", false
	})
}

// DefaultMatchers is the resolution order used by NewRegistry.
func DefaultMatchers() []Matcher {
	return []Matcher{ExactLabel(DefaultLabels), LabelPrefix(DefaultLabels), SelectName()}
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range fold(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
