package form

import (
	"testing"

	"github.com/sw33tLie/estform/pkg/dom"
)

const selectHTML = `<select id="s">
<option value="">Select a level</option>
<option value="gold">Gold Tier</option>
<option value="gold-plus">Gold Plus</option>
<option value="x1" data-name="platinum">Top</option>
<option>Silver</option>
</select>`

func parseSelect(t *testing.T) *dom.Element {
	t.Helper()
	doc, err := dom.ParseString(selectHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc.First("#s")
}

func TestMatchOption(t *testing.T) {
	tests := []struct {
		target string
		want   string // option value, "" for no match
	}{
		{"Gold", "gold"},
		{"gold tier", "gold"},
		{"GOLD-PLUS", "gold-plus"},
		{"Plus", "gold-plus"},
		{"Platinum", "x1"},
		{"silver", "Silver"},
		{"Bronze", ""},
		{"", ""},
	}
	sel := parseSelect(t)
	for _, tt := range tests {
		got := MatchOption(sel.Options(), tt.target)
		if tt.want == "" {
			if got != nil {
				t.Errorf("MatchOption(%q): want no match, got %q", tt.target, got.OptionValue())
			}
			continue
		}
		if got == nil {
			t.Errorf("MatchOption(%q): want %q, got no match", tt.target, tt.want)
			continue
		}
		if got.OptionValue() != tt.want {
			t.Errorf("MatchOption(%q): want %q, got %q", tt.target, tt.want, got.OptionValue())
		}
	}
}

func TestSetSelectValueFiresOneChange(t *testing.T) {
	sel := parseSelect(t)
	var events []string
	sel.Document().On(sel, dom.EventChange, func(e dom.Event) { events = append(events, e.Type) })
	sel.Document().On(sel, dom.EventInput, func(e dom.Event) { events = append(events, e.Type) })

	if !SetSelectValue(sel, "Gold") {
		t.Fatalf("want a match for Gold")
	}
	if got := sel.Value(); got != "gold" {
		t.Fatalf("want gold selected, got %q", got)
	}
	if len(events) != 1 || events[0] != dom.EventChange {
		t.Fatalf("want a single change event, got %v", events)
	}

	if SetSelectValue(sel, "Included") {
		t.Fatalf("want no match for Included")
	}
	if got := sel.Value(); got != "gold" {
		t.Fatalf("a failed match must not change the selection, got %q", got)
	}
	if len(events) != 1 {
		t.Fatalf("a failed match must not fire events, got %v", events)
	}
}
