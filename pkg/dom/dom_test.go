package dom

import (
	"strings"
	"testing"
)

const page = `<html><body><form id="f">
<div class="form-group"><label>Name</label><input name="n" value="x"></div>
<div class="form-group"><label>Level</label>
<select name="lvl"><option value="">Pick</option><option value="g">Gold Tier</option><option>Silver</option></select></div>
<textarea>hello</textarea>
</form></body></html>`

func mustParse(t *testing.T) *Document {
	t.Helper()
	d, err := ParseString(page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestValues(t *testing.T) {
	d := mustParse(t)

	in := d.First("input")
	if got := in.Value(); got != "x" {
		t.Fatalf("input value: want x, got %q", got)
	}
	in.SetValue("Aman Tokyo")
	if got := in.Value(); got != "Aman Tokyo" {
		t.Fatalf("input value after set: got %q", got)
	}

	sel := d.First("select")
	if got := sel.Value(); got != "" {
		t.Fatalf("select default: want empty, got %q", got)
	}
	sel.SetValue("Silver")
	if got := sel.Value(); got != "Silver" {
		t.Fatalf("select by text fallback: got %q", got)
	}
	sel.SetValue("g")
	if got := sel.SelectedOption().Text(); got != "Gold Tier" {
		t.Fatalf("selected option: got %q", got)
	}
	selected := 0
	for _, o := range sel.Options() {
		if o.HasAttr("selected") {
			selected++
		}
	}
	if selected != 1 {
		t.Fatalf("want exactly one selected option, got %d", selected)
	}
	sel.SetValue("nope")
	if sel.Value() != "" {
		t.Fatalf("unknown value should clear the selection, got %q", sel.Value())
	}

	ta := d.First("textarea")
	ta.SetValue("bye")
	if ta.Value() != "bye" {
		t.Fatalf("textarea: got %q", ta.Value())
	}
}

func TestStyleAndHidden(t *testing.T) {
	d := mustParse(t)
	g := d.First(".form-group")

	g.SetStyle("opacity", "0.5")
	g.SetStyle("pointer-events", "none")
	g.SetStyle("opacity", "0.6")
	if got := g.AttrOr("style", ""); got != "opacity: 0.6; pointer-events: none" {
		t.Fatalf("style: got %q", got)
	}

	g.SetHidden(true)
	if !g.Hidden() || g.Style("display") != "none" {
		t.Fatalf("expected hidden group")
	}
	g.SetHidden(false)
	if g.Hidden() || g.Style("display") != "" {
		t.Fatalf("expected visible group")
	}
	g.RemoveStyle("opacity")
	g.RemoveStyle("pointer-events")
	if g.HasAttr("style") {
		t.Fatalf("empty style attribute should be removed")
	}
}

func TestStyleKeepsDelimitersInsideValues(t *testing.T) {
	d := mustParse(t)
	g := d.First(".form-group")
	g.SetAttr("style", `background: url(data:image/png;base64,iVBORw0KGgo=); color: red`)

	g.SetStyle("opacity", "0.5")
	if got := g.Style("background"); got != "url(data:image/png;base64,iVBORw0KGgo=)" {
		t.Fatalf("background: got %q", got)
	}
	if got := g.Style("color"); got != "red" {
		t.Fatalf("color: got %q", got)
	}
	g.RemoveStyle("color")
	if got := g.AttrOr("style", ""); got != "background: url(data:image/png;base64,iVBORw0KGgo=); opacity: 0.5" {
		t.Fatalf("style: got %q", got)
	}
}

func TestTraversalAndEvents(t *testing.T) {
	d := mustParse(t)
	in := d.First("input")

	group := in.Closest(".form-group")
	if group == nil || group.First("label").Text() != "Name" {
		t.Fatalf("closest group not found")
	}
	if !in.Closest("form").Is(d.First("#f")) {
		t.Fatalf("closest form mismatch")
	}

	var got []string
	d.On(in, EventChange, func(ev Event) { got = append(got, ev.Type) })
	d.Dispatch(in, EventChange)
	d.Dispatch(in, EventInput)
	if len(got) != 1 || got[0] != EventChange {
		t.Fatalf("events: got %v", got)
	}

	msg := group.AppendElement("div", "no <results>", Attr("class", "msg"))
	out, err := d.HTML()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `<div class="msg">no &lt;results&gt;</div>`) {
		t.Fatalf("rendered message missing: %s", out)
	}
	msg.Remove()
	if group.First(".msg") != nil {
		t.Fatalf("message should be removed")
	}
}
