package dom

import "strings"

// Value returns the current value of a form control: the value attribute of
// an input, the text of a textarea, or the value of the selected option of a
// select. Other elements report their text.
func (e *Element) Value() string {
	switch e.Tag() {
	case "input":
		return e.AttrOr("value", "")
	case "textarea":
		return e.Text()
	case "select":
		if opt := e.SelectedOption(); opt != nil {
			return opt.OptionValue()
		}
		return ""
	case "option":
		return e.OptionValue()
	}
	return e.Text()
}

// SetValue writes a control value. For a select, the option whose value
// equals v is selected; when none does, the selection is cleared.
func (e *Element) SetValue(v string) {
	switch e.Tag() {
	case "input":
		e.SetAttr("value", v)
	case "textarea":
		e.SetText(v)
	case "select":
		for _, opt := range e.Options() {
			if opt.OptionValue() == v {
				e.SelectOption(opt)
				return
			}
		}
		e.ClearSelection()
	default:
		e.SetText(v)
	}
}

// Options returns the option elements of a select in document order.
func (e *Element) Options() []*Element {
	return e.Find("option")
}

// OptionValue is the value attribute of an option, or its trimmed text.
func (e *Element) OptionValue() string {
	if v, ok := e.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(e.Text())
}

// SelectedOption returns the selected option, falling back to the first
// option the way a browser renders a single select.
func (e *Element) SelectedOption() *Element {
	opts := e.Options()
	for _, opt := range opts {
		if opt.HasAttr("selected") {
			return opt
		}
	}
	if len(opts) > 0 {
		return opts[0]
	}
	return nil
}

// SelectOption marks opt as the only selected option.
func (e *Element) SelectOption(opt *Element) {
	for _, o := range e.Options() {
		o.ToggleAttr("selected", o.Is(opt))
	}
}

// ClearSelection removes the selected flag from every option.
func (e *Element) ClearSelection() {
	for _, o := range e.Options() {
		o.RemoveAttr("selected")
	}
}
