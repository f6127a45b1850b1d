package form

import (
	"github.com/sw33tLie/estform/pkg/autocomplete"
	"github.com/sw33tLie/estform/pkg/fields"
)

// FieldState describes one bound field.
type FieldState struct {
	Key     fields.Key `json:"key"`
	Label   string     `json:"label"`
	Value   string     `json:"value"`
	Hidden  bool       `json:"hidden"`
	Locked  bool       `json:"locked"`
	Message string     `json:"message,omitempty"`
}

// State is a snapshot of the controller.
type State struct {
	ID            string              `json:"id"`
	Mode          string              `json:"mode"`
	SubmitEnabled bool                `json:"submitEnabled"`
	Selection     Selection           `json:"selection"`
	Fields        []FieldState        `json:"fields"`
	Suggestions   []autocomplete.Item `json:"suggestions"`
}

// Snapshot returns the current state. Fields are in document order.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	st := State{
		ID:            c.ID,
		Mode:          c.mode.Name,
		SubmitEnabled: c.submitEnabled(),
		Selection:     c.last,
	}
	for _, b := range c.reg.Bindings() {
		st.Fields = append(st.Fields, fieldState(b))
	}
	w := c.widget
	c.mu.Unlock()

	if w != nil {
		st.Suggestions = w.Suggestions()
	}
	return st
}

// Field returns the state of the field bound to k.
func (c *Controller) Field(k fields.Key) (FieldState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.reg.Binding(k)
	if b == nil {
		return FieldState{}, false
	}
	return fieldState(b), true
}

// Bindings returns the current field bindings in document order.
func (c *Controller) Bindings() []*fields.Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.Bindings()
}

func fieldState(b *fields.Binding) FieldState {
	value := b.Value()
	if b.Select != nil && !hasSelected(b) {
		value = ""
	}
	return FieldState{
		Key:     b.Key,
		Label:   b.LabelText,
		Value:   value,
		Hidden:  b.Wrapper.Hidden(),
		Locked:  b.Lock.Locked(),
		Message: messageText(b),
	}
}

func hasSelected(b *fields.Binding) bool {
	for _, o := range b.Select.Options() {
		if o.HasAttr("selected") {
			return true
		}
	}
	return false
}
