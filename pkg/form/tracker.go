package form

import (
	"strings"

	"github.com/sw33tLie/estform/pkg/fields"
	"github.com/sw33tLie/estform/pkg/records"
)

// Selection is the record the user last confirmed, by picking a suggestion
// or resolving a code. The zero value means nothing is confirmed.
type Selection struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// LastSelection returns the confirmed selection.
func (c *Controller) LastSelection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// SubmitEnabled reports whether the form may be submitted.
func (c *Controller) SubmitEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitEnabled()
}

func (c *Controller) submitEnabled() bool { return c.last.ID != "" }

func (c *Controller) updateSubmit() {
	s := c.reg.Submit()
	if s == nil {
		return
	}
	enabled := c.submitEnabled()
	s.ToggleAttr("disabled", !enabled)
	if enabled {
		s.RemoveAttr("aria-disabled")
	} else {
		s.SetAttr("aria-disabled", "true")
	}
}

// confirm applies rec to the form. The selection is recorded only when every
// select took its value; a mismatch ends in a notice and a reset instead.
func (c *Controller) confirm(rec records.Record) {
	if mismatches := c.resolve(rec); len(mismatches) > 0 {
		c.last = Selection{}
		c.updateSubmit()
		c.reject(mismatches)
		return
	}
	c.last = Selection{ID: rec.ID, Name: rec.Name()}
	c.updateSubmit()
}

// checkSelection compares the name field against the confirmed selection
// after the user edited it.
func (c *Controller) checkSelection(edited fields.Key) {
	b := c.reg.Binding(fields.OfficialEstablishmentName)
	if b == nil {
		return
	}
	current := b.Value()
	if strings.TrimSpace(current) == "" || (c.last.Name != "" && current != c.last.Name) {
		if c.last.ID != "" {
			c.log.Debugf("[%s] name changed from %q, dropping selection %s", c.ID, c.last.Name, c.last.ID)
		}
		c.invalidate(edited)
		return
	}
	c.updateSubmit()
}

// invalidate drops the selection and clears every field except the one being
// edited and the code field.
func (c *Controller) invalidate(edited fields.Key) {
	c.last = Selection{}
	for _, b := range c.reg.Bindings() {
		if b.Key == edited || b.Key == fields.RedemptionCode {
			continue
		}
		clearField(b)
	}
	c.updateSubmit()
}
