package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sw33tLie/estform/pkg/autocomplete"
	"github.com/sw33tLie/estform/pkg/dom"
	"github.com/sw33tLie/estform/pkg/fields"
	"github.com/sw33tLie/estform/pkg/gateway"
	"github.com/sw33tLie/estform/pkg/records"
)

const (
	debounceCode = "code"
	debounceName = "name"
)

// Input writes text into the field bound to k as if the user typed it and
// runs the field's handlers.
func (c *Controller) Input(k fields.Key, text string) error {
	c.mu.Lock()
	b := c.reg.Binding(k)
	if b == nil {
		c.mu.Unlock()
		return fmt.Errorf("field %s is not bound", k)
	}
	if b.Lock.Locked() {
		c.mu.Unlock()
		return fmt.Errorf("field %s is locked", k)
	}
	b.SetValue(text)
	event := dom.EventInput
	if b.IsSelect() {
		event = dom.EventChange
	}
	c.doc.Dispatch(b.Control(), event)
	w := c.widget
	c.mu.Unlock()

	switch k {
	case fields.RedemptionCode:
		c.deb.Do(debounceCode, func() { c.lookupCode(text) })
	case fields.OfficialEstablishmentName:
		if w != nil {
			w.Type(text)
		}
		c.deb.Do(debounceName, func() {
			c.mu.Lock()
			c.checkSelection(fields.OfficialEstablishmentName)
			c.mu.Unlock()
			c.emit()
		})
	}
	return nil
}

// Blur reports that focus left the field bound to k.
func (c *Controller) Blur(k fields.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.reg.Binding(k)
	if b == nil {
		return fmt.Errorf("field %s is not bound", k)
	}
	c.doc.Dispatch(b.Control(), dom.EventBlur)
	if k == fields.OfficialEstablishmentName {
		c.deb.Cancel(debounceName)
		c.checkSelection(k)
	}
	return nil
}

// Suggestions returns the name suggestions currently offered.
func (c *Controller) Suggestions() []autocomplete.Item {
	c.mu.Lock()
	w := c.widget
	c.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Suggestions()
}

// Pick confirms suggestion i.
func (c *Controller) Pick(i int) error {
	c.mu.Lock()
	w := c.widget
	c.mu.Unlock()
	if w == nil {
		return ErrNoSuggestion
	}
	return w.Select(i)
}

func (c *Controller) lookupCode(text string) {
	defer c.emit()
	code := strings.TrimSpace(text)

	c.mu.Lock()
	b := c.reg.Binding(fields.RedemptionCode)
	if b == nil {
		c.mu.Unlock()
		return
	}
	if n := len([]rune(code)); n != CodeLength {
		c.gw.Cancel(gateway.CodeLookup)
		setBusy(b, false)
		if n == 0 {
			clearMessage(b)
		} else {
			showMessage(b, messageError, fmt.Sprintf("Partner codes are exactly %d characters.", CodeLength))
		}
		c.invalidate(fields.RedemptionCode)
		c.mu.Unlock()
		return
	}
	setBusy(b, true)
	c.mu.Unlock()

	req, recs, err := c.gw.Query(c.ctx, gateway.CodeLookup, records.Query{
		Field: records.FieldRedemptionCode,
		Text:  code,
		Match: records.Exact,
		Limit: 1,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if errors.Is(err, gateway.ErrSuperseded) || !req.Current() {
		return
	}
	setBusy(b, false)
	switch {
	case err != nil:
		showMessage(b, messageError, transportMessage(err))
		c.invalidate(fields.RedemptionCode)
	case len(recs) == 0:
		showMessage(b, messageInfo, noResultsMessage(code))
		c.invalidate(fields.RedemptionCode)
	default:
		clearMessage(b)
		c.log.Debugf("[%s] code %s resolved to %s", c.ID, code, recs[0].ID)
		c.confirm(recs[0])
	}
}

// suggest is the autocomplete source for the official name field.
func (c *Controller) suggest(query string, deliver func([]autocomplete.Item)) {
	defer c.emit()

	c.mu.Lock()
	b := c.reg.Binding(fields.OfficialEstablishmentName)
	if b != nil {
		setBusy(b, true)
	}
	c.mu.Unlock()

	req, recs, err := c.gw.Query(c.ctx, gateway.NameSearch, records.Query{
		Field: records.FieldOfficialName,
		Text:  query,
		Match: records.Contains,
		Limit: c.limit,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if errors.Is(err, gateway.ErrSuperseded) || !req.Current() {
		return
	}
	if b != nil {
		setBusy(b, false)
	}
	switch {
	case err != nil:
		if b != nil {
			showMessage(b, messageError, transportMessage(err))
		}
		deliver(nil)
	case len(recs) == 0:
		if b != nil {
			showMessage(b, messageInfo, noResultsMessage(query))
		}
		deliver(nil)
	default:
		if b != nil {
			clearMessage(b)
		}
		items := make([]autocomplete.Item, 0, len(recs))
		for _, r := range recs {
			items = append(items, autocomplete.Item{Label: suggestionLabel(r), Value: r.Name(), Data: r})
		}
		deliver(items)
	}
}

// pick handles a chosen suggestion.
func (c *Controller) pick(item autocomplete.Item) {
	defer c.emit()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deb.Cancel(debounceName)
	c.gw.Cancel(gateway.NameSearch)
	c.log.Debugf("[%s] picked %s (%s)", c.ID, item.Value, item.Data.ID)
	c.confirm(item.Data)
}

func suggestionLabel(r records.Record) string {
	name := r.Name()
	if t := r.Get(records.FieldEstablishmentType); t != "" {
		return name + " · " + t
	}
	return name
}

func noResultsMessage(q string) string {
	return fmt.Sprintf("No results for %q.", q)
}

func transportMessage(err error) string {
	var se *records.StatusError
	switch {
	case errors.Is(err, records.ErrUnavailable):
		return "You appear to be offline. Check your connection and try again."
	case errors.As(err, &se):
		return fmt.Sprintf("The partner directory returned an error (HTTP %d). Try again in a moment.", se.StatusCode)
	default:
		return "The lookup failed. Try again in a moment."
	}
}
