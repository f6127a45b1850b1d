package form

import (
	"errors"

	"github.com/sw33tLie/estform/pkg/fields"
)

// Mode names.
const (
	ModeCodeLookup = "Code Lookup"
	ModeNameLookup = "Name Lookup"
)

// ErrUnknownMode is returned by SetMode for a name that is not configured.
var ErrUnknownMode = errors.New("unknown mode")

// Mode is a named visibility and lock configuration.
type Mode struct {
	Name   string
	Hidden []fields.Key
	Locked []fields.Key
}

func (m Mode) hides(k fields.Key) bool { return contains(m.Hidden, k) }

func (m Mode) locks(k fields.Key) bool { return contains(m.Locked, k) }

func contains(keys []fields.Key, k fields.Key) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}

var selectKeys = []fields.Key{
	fields.EstablishmentType,
	fields.PartnerStatus,
	fields.AwardLevel,
	fields.DutiesAndTaxes,
}

// DefaultModes returns the code and name lookup modes. In both, the
// select-backed fields are only ever filled from a resolved record.
func DefaultModes() []Mode {
	return []Mode{
		{
			Name:   ModeCodeLookup,
			Locked: append([]fields.Key{fields.OfficialEstablishmentName}, selectKeys...),
		},
		{
			Name:   ModeNameLookup,
			Hidden: []fields.Key{fields.RedemptionCode},
			Locked: append([]fields.Key(nil), selectKeys...),
		},
	}
}

// applyMode re-derives visibility and lock state for every binding. Both
// directions are written so fields hidden by a previous mode reappear.
func (c *Controller) applyMode() {
	for _, b := range c.reg.Bindings() {
		b.Wrapper.SetHidden(c.mode.hides(b.Key))
		if c.mode.locks(b.Key) {
			b.Lock.Lock()
		} else {
			b.Lock.Unlock()
		}
	}
}
