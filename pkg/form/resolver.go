package form

import (
	"fmt"

	"github.com/sw33tLie/estform/pkg/fields"
	"github.com/sw33tLie/estform/pkg/records"
)

// Mismatch is a record value no option of its select could take.
type Mismatch struct {
	Key   fields.Key
	Label string
	Value string
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("this product does not have '%s' for '%s'", m.Value, m.Label)
}

var selectFields = []struct {
	key   fields.Key
	field string
}{
	{fields.EstablishmentType, records.FieldEstablishmentType},
	{fields.PartnerStatus, records.FieldPartnerStatus},
	{fields.AwardLevel, records.FieldAwardLevel},
	{fields.DutiesAndTaxes, records.FieldDutiesAndTaxes},
}

// resolve writes rec into the form: the name goes to the official and custom
// name fields, each non-empty attribute to its select. It touches the
// document only.
func (c *Controller) resolve(rec records.Record) []Mismatch {
	name := rec.Name()
	for _, k := range []fields.Key{fields.OfficialEstablishmentName, fields.CustomEstablishmentName} {
		if b := c.reg.Binding(k); b != nil {
			b.SetValue(name)
			clearMessage(b)
		}
	}

	var mismatches []Mismatch
	for _, sf := range selectFields {
		value := rec.Get(sf.field)
		if value == "" {
			continue
		}
		b := c.reg.Binding(sf.key)
		if b == nil || b.Select == nil {
			continue
		}
		if SetSelectValue(b.Select, value) {
			clearMessage(b)
			continue
		}
		m := Mismatch{Key: sf.key, Label: b.LabelText, Value: value}
		showMessage(b, messageError, m.Error())
		mismatches = append(mismatches, m)
	}
	return mismatches
}
