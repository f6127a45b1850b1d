package form

import (
	"github.com/sw33tLie/estform/pkg/dom"
	"github.com/sw33tLie/estform/pkg/fields"
)

const (
	messageAttr  = "data-estform-message"
	messageClass = "estform-message"

	messageError = "error"
	messageInfo  = "info"
)

func messageElement(b *fields.Binding) *dom.Element {
	return b.Wrapper.First("[" + messageAttr + "]")
}

// showMessage renders text beneath the field, replacing any earlier message.
func showMessage(b *fields.Binding, kind, text string) {
	el := messageElement(b)
	if el == nil {
		el = b.Wrapper.AppendElement("div", "",
			dom.Attr("class", messageClass),
			dom.Attr(messageAttr, string(b.Key)),
			dom.Attr("role", "alert"),
		)
	}
	el.RemoveClass(messageClass+"--"+messageError, messageClass+"--"+messageInfo)
	el.AddClass(messageClass + "--" + kind)
	el.SetText(text)
}

func clearMessage(b *fields.Binding) {
	if el := messageElement(b); el != nil {
		el.Remove()
	}
}

// messageText returns the field's inline message, if any.
func messageText(b *fields.Binding) string {
	if el := messageElement(b); el != nil {
		return el.Text()
	}
	return ""
}

func setBusy(b *fields.Binding, busy bool) {
	if busy {
		b.Wrapper.SetAttr("aria-busy", "true")
		return
	}
	b.Wrapper.RemoveAttr("aria-busy")
}

// clearField empties the control and drops its message.
func clearField(b *fields.Binding) {
	if b.Select != nil {
		b.Select.ClearSelection()
	} else if b.Input != nil {
		b.Input.SetValue("")
	}
	clearMessage(b)
	setBusy(b, false)
}
