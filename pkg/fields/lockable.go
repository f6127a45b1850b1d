package fields

import "github.com/sw33tLie/estform/pkg/dom"

// Lockable blocks and restores user interaction with a field.
type Lockable interface {
	Lock()
	Unlock()
	Locked() bool
}

const (
	lockedClass         = "is-locked"
	widgetDisabledClass = "select2-container--disabled"
)

// newLockable picks the lock variant for a binding. Selects enhanced by a
// widget get widgetLock because the widget handles its own clicks and
// ignores attributes on the hidden native control.
func newLockable(b *Binding) Lockable {
	if b.Select != nil && enhanced(b.Select) {
		return &widgetLock{wrapper: b.Wrapper, control: b.Select, container: widgetContainer(b.Select)}
	}
	return &plainLock{wrapper: b.Wrapper, control: b.Control()}
}

func enhanced(sel *dom.Element) bool {
	return sel.HasClass("select2-hidden-accessible") || sel.HasAttr("data-enhanced")
}

func widgetContainer(sel *dom.Element) *dom.Element {
	if s := sel.Siblings(".select2-container"); len(s) > 0 {
		return s[0]
	}
	if p := sel.Parent(); p != nil {
		return p.First(".select2-container")
	}
	return nil
}

type plainLock struct {
	wrapper *dom.Element
	control *dom.Element
}

func (l *plainLock) Lock() {
	l.wrapper.AddClass(lockedClass)
	l.wrapper.SetStyle("opacity", "0.6")
	l.wrapper.SetStyle("pointer-events", "none")
	if l.control != nil {
		l.control.SetAttr("aria-disabled", "true")
		l.control.SetAttr("tabindex", "-1")
	}
}

func (l *plainLock) Unlock() {
	l.wrapper.RemoveClass(lockedClass)
	l.wrapper.RemoveStyle("opacity")
	l.wrapper.RemoveStyle("pointer-events")
	if l.control != nil {
		l.control.RemoveAttr("aria-disabled")
		l.control.RemoveAttr("tabindex")
	}
}

func (l *plainLock) Locked() bool { return l.wrapper.HasClass(lockedClass) }

type widgetLock struct {
	wrapper   *dom.Element
	control   *dom.Element
	container *dom.Element
}

func (l *widgetLock) Lock() {
	l.wrapper.AddClass(lockedClass)
	l.control.SetAttr("aria-disabled", "true")
	l.control.SetAttr("data-widget-locked", "true")
	if l.container != nil {
		l.container.AddClass(widgetDisabledClass)
		l.container.SetAttr("aria-disabled", "true")
		l.container.SetStyle("pointer-events", "none")
	}
}

func (l *widgetLock) Unlock() {
	l.wrapper.RemoveClass(lockedClass)
	l.control.RemoveAttr("aria-disabled")
	l.control.RemoveAttr("data-widget-locked")
	if l.container != nil {
		l.container.RemoveClass(widgetDisabledClass)
		l.container.RemoveAttr("aria-disabled")
		l.container.RemoveStyle("pointer-events")
	}
}

func (l *widgetLock) Locked() bool { return l.wrapper.HasClass(lockedClass) }
