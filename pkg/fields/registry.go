package fields

import "github.com/sw33tLie/estform/pkg/dom"

// DefaultGroupSelector finds field groups by structural convention.
const DefaultGroupSelector = ".form-group, .field-group, [data-field-group]"

const (
	controlSelector = `input:not([type=hidden]):not([type=submit]):not([type=button]):not([type=checkbox]):not([type=radio]), textarea`
	submitSelector  = `button[type=submit], input[type=submit]`
)

// Binding ties a key to the elements of its field group. The wrapper is the
// unit of visibility and locking.
type Binding struct {
	Key       Key
	LabelText string
	Label     *dom.Element
	Wrapper   *dom.Element
	Input     *dom.Element
	Select    *dom.Element
	Lock      Lockable
}

// Control returns the primary editable control: the select when there is
// one, the input otherwise.
func (b *Binding) Control() *dom.Element {
	if b.Select != nil {
		return b.Select
	}
	return b.Input
}

// Value reads the primary control.
func (b *Binding) Value() string {
	if c := b.Control(); c != nil {
		return c.Value()
	}
	return ""
}

// SetValue writes the primary control.
func (b *Binding) SetValue(v string) {
	if c := b.Control(); c != nil {
		c.SetValue(v)
	}
}

// IsSelect reports whether the binding is backed by a select.
func (b *Binding) IsSelect() bool { return b.Select != nil }

// Registry holds the bindings produced by the last scan.
type Registry struct {
	groupSelector string
	matchers      []Matcher

	bindings map[Key]*Binding
	order    []*Binding
	submit   *dom.Element
}

// Option configures a Registry.
type Option func(*Registry)

// WithGroupSelector overrides the selector used to find field groups.
func WithGroupSelector(sel string) Option {
	return func(r *Registry) {
		if sel != "" {
			r.groupSelector = sel
		}
	}
}

// WithMatchers replaces the resolution strategy.
func WithMatchers(m ...Matcher) Option {
	return func(r *Registry) { r.matchers = m }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		groupSelector: DefaultGroupSelector,
		matchers:      DefaultMatchers(),
		bindings:      make(map[Key]*Binding),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Scan discards the previous bindings and rebuilds them from the field
// groups under container. Groups that resolve to no key are skipped; when
// two groups resolve to the same key the first one wins.
func (r *Registry) Scan(container *dom.Element) map[Key]*Binding {
	r.bindings = make(map[Key]*Binding)
	r.order = nil
	r.submit = nil
	if container == nil {
		return r.Map()
	}

	for _, group := range container.Find(r.groupSelector) {
		b := bindGroup(group)
		key, ok := r.resolve(Candidate{Label: b.LabelText, Group: group, Control: b.Control()})
		if !ok {
			continue
		}
		if _, dup := r.bindings[key]; dup {
			continue
		}
		b.Key = key
		b.Lock = newLockable(b)
		r.bindings[key] = b
		r.order = append(r.order, b)
	}
	r.submit = container.First(submitSelector)
	return r.Map()
}

func (r *Registry) resolve(c Candidate) (Key, bool) {
	for _, m := range r.matchers {
		if k, ok := m.Match(c); ok {
			return k, true
		}
	}
	return "", false
}

func bindGroup(group *dom.Element) *Binding {
	b := &Binding{Wrapper: group}
	b.Select = group.First("select")
	b.Input = group.First(controlSelector)

	if l := group.First("label, legend"); l != nil {
		b.Label = l
		b.LabelText = CleanLabel(l.Text())
	}
	if b.LabelText == "" {
		if c := b.Control(); c != nil {
			b.LabelText = CleanLabel(c.AttrOr("aria-label", ""))
			if b.LabelText == "" {
				b.LabelText = CleanLabel(c.AttrOr("placeholder", ""))
			}
		}
	}
	return b
}

// Binding returns the binding for k, or nil.
func (r *Registry) Binding(k Key) *Binding {
	return r.bindings[k]
}

// Bindings returns the bindings in document order.
func (r *Registry) Bindings() []*Binding {
	out := make([]*Binding, len(r.order))
	copy(out, r.order)
	return out
}

// Map returns a copy of the key to binding mapping.
func (r *Registry) Map() map[Key]*Binding {
	out := make(map[Key]*Binding, len(r.bindings))
	for k, b := range r.bindings {
		out[k] = b
	}
	return out
}

// Submit returns the submit control found by the last scan, or nil.
func (r *Registry) Submit() *dom.Element { return r.submit }
