// Package form drives an establishment form: it maps field groups to keys,
// switches between code and name lookup, resolves records into field values
// and keeps submit gated on a confirmed selection.
package form

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sw33tLie/estform/internal/debounce"
	"github.com/sw33tLie/estform/pkg/autocomplete"
	"github.com/sw33tLie/estform/pkg/dom"
	"github.com/sw33tLie/estform/pkg/fields"
	"github.com/sw33tLie/estform/pkg/gateway"
	"github.com/sw33tLie/estform/pkg/lookupcache"
	"github.com/sw33tLie/estform/pkg/records"
)

const (
	DefaultDebounce       = 300 * time.Millisecond
	DefaultNoticeCooldown = 1500 * time.Millisecond
	DefaultLimit          = 10
	CodeLength            = 8
)

// ErrNoSuggestion is returned by Pick for an index outside the current list.
var ErrNoSuggestion = autocomplete.ErrNoSuggestion

// Logger is satisfied by *logrus.Logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// Options configures a Controller. Either Gateway or Source must be set.
type Options struct {
	Gateway *gateway.Gateway
	Source  records.Source
	// CacheSize is used when the controller builds its own gateway.
	CacheSize int

	GroupSelector string
	Matchers      []fields.Matcher

	Modes []Mode
	Mode  string

	// Debounce applies to code input, name edits and suggestions. Negative
	// means no delay.
	Debounce       time.Duration
	NoticeCooldown time.Duration
	// Limit caps the number of name suggestions.
	Limit int

	Notifier Notifier
	Logger   Logger
	// OnChange runs after every asynchronous mutation of the document,
	// without the controller lock held.
	OnChange func()
	Now      func() time.Time
}

// Controller owns the state of one form instance. All methods are safe for
// concurrent use.
type Controller struct {
	ID string

	doc       *dom.Document
	container *dom.Element
	gw        *gateway.Gateway
	log       Logger
	notifier  Notifier
	onChange  func()
	now       func() time.Time
	cooldown  time.Duration
	limit     int
	delay     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	deb    *debounce.Debouncer

	mu          sync.Mutex
	reg         *fields.Registry
	modes       []Mode
	mode        Mode
	last        Selection
	widget      *autocomplete.Widget
	noticeUntil time.Time
}

// New binds a controller to the form inside container and performs the
// initial scan.
func New(doc *dom.Document, container *dom.Element, opts Options) (*Controller, error) {
	if container == nil {
		container = doc.Root()
	}
	gw := opts.Gateway
	if gw == nil {
		if opts.Source == nil {
			return nil, fmt.Errorf("form: no record source")
		}
		size := opts.CacheSize
		if size <= 0 {
			size = lookupcache.DefaultCapacity
		}
		var gopts []gateway.Option
		gopts = append(gopts, gateway.WithCache(lookupcache.New(size)))
		if opts.Logger != nil {
			gopts = append(gopts, gateway.WithLogger(opts.Logger))
		}
		gw = gateway.New(opts.Source, gopts...)
	}

	var ropts []fields.Option
	ropts = append(ropts, fields.WithGroupSelector(opts.GroupSelector))
	if len(opts.Matchers) > 0 {
		ropts = append(ropts, fields.WithMatchers(opts.Matchers...))
	}

	c := &Controller{
		ID:        uuid.NewString(),
		doc:       doc,
		container: container,
		gw:        gw,
		log:       opts.Logger,
		notifier:  opts.Notifier,
		onChange:  opts.OnChange,
		now:       opts.Now,
		cooldown:  opts.NoticeCooldown,
		limit:     opts.Limit,
		delay:     opts.Debounce,
		reg:       fields.NewRegistry(ropts...),
		modes:     opts.Modes,
	}
	if c.log == nil {
		c.log = nopLogger{}
	}
	if c.notifier == nil {
		c.notifier = NotifierFunc(func(string) {})
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.cooldown <= 0 {
		c.cooldown = DefaultNoticeCooldown
	}
	if c.limit <= 0 {
		c.limit = DefaultLimit
	}
	switch {
	case c.delay == 0:
		c.delay = DefaultDebounce
	case c.delay < 0:
		c.delay = 0
	}
	if len(c.modes) == 0 {
		c.modes = DefaultModes()
	}
	name := opts.Mode
	if name == "" {
		name = ModeNameLookup
	}
	m, ok := c.findMode(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	c.mode = m
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.deb = debounce.New(c.delay)

	c.mu.Lock()
	c.scan()
	c.mu.Unlock()
	return c, nil
}

func (c *Controller) findMode(name string) (Mode, bool) {
	for _, m := range c.modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}

// Rescan rebuilds the field bindings and re-applies the active mode. Call it
// whenever the form's content changes.
func (c *Controller) Rescan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scan()
}

func (c *Controller) scan() {
	bindings := c.reg.Scan(c.container)
	c.log.Debugf("[%s] scanned %d fields", c.ID, len(bindings))
	c.applyMode()
	c.updateSubmit()
	c.bindWidget()
}

// bindWidget attaches the suggestion widget to the official name input,
// replacing it when the input element changed.
func (c *Controller) bindWidget() {
	b := c.reg.Binding(fields.OfficialEstablishmentName)
	if b == nil || b.Input == nil {
		if c.widget != nil {
			c.widget.Close()
			c.widget = nil
		}
		return
	}
	if c.widget != nil && c.widget.Input().Is(b.Input) {
		return
	}
	if c.widget != nil {
		c.widget.Close()
	}
	delay := c.delay
	if delay == 0 {
		delay = -1
	}
	c.widget = autocomplete.New(b.Input, autocomplete.Config{
		Source:       c.suggest,
		OnSelectItem: c.pick,
		Debounce:     delay,
	})
}

// Reset clears every field, drops the confirmed selection and pending
// lookups, and relocks the form for the active mode.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.deb.CancelAll()
	c.gw.Cancel(gateway.NameSearch)
	c.gw.Cancel(gateway.CodeLookup)
	if c.widget != nil {
		c.widget.Close()
	}
	for _, b := range c.reg.Bindings() {
		clearField(b)
	}
	c.last = Selection{}
	c.applyMode()
	c.updateSubmit()
	c.log.Debugf("[%s] form reset", c.ID)
}

// SetMode switches the active mode. Visibility and locks are re-derived in
// full, so setting the same mode twice is harmless.
func (c *Controller) SetMode(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.findMode(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	if m.Name != c.mode.Name {
		c.log.Debugf("[%s] mode %s -> %s", c.ID, c.mode.Name, m.Name)
	}
	c.mode = m
	c.applyMode()
	return nil
}

// Mode returns the name of the active mode.
func (c *Controller) Mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode.Name
}

// Modes lists the configured mode names.
func (c *Controller) Modes() []string {
	out := make([]string, 0, len(c.modes))
	for _, m := range c.modes {
		out = append(out, m.Name)
	}
	return out
}

// Gateway returns the query gateway used for lookups.
func (c *Controller) Gateway() *gateway.Gateway { return c.gw }

// Document returns the controlled document.
func (c *Controller) Document() *dom.Document { return c.doc }

// Render writes the current document.
func (c *Controller) Render(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Render(w)
}

// HTML returns the current document.
func (c *Controller) HTML() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.HTML()
}

// Wait blocks until no debounced handler or lookup is pending.
func (c *Controller) Wait() {
	c.deb.Wait()
	c.mu.Lock()
	w := c.widget
	c.mu.Unlock()
	if w != nil {
		w.Wait()
	}
	c.deb.Wait()
}

// Close stops pending work. The document stays readable.
func (c *Controller) Close() {
	c.mu.Lock()
	c.deb.CancelAll()
	if c.widget != nil {
		c.widget.Close()
	}
	c.mu.Unlock()
	c.gw.Cancel(gateway.NameSearch)
	c.gw.Cancel(gateway.CodeLookup)
	c.cancel()
	c.Wait()
}

func (c *Controller) emit() {
	if c.onChange != nil {
		c.onChange()
	}
}
