// Package autocomplete is a headless suggestion widget bound to a text input.
// It asks a source for suggestions after the user stops typing and reports the
// item the user picks.
package autocomplete

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sw33tLie/estform/internal/debounce"
	"github.com/sw33tLie/estform/pkg/dom"
	"github.com/sw33tLie/estform/pkg/records"
)

// DefaultDebounce is the quiet period before the source is asked.
const DefaultDebounce = 250 * time.Millisecond

// ErrNoSuggestion is returned by Select for an index outside the current list.
var ErrNoSuggestion = errors.New("no such suggestion")

// Item is one suggestion. Data travels back unchanged to OnSelectItem.
type Item struct {
	Label string         `json:"label"`
	Value string         `json:"value"`
	Data  records.Record `json:"data"`
}

// Config wires the widget to its host.
type Config struct {
	// Source is called with the query after the debounce. It must call
	// deliver at most once; it may do so from any goroutine, or not at all
	// when the query turned out stale.
	Source func(query string, deliver func([]Item))
	// OnSelectItem receives the picked item.
	OnSelectItem func(Item)
	Debounce     time.Duration
	// MinLength is the shortest query sent to Source.
	MinLength int
}

type Widget struct {
	input *dom.Element
	cfg   Config
	deb   *debounce.Debouncer

	mu    sync.Mutex
	gen   uint64
	items []Item
}

// New binds a widget to input. A negative Debounce means no delay.
func New(input *dom.Element, cfg Config) *Widget {
	delay := cfg.Debounce
	if delay == 0 {
		delay = DefaultDebounce
	}
	if delay < 0 {
		delay = 0
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = 1
	}
	return &Widget{input: input, cfg: cfg, deb: debounce.New(delay)}
}

// Input returns the bound element.
func (w *Widget) Input() *dom.Element { return w.input }

// Type reports the input's new text. The source runs once the user pauses.
func (w *Widget) Type(text string) {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	w.mu.Unlock()

	query := strings.TrimSpace(text)
	if len([]rune(query)) < w.cfg.MinLength {
		w.deb.Cancel("source")
		w.setItems(gen, nil)
		return
	}
	w.deb.Do("source", func() {
		if w.cfg.Source == nil {
			return
		}
		w.cfg.Source(query, func(items []Item) { w.setItems(gen, items) })
	})
}

func (w *Widget) setItems(gen uint64, items []Item) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return
	}
	w.items = items
}

// Suggestions returns the items currently offered.
func (w *Widget) Suggestions() []Item {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Item, len(w.items))
	copy(out, w.items)
	return out
}

// Select picks suggestion i, closes the list and calls OnSelectItem.
func (w *Widget) Select(i int) error {
	w.mu.Lock()
	if i < 0 || i >= len(w.items) {
		w.mu.Unlock()
		return ErrNoSuggestion
	}
	item := w.items[i]
	w.items = nil
	w.gen++
	w.mu.Unlock()

	w.deb.Cancel("source")
	if w.cfg.OnSelectItem != nil {
		w.cfg.OnSelectItem(item)
	}
	return nil
}

// Close drops pending work and suggestions.
func (w *Widget) Close() {
	w.deb.CancelAll()
	w.mu.Lock()
	w.gen++
	w.items = nil
	w.mu.Unlock()
}

// Wait blocks until no source call is pending or running.
func (w *Widget) Wait() { w.deb.Wait() }
