package autocomplete

import (
	"testing"
	"time"

	"github.com/sw33tLie/estform/pkg/dom"
	"github.com/sw33tLie/estform/pkg/records"
)

func input(t *testing.T) *dom.Element {
	t.Helper()
	d, err := dom.ParseString(`<input id="n">`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d.First("#n")
}

func TestTypeDebouncesAndSelects(t *testing.T) {
	var queries []string
	var picked Item
	w := New(input(t), Config{
		Debounce: 20 * time.Millisecond,
		Source: func(q string, deliver func([]Item)) {
			queries = append(queries, q)
			deliver([]Item{{Label: "Aman Tokyo", Value: "Aman Tokyo", Data: records.Record{ID: "rec1"}}})
		},
		OnSelectItem: func(it Item) { picked = it },
	})

	w.Type("A")
	w.Type("Am")
	w.Type("Aman ")
	w.Wait()

	if len(queries) != 1 || queries[0] != "Aman" {
		t.Fatalf("want a single query for Aman, got %v", queries)
	}
	if got := w.Suggestions(); len(got) != 1 {
		t.Fatalf("want 1 suggestion, got %d", len(got))
	}
	if err := w.Select(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if picked.Data.ID != "rec1" {
		t.Fatalf("selection payload lost: %+v", picked)
	}
	if len(w.Suggestions()) != 0 {
		t.Fatalf("list should close after a pick")
	}
	if err := w.Select(0); err != ErrNoSuggestion {
		t.Fatalf("want ErrNoSuggestion, got %v", err)
	}
}

func TestStaleDeliveryIgnored(t *testing.T) {
	var deliverFirst func([]Item)
	w := New(input(t), Config{
		Debounce: -1,
		Source: func(q string, deliver func([]Item)) {
			if q == "Am" {
				deliverFirst = deliver
				return
			}
			deliver([]Item{{Label: q}})
		},
	})

	w.Type("Am")
	w.Wait()
	w.Type("Aman")
	w.Wait()
	deliverFirst([]Item{{Label: "stale"}})

	got := w.Suggestions()
	if len(got) != 1 || got[0].Label != "Aman" {
		t.Fatalf("stale delivery replaced fresh suggestions: %+v", got)
	}
}

func TestMinLength(t *testing.T) {
	called := false
	w := New(input(t), Config{
		Debounce:  -1,
		MinLength: 3,
		Source:    func(string, func([]Item)) { called = true },
	})
	w.Type("Am")
	w.Wait()
	if called {
		t.Fatalf("source called below min length")
	}
}
