package lookupcache

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/sw33tLie/estform/pkg/records"
)

func rec(id string) []records.Record {
	return []records.Record{{ID: id}}
}

func TestNewKeyNormalizes(t *testing.T) {
	if NewKey("Name", "  AMAN ") != NewKey("Name", "aman") {
		t.Fatalf("keys should normalize case and whitespace")
	}
	if NewKey("Name", "aman") == NewKey("Code", "aman") {
		t.Fatalf("keys must include the field")
	}
}

func TestRetainsMostRecentlyTouched(t *testing.T) {
	for _, capacity := range []int{1, 2, 5, 50} {
		c := New(capacity)
		total := capacity + 7
		for i := 0; i < total; i++ {
			c.Put(NewKey("f", fmt.Sprint(i)), rec(fmt.Sprint(i)))
		}
		if c.Len() != capacity {
			t.Fatalf("capacity %d: want len %d, got %d", capacity, capacity, c.Len())
		}
		var want []Key
		for i := total - capacity; i < total; i++ {
			want = append(want, NewKey("f", fmt.Sprint(i)))
		}
		if got := c.Keys(); !reflect.DeepEqual(got, want) {
			t.Fatalf("capacity %d: want keys %v, got %v", capacity, want, got)
		}
	}
}

func TestGetRefreshesRecency(t *testing.T) {
	c := New(3)
	a, b, d, e := NewKey("f", "a"), NewKey("f", "b"), NewKey("f", "d"), NewKey("f", "e")
	c.Put(a, rec("a"))
	c.Put(b, rec("b"))
	c.Put(d, rec("d"))

	if _, ok := c.Get(a); !ok {
		t.Fatalf("expected hit for a")
	}
	c.Put(e, rec("e"))

	if _, ok := c.Get(b); ok {
		t.Fatalf("b was least recently used and should be evicted")
	}
	for _, k := range []Key{a, d, e} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %v to be retained", k)
		}
	}
}

func TestPutRefreshesRecency(t *testing.T) {
	c := New(2)
	a, b, d := NewKey("f", "a"), NewKey("f", "b"), NewKey("f", "d")
	c.Put(a, rec("a1"))
	c.Put(b, rec("b"))
	c.Put(a, rec("a2"))
	c.Put(d, rec("d"))

	got, ok := c.Get(a)
	if !ok || got[0].ID != "a2" {
		t.Fatalf("want refreshed a2, got %v (hit %v)", got, ok)
	}
	if _, ok := c.Get(b); ok {
		t.Fatalf("b should be evicted")
	}
}

func TestDefaultCapacity(t *testing.T) {
	c := New(0)
	for i := 0; i < DefaultCapacity+1; i++ {
		c.Put(NewKey("f", fmt.Sprint(i)), nil)
	}
	if c.Len() != DefaultCapacity {
		t.Fatalf("want %d, got %d", DefaultCapacity, c.Len())
	}
}
