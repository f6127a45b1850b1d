// Package lookupcache memoizes record-source query results in a fixed-size
// least-recently-used store. Entries never expire; they are only evicted when
// the cache is full.
package lookupcache

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sw33tLie/estform/pkg/records"
)

// DefaultCapacity is the number of entries kept when no capacity is given.
const DefaultCapacity = 50

// Key identifies a query: the queried field plus the normalized text.
type Key struct {
	Field string
	Query string
}

// NewKey normalizes text the way the gateway does before it looks anything up.
func NewKey(field, text string) Key {
	return Key{Field: field, Query: strings.ToLower(strings.TrimSpace(text))}
}

// Cache is safe for concurrent use. Both Get hits and Put refresh recency.
type Cache struct {
	lru *lru.Cache[Key, []records.Record]
}

// New returns a cache holding at most capacity entries. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[Key, []records.Record](capacity)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Cache{lru: c}
}

func (c *Cache) Get(k Key) ([]records.Record, bool) {
	return c.lru.Get(k)
}

// Put stores v under k, evicting the least recently used entry on overflow.
func (c *Cache) Put(k Key, v []records.Record) {
	c.lru.Add(k, v)
}

func (c *Cache) Len() int { return c.lru.Len() }

// Keys returns the cached keys from least to most recently used.
func (c *Cache) Keys() []Key { return c.lru.Keys() }

func (c *Cache) Purge() { c.lru.Purge() }
