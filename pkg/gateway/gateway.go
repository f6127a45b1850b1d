// Package gateway issues record-source queries with at most one outstanding
// request per channel. Starting a request on a channel supersedes the
// previous one: its context is cancelled and its result, should it still
// arrive, is reported as ErrSuperseded instead of being returned.
package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sw33tLie/estform/pkg/lookupcache"
	"github.com/sw33tLie/estform/pkg/records"
)

// Channel names a class of lookups subject to supersession.
type Channel string

const (
	NameSearch Channel = "nameSearch"
	CodeLookup Channel = "codeLookup"
)

// ErrSuperseded reports that a newer request on the same channel replaced
// this one. Callers should drop it silently.
var ErrSuperseded = errors.New("request superseded")

// Logger abstracts logging so callers can use logrus or anything else with
// the same methods.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Request is the handle of one issued query.
type Request struct {
	Channel Channel
	seq     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	g       *Gateway
}

// Current reports whether r is still the latest request on its channel.
func (r *Request) Current() bool {
	if r == nil {
		return false
	}
	r.g.mu.Lock()
	defer r.g.mu.Unlock()
	return r.g.latest[r.Channel] == r.seq
}

type Gateway struct {
	source records.Source
	cache  *lookupcache.Cache
	log    Logger

	mu       sync.Mutex
	seq      uint64
	latest   map[Channel]uint64
	inflight map[Channel]*Request
}

type Option func(*Gateway)

// WithCache replaces the default cache.
func WithCache(c *lookupcache.Cache) Option {
	return func(g *Gateway) { g.cache = c }
}

func WithLogger(l Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

func New(source records.Source, opts ...Option) *Gateway {
	g := &Gateway{
		source:   source,
		log:      nopLogger{},
		latest:   make(map[Channel]uint64),
		inflight: make(map[Channel]*Request),
	}
	for _, o := range opts {
		o(g)
	}
	if g.cache == nil {
		g.cache = lookupcache.New(lookupcache.DefaultCapacity)
	}
	return g
}

// Cache exposes the lookup cache.
func (g *Gateway) Cache() *lookupcache.Cache { return g.cache }

// Query runs q on channel ch. Empty text returns no records without touching
// the cache or the source. A cache hit returns without a network call.
// Otherwise the source is queried and a successful result is cached.
// The returned Request is non-nil even on error.
func (g *Gateway) Query(ctx context.Context, ch Channel, q records.Query) (*Request, []records.Record, error) {
	req := g.begin(ctx, ch)
	defer g.finish(req)

	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return req, nil, nil
	}

	key := lookupcache.NewKey(q.Field, q.Text)
	if recs, ok := g.cache.Get(key); ok {
		g.log.Debugf("[%s] cache hit for %q", ch, q.Text)
		return req, recs, nil
	}
	g.log.Debugf("[%s] querying %s %s %q", ch, q.Field, q.Match, q.Text)

	recs, err := g.source.Search(req.ctx, q)
	if err == nil {
		g.cache.Put(key, recs)
	}
	if !req.Current() || req.ctx.Err() != nil {
		g.log.Debugf("[%s] dropping superseded result for %q", ch, q.Text)
		return req, nil, ErrSuperseded
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return req, nil, ErrSuperseded
		}
		g.log.Warnf("[%s] lookup for %q failed: %v", ch, q.Text, err)
		return req, nil, err
	}
	return req, recs, nil
}

// Cancel supersedes whatever is outstanding on ch without issuing anything.
func (g *Gateway) Cancel(ch Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.latest[ch] = g.seq
	if prev := g.inflight[ch]; prev != nil {
		prev.cancel()
		delete(g.inflight, ch)
	}
}

func (g *Gateway) begin(parent context.Context, ch Channel) *Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev := g.inflight[ch]; prev != nil {
		g.log.Debugf("[%s] superseding request %d", ch, prev.seq)
		prev.cancel()
	}
	g.seq++
	ctx, cancel := context.WithCancel(parent)
	req := &Request{Channel: ch, seq: g.seq, ctx: ctx, cancel: cancel, g: g}
	g.latest[ch] = req.seq
	g.inflight[ch] = req
	return req
}

func (g *Gateway) finish(req *Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight[req.Channel] == req {
		delete(g.inflight, req.Channel)
	}
	req.cancel()
}
