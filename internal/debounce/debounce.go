// Package debounce runs the last call of a burst after a quiet period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer keeps one pending timer per key. Scheduling a key again resets
// its timer; only the latest function runs.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	idle    *sync.Cond
	timers  map[string]*time.Timer
	pending int // scheduled or running calls
}

func New(delay time.Duration) *Debouncer {
	d := &Debouncer{delay: delay, timers: make(map[string]*time.Timer)}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Delay returns the configured quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Do schedules fn under key. With a zero delay fn still runs on its own
// goroutine so callers never block on it.
func (d *Debouncer) Do(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok && t.Stop() {
		d.pending--
	}
	d.pending++
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()

		defer d.done()
		fn()
	})
	d.timers[key] = t
}

// done releases one pending call. d.mu must not be held.
func (d *Debouncer) done() {
	d.mu.Lock()
	d.release()
	d.mu.Unlock()
}

// release must be called with d.mu held.
func (d *Debouncer) release() {
	d.pending--
	if d.pending == 0 {
		d.idle.Broadcast()
	}
}

// Cancel drops a pending call for key. A call already running is unaffected.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		if t.Stop() {
			d.release()
		}
		delete(d.timers, key)
	}
}

// CancelAll drops every pending call.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		if t.Stop() {
			d.release()
		}
		delete(d.timers, key)
	}
}

// Wait blocks until no call is pending or running. It may be called while
// other goroutines keep scheduling calls.
func (d *Debouncer) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.pending > 0 {
		d.idle.Wait()
	}
}
