package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestOnlyLastCallRuns(t *testing.T) {
	d := New(20 * time.Millisecond)
	var calls int32
	var last atomic.Value
	for _, v := range []string{"A", "Am", "Ama", "Aman"} {
		v := v
		d.Do("name", func() {
			atomic.AddInt32(&calls, 1)
			last.Store(v)
		})
	}
	d.Wait()
	if calls != 1 || last.Load() != "Aman" {
		t.Fatalf("want one call with Aman, got %d calls, last %v", calls, last.Load())
	}
}

func TestKeysAreIndependent(t *testing.T) {
	d := New(10 * time.Millisecond)
	var calls int32
	d.Do("a", func() { atomic.AddInt32(&calls, 1) })
	d.Do("b", func() { atomic.AddInt32(&calls, 1) })
	d.Wait()
	if calls != 2 {
		t.Fatalf("want 2 calls, got %d", calls)
	}
}

func TestCancel(t *testing.T) {
	d := New(time.Hour)
	ran := false
	d.Do("a", func() { ran = true })
	d.Cancel("a")
	d.Do("b", func() { ran = true })
	d.CancelAll()
	d.Wait()
	if ran {
		t.Fatalf("cancelled call ran")
	}
}

func TestZeroDelayIsAsync(t *testing.T) {
	d := New(0)
	release := make(chan struct{})
	done := make(chan struct{})
	d.Do("a", func() {
		<-release
		close(done)
	})
	close(release)
	d.Wait()
	select {
	case <-done:
	default:
		t.Fatalf("Wait returned before the call finished")
	}
}

func TestWaitWhileScheduling(t *testing.T) {
	d := New(0)
	var calls int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			d.Do("k", func() { atomic.AddInt32(&calls, 1) })
			d.Wait()
		}
	}()

	for {
		select {
		case <-done:
			if n := atomic.LoadInt32(&calls); n != 2000 {
				t.Fatalf("want 2000 calls, got %d", n)
			}
			return
		default:
			d.Wait()
		}
	}
}
