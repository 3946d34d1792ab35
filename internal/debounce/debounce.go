package debounce

import (
	"sync"
	"time"
)

// Debouncer delays propagation of a rapidly-changing value until it has been
// stable for the configured interval. Every Update restarts the wait, so only
// the most recent stabilized value is ever emitted; intermediate values are
// discarded, not queued. At most one timer is live per instance.
type Debouncer[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	out      chan T
	stopped  bool
}

// New returns a Debouncer with the given stabilization interval.
func New[T any](interval time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		interval: interval,
		out:      make(chan T, 1),
	}
}

// Update feeds a new input value, restarting the stabilization wait. Calls
// after Stop are ignored.
func (d *Debouncer[T]) Update(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() { d.emit(v) })
}

func (d *Debouncer[T]) emit(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	// A stale unconsumed emission is replaced, never queued behind.
	select {
	case <-d.out:
	default:
	}
	d.out <- v
}

// C returns the channel on which stabilized values are delivered. The channel
// holds at most one value: the latest stabilized one.
func (d *Debouncer[T]) C() <-chan T {
	return d.out
}

// SetInterval changes the stabilization interval for subsequent updates. A wait
// already in progress keeps its original interval.
func (d *Debouncer[T]) SetInterval(interval time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interval = interval
}

// Stop cancels any pending emission. No value is delivered after Stop returns;
// safe to call more than once.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
