// Package debounce runs the last of a burst of calls once the burst settles.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the quiet period used for zoom updates
const DefaultWindow = 100 * time.Millisecond

// Debouncer delays fn until no Trigger has arrived for the window
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
}

// New returns a debouncer. A non-positive window runs triggers immediately.
func New(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Window returns the quiet period
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Trigger schedules fn, replacing any pending call and restarting the window
func (d *Debouncer) Trigger(fn func()) {
	if d.window <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() {
		d.fire(gen)
	})
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

// Flush runs the pending call now, if any. It reports whether one ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Stop drops the pending call without running it
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = nil
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
