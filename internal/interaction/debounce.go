package interaction

import (
	"sync"
	"time"
)

// timer is the part of *time.Timer the debouncer needs.
type timer interface {
	Stop() bool
}

// afterFunc schedules f after d. Tests replace it with a manual clock.
var afterFunc = func(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Debouncer runs the most recent function after a quiet period. Each
// Trigger cancels the pending one.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer timer
	seq   uint64
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules f, replacing anything still pending.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = afterFunc(d.delay, func() {
		d.mu.Lock()
		current := seq == d.seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			f()
		}
	})
}

// Cancel drops the pending function, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
