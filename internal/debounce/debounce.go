// Package debounce provides a single-purpose cancellable timer for
// search-as-you-type: every trigger cancels the pending run and
// schedules a fresh one after the quiet interval.
package debounce

import (
	"sync"
	"time"
)

// Timer is the stoppable handle returned by the timer factory.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d and returns a stoppable handle.
// Tests inject a fake to fire deterministically.
type AfterFunc func(d time.Duration, fn func()) Timer

type realTimer struct{ *time.Timer }

func stdAfter(d time.Duration, fn func()) Timer {
	return realTimer{time.AfterFunc(d, fn)}
}

// Debouncer coalesces bursts of triggers into one trailing call.
type Debouncer struct {
	interval time.Duration
	after    AfterFunc

	mu      sync.Mutex
	pending Timer
}

// New creates a debouncer firing interval after the last trigger.
func New(interval time.Duration) *Debouncer {
	return NewWithTimer(interval, stdAfter)
}

// NewWithTimer creates a debouncer with a custom timer factory.
func NewWithTimer(interval time.Duration, after AfterFunc) *Debouncer {
	return &Debouncer{interval: interval, after: after}
}

// Trigger cancels any pending call and schedules fn after the quiet
// interval. Only the fn of the latest trigger runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.after(d.interval, func() {
		d.mu.Lock()
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Stop cancels any pending call without scheduling a new one.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
