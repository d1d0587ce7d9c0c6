// Package notify carries the two UI trigger contracts the tracker
// core depends on: fire-and-forget user messages and an in-flight
// request counter for the loading indicator.
package notify

import (
	"strings"
	"sync"
	"time"
)

// minTimeout is the floor for a toast's auto-dismiss delay.
const minTimeout = 3 * time.Second

// avgWordsPerSec scales the dismiss delay with message length so
// longer errors stay on screen long enough to read.
const avgWordsPerSec = 2

// Toast is a single queued message.
type Toast struct {
	Text string
	// Sticky toasts are not auto-dismissed.
	Sticky bool
}

// Toaster queues user-visible messages. One toast is active at a
// time; identical pending texts are ignored.
type Toaster struct {
	mu       sync.Mutex
	active   []Toast
	queued   []Toast
	autohide time.Duration
}

// NewToaster returns an empty toaster.
func NewToaster() *Toaster {
	return &Toaster{autohide: minTimeout}
}

// ShowMessage queues a plain auto-dismissing message.
func (t *Toaster) ShowMessage(text string) {
	t.Add(Toast{Text: text})
}

// Add queues a toast unless an identical text is already pending.
func (t *Toaster) Add(toast Toast) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.exists(toast.Text) {
		return
	}

	if len(t.active) == 0 {
		t.active = []Toast{toast}
	} else {
		t.queued = append(t.queued, toast)
	}

	words := len(strings.Fields(toast.Text))
	d := time.Duration(words) * time.Second / avgWordsPerSec
	if d < minTimeout {
		d = minTimeout
	}
	t.autohide = d
}

// Dismiss drops the active toast and promotes the next queued one.
func (t *Toaster) Dismiss() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.queued) > 0 {
		t.active = []Toast{t.queued[0]}
		t.queued = t.queued[1:]
		return
	}
	if len(t.active) > 0 {
		t.active = t.active[1:]
	}
}

// Active returns the currently displayed toasts (zero or one).
func (t *Toaster) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, len(t.active))
	copy(out, t.active)
	return out
}

// AutohideTimeout returns the dismiss delay for the most recently
// added toast.
func (t *Toaster) AutohideTimeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.autohide
}

func (t *Toaster) exists(text string) bool {
	for _, x := range t.active {
		if x.Text == text {
			return true
		}
	}
	for _, x := range t.queued {
		if x.Text == text {
			return true
		}
	}
	return false
}
