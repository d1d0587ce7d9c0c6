package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimer records whether it was stopped before firing.
type fakeTimer struct {
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	f.stopped = true
	return true
}

// fakeClock hands out fakeTimers and keeps the scheduled callbacks
// for manual firing.
type fakeClock struct {
	timers    []*fakeTimer
	callbacks []func()
	delays    []time.Duration
}

func (c *fakeClock) after(d time.Duration, fn func()) Timer {
	timer := &fakeTimer{}
	c.timers = append(c.timers, timer)
	c.callbacks = append(c.callbacks, fn)
	c.delays = append(c.delays, d)
	return timer
}

func TestTriggerCancelsPending(t *testing.T) {
	clock := &fakeClock{}
	d := NewWithTimer(200*time.Millisecond, clock.after)

	calls := []string{}
	d.Trigger(func() { calls = append(calls, "first") })
	d.Trigger(func() { calls = append(calls, "second") })

	require.Len(t, clock.timers, 2)
	assert.True(t, clock.timers[0].stopped)
	assert.False(t, clock.timers[1].stopped)
	assert.Equal(t, 200*time.Millisecond, clock.delays[1])

	clock.callbacks[1]()
	assert.Equal(t, []string{"second"}, calls)
	assert.False(t, d.Pending())
}

func TestStop(t *testing.T) {
	clock := &fakeClock{}
	d := NewWithTimer(time.Second, clock.after)

	d.Trigger(func() {})
	assert.True(t, d.Pending())

	d.Stop()
	assert.False(t, d.Pending())
	assert.True(t, clock.timers[0].stopped)

	// Stop with nothing pending is a no-op.
	d.Stop()
}

func TestRealTimerFires(t *testing.T) {
	d := New(5 * time.Millisecond)

	done := make(chan struct{})
	d.Trigger(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never fired")
	}
}
