package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/activity-timeline/internal/workitem"
)

func waitResult(t *testing.T, p *Poller) RefreshResult {
	t.Helper()
	select {
	case r := <-p.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh result")
		return RefreshResult{}
	}
}

func TestPollerInitialRefresh(t *testing.T) {
	gw := &fakeGateway{load: sampleLoad()}
	s := newTestStore(gw)

	p := NewPoller(s, time.Hour)
	p.Start()
	defer p.Stop()

	r := waitResult(t, p)
	require.NoError(t, r.Err)

	_, ok := s.Activity(5)
	assert.True(t, ok)
	assert.Equal(t, RefreshIdle, p.Status().State)
	assert.False(t, p.Status().LastRefresh.IsZero())
}

func TestPollerManualRefresh(t *testing.T) {
	gw := &fakeGateway{load: sampleLoad()}
	s := newTestStore(gw)

	p := NewPoller(s, time.Hour)
	p.Start()
	defer p.Stop()

	waitResult(t, p)
	p.Refresh()
	waitResult(t, p)

	gw.mu.Lock()
	calls := gw.loadCalls
	gw.mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestPollerFlagsAuthFailure(t *testing.T) {
	gw := &fakeGateway{loadErr: &workitem.AuthError{Message: "token expired"}}
	s := newTestStore(gw)

	p := NewPoller(s, time.Hour)
	p.Start()
	defer p.Stop()

	r := waitResult(t, p)
	require.Error(t, r.Err)
	assert.True(t, r.AuthExpired)
	assert.Equal(t, RefreshError, p.Status().State)
}

func TestPollerStartTwice(t *testing.T) {
	gw := &fakeGateway{load: sampleLoad()}
	s := newTestStore(gw)

	p := NewPoller(s, time.Hour)
	p.Start()
	p.Start()
	defer p.Stop()

	waitResult(t, p)
}
