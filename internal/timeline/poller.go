package timeline

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/activity-timeline/internal/workitem"
)

// RefreshState represents the poller's current activity.
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshRunning
	RefreshError
)

// RefreshStatus is a snapshot of the last refresh outcome.
type RefreshStatus struct {
	State       RefreshState
	LastRefresh time.Time
	Err         error
}

// RefreshResult is published after every completed refresh.
type RefreshResult struct {
	Err error
	// AuthExpired flags failures that need an interactive re-auth
	// rather than a retry.
	AuthExpired bool
}

// fetchTimeout bounds a single background reload.
const fetchTimeout = 30 * time.Second

// defaultPollInterval is used when no interval is configured.
const defaultPollInterval = 2 * time.Minute

// Poller keeps the store's graph fresh: it reloads on a fixed
// interval and on demand, and reports each outcome on a channel the
// UI layer can subscribe to.
type Poller struct {
	store    *Store
	interval time.Duration

	resultCh  chan RefreshResult
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      sync.Mutex
	status  RefreshStatus
	running bool
}

// NewPoller creates a poller reloading through store every interval.
// A non-positive interval falls back to the default.
func NewPoller(store *Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		store:     store,
		interval:  interval,
		resultCh:  make(chan RefreshResult, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling loop, beginning with an immediate
// refresh. Calling Start twice is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()
}

// Stop halts the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Refresh requests an immediate reload. A request is dropped when one
// is already queued.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Results is the stream of refresh outcomes.
func (p *Poller) Results() <-chan RefreshResult {
	return p.resultCh
}

// Status returns the last refresh outcome.
func (p *Poller) Status() RefreshStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.refresh()
		case <-p.triggerCh:
			p.refresh()
		}
	}
}

func (p *Poller) refresh() {
	p.setStatus(RefreshRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	err := p.store.LoadActivities(ctx)
	if err != nil {
		p.setStatus(RefreshError, err)
		p.publish(RefreshResult{Err: err, AuthExpired: workitem.IsAuthError(err)})
		return
	}

	p.setStatus(RefreshIdle, nil)
	p.publish(RefreshResult{})
}

func (p *Poller) setStatus(state RefreshState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Err = err
	if state == RefreshIdle && err == nil {
		p.status.LastRefresh = time.Now()
	}
}

// publish sends a result without blocking; a full channel drops the
// oldest consumer's chance, not the poller.
func (p *Poller) publish(result RefreshResult) {
	select {
	case p.resultCh <- result:
	default:
	}
}
