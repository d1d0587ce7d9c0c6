package notify

import "sync"

// Counter tracks outstanding work for the loading indicator. Requests
// and page loads are counted independently; the indicator shows while
// either is non-zero. Counting by nesting (not per-call identity)
// matches how the UI treats overlapping requests: one spinner, shown
// until the last response lands, success or failure alike.
type Counter struct {
	mu       sync.Mutex
	requests int
	page     int
}

// NewCounter returns a zeroed counter.
func NewCounter() *Counter {
	return &Counter{}
}

// StartRequest records an outgoing request.
func (c *Counter) StartRequest() {
	c.mu.Lock()
	c.requests++
	c.mu.Unlock()
}

// EndRequest records a completed request, regardless of outcome.
func (c *Counter) EndRequest() {
	c.mu.Lock()
	c.requests--
	c.mu.Unlock()
}

// StartPage records the beginning of a page-level load.
func (c *Counter) StartPage() {
	c.mu.Lock()
	c.page++
	c.mu.Unlock()
}

// EndPage records the end of a page-level load.
func (c *Counter) EndPage() {
	c.mu.Lock()
	c.page--
	c.mu.Unlock()
}

// Loading reports whether anything is still in flight.
func (c *Counter) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests > 0 || c.page > 0
}

// Requests returns the number of in-flight requests.
func (c *Counter) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}
