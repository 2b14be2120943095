package metronome

import (
	"sync"
	"time"
)

// FakeClock hands out tickers that only fire when a test calls Fire.
type FakeClock struct {
	mu      sync.Mutex
	tickers []*FakeTicker
}

func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	t := &FakeTicker{
		period: d,
		ch:     make(chan time.Time),
		stopCh: make(chan struct{}),
	}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

// Tickers returns every ticker created so far, oldest first.
func (c *FakeClock) Tickers() []*FakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*FakeTicker, len(c.tickers))
	copy(out, c.tickers)
	return out
}

// Live returns the tickers that have not been stopped.
func (c *FakeClock) Live() []*FakeTicker {
	var live []*FakeTicker
	for _, t := range c.Tickers() {
		if !t.Stopped() {
			live = append(live, t)
		}
	}
	return live
}

// Last returns the most recently created ticker, or nil.
func (c *FakeClock) Last() *FakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

type FakeTicker struct {
	period time.Duration
	ch     chan time.Time
	stopCh chan struct{}

	mu      sync.Mutex
	stopped bool
}

func (t *FakeTicker) C() <-chan time.Time { return t.ch }

func (t *FakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	close(t.stopCh)
}

func (t *FakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *FakeTicker) Period() time.Duration { return t.period }

// Fire delivers one tick. It reports false when the ticker is stopped or
// nobody received the tick within a second.
func (t *FakeTicker) Fire() bool {
	if t.Stopped() {
		return false
	}
	select {
	case t.ch <- time.Now():
		return true
	case <-t.stopCh:
		return false
	case <-time.After(time.Second):
		return false
	}
}
