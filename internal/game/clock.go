package game

import (
	"fmt"
	"sync"
	"time"
)

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Clock counts whole seconds of play. It runs at most one ticker at a
// time; every Start, Stop and Reset moves it to a new epoch, and ticks
// from an older epoch are dropped.
type Clock struct {
	mu        sync.Mutex
	elapsed   int
	epoch     uint64
	stop      chan struct{}
	newTicker TickerFunc
	onTick    func(epoch uint64, elapsed int)
}

func NewClock(newTicker TickerFunc, onTick func(epoch uint64, elapsed int)) *Clock {
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	if onTick == nil {
		onTick = func(uint64, int) {}
	}
	return &Clock{newTicker: newTicker, onTick: onTick}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return
	}
	c.epoch++
	c.stop = make(chan struct{})
	go c.run(c.epoch, c.stop, c.newTicker(time.Second))
}

func (c *Clock) run(epoch uint64, stop <-chan struct{}, t Ticker) {
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			c.mu.Lock()
			if c.epoch != epoch {
				c.mu.Unlock()
				return
			}
			c.elapsed++
			elapsed := c.elapsed
			c.mu.Unlock()
			c.onTick(epoch, elapsed)
		}
	}
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halt()
}

// Reset stops the clock and zeroes it.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halt()
	c.elapsed = 0
}

func (c *Clock) halt() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.epoch++
}

func (c *Clock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// Current reports whether epoch belongs to the running clock.
func (c *Clock) Current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil && c.epoch == epoch
}

// FormatElapsed renders seconds as MM:SS.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
