// Package timebase provides the free-running tick counter every cooperative
// task measures time against.
package timebase

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// DefaultTick is the nominal tick length.
const DefaultTick = time.Millisecond

// Clock is a wrapping 32-bit tick counter. Tick is its only writer; all other
// methods only read it, so they are safe from the foreground loop.
type Clock struct {
	ticks atomic.Uint32
	idle  func()
}

// New returns a clock at tick zero that yields to the scheduler while sleeping.
func New() *Clock { return NewAt(0) }

// NewAt starts the counter at v. Simulations use it to exercise wraparound.
func NewAt(v uint32) *Clock {
	c := &Clock{idle: runtime.Gosched}
	c.ticks.Store(v)
	return c
}

// SetIdle replaces the hook Sleep calls on every spin. nil spins hot.
func (c *Clock) SetIdle(f func()) { c.idle = f }

// Tick is the timer callback: one atomic increment and nothing else.
func (c *Clock) Tick() { c.ticks.Add(1) }

// Advance adds n ticks at once. Host simulation and tests only.
func (c *Clock) Advance(n uint32) { c.ticks.Add(n) }

// Now returns the current tick count.
func (c *Clock) Now() uint32 { return c.ticks.Load() }

// Since returns the ticks between start and now, modulo 2^32.
func Since(now, start uint32) uint32 { return now - start }

// Elapsed reports whether at least d ticks have passed since start.
// The unsigned subtraction keeps it correct across counter wraparound.
func (c *Clock) Elapsed(start, d uint32) bool {
	return Since(c.Now(), start) >= d
}

// Sleep busy-waits for d ticks. It must not be called from the tick source
// itself, which would never advance.
func (c *Clock) Sleep(d uint32) {
	start := c.Now()
	for !c.Elapsed(start, d) {
		if c.idle != nil {
			c.idle()
		}
	}
}

// Run calls clk.Tick every period until ctx is done. It stands in for the
// SysTick interrupt: TinyGo exposes no user hook for it, so a ticker
// goroutine drives the counter instead.
func Run(ctx context.Context, clk *Clock, period time.Duration) {
	if period <= 0 {
		period = DefaultTick
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			clk.Tick()
		}
	}
}

// Start launches Run in its own goroutine.
func Start(ctx context.Context, clk *Clock, period time.Duration) {
	go Run(ctx, clk, period)
}
