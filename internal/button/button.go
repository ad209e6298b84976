// Package button turns raw edge interrupts into debounced presses. The
// interrupt side only records the tick and never blocks; filtering happens
// in the foreground when Presses is polled.
package button

import (
	"sync/atomic"

	"f4disco/internal/timebase"
)

// IRQPin is an input able to call back on its falling edge.
type IRQPin interface {
	Get() bool
	SetFallingIRQ(handler func()) error
}

// Button debounces one active-low push button.
type Button struct {
	clk      *timebase.Clock
	debounce uint32

	// Written by the ISR; MUST NOT block it.
	isrQ  chan uint32
	drops atomic.Uint32

	lastEdge uint32
	seen     bool
}

// New registers a falling-edge handler on pin. queue bounds the number of
// edges held between polls.
func New(clk *timebase.Clock, pin IRQPin, debounce uint32, queue int) (*Button, error) {
	if queue <= 0 {
		queue = 8
	}
	b := &Button{
		clk:      clk,
		debounce: debounce,
		isrQ:     make(chan uint32, queue),
	}
	if err := pin.SetFallingIRQ(b.OnEdge); err != nil {
		return nil, err
	}
	return b, nil
}

// OnEdge is the interrupt handler: stamp the edge and return.
func (b *Button) OnEdge() {
	select {
	case b.isrQ <- b.clk.Now():
	default:
		b.drops.Add(1)
	}
}

// Presses drains pending edges and returns those that start a new press:
// an edge within the debounce window of the previous one is bounce.
func (b *Button) Presses() int {
	n := 0
	for {
		select {
		case at := <-b.isrQ:
			if b.seen && timebase.Since(at, b.lastEdge) < b.debounce {
				continue
			}
			b.seen = true
			b.lastEdge = at
			n++
		default:
			return n
		}
	}
}

// ISRDrops counts edges lost because the queue was full.
func (b *Button) ISRDrops() uint32 { return b.drops.Load() }
