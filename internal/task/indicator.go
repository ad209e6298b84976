package task

import (
	"f4disco/internal/timebase"
	"f4disco/x/conv"
)

// Digits is the width of the multiplexed display.
const Digits = 3

// DigitPhase selects which display position is lit.
type DigitPhase uint8

const (
	Digit0 DigitPhase = iota
	Digit1
	Digit2
)

func (p DigitPhase) Next() DigitPhase { return (p + 1) % Digits }

// Display lights one position with one character; other positions go dark.
type Display interface {
	Show(pos int, ch byte)
}

// NewIndicator multiplexes value() across the display, one digit per step.
// Values wider than the display show dashes.
func NewIndicator(clk *timebase.Clock, period uint32, d Display, value func() uint32) *Periodic[DigitPhase] {
	var buf [Digits]byte
	return NewPeriodic(clk, period, Digit0, func(p DigitPhase) {
		Render(buf[:], value())
		d.Show(int(p), buf[p])
	})
}

// Render writes v right-aligned into buf, blank-padded, or all dashes when
// it does not fit.
func Render(buf []byte, v uint32) {
	limit := uint64(1)
	for range buf {
		limit *= 10
	}
	if uint64(v) >= limit {
		for i := range buf {
			buf[i] = '-'
		}
		return
	}
	conv.PadUtoa(buf, uint64(v), ' ')
}
