//go:build stm32f4disco || rp2040 || rp2350

package platform

import "machine"

// irqPin adapts machine.Pin to button.IRQPin.
type irqPin struct{ p machine.Pin }

func (b irqPin) Get() bool { return b.p.Get() }

func (b irqPin) SetFallingIRQ(handler func()) error {
	return b.p.SetInterrupt(machine.PinFalling, func(machine.Pin) { handler() })
}

func outputs(pins ...machine.Pin) {
	for _, p := range pins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
}

// sharedSPI is one device's view of a controller shared with others that
// need a different clock mode. Not safe for concurrent use.
type sharedSPI struct {
	bus  *machine.SPI
	cur  *uint8
	freq uint32
	mode uint8
}

const modeUnset = 0xFF

func (s sharedSPI) claim() {
	if *s.cur == s.mode {
		return
	}
	_ = s.bus.Configure(machine.SPIConfig{Frequency: s.freq, Mode: s.mode})
	*s.cur = s.mode
}

func (s sharedSPI) Tx(w, r []byte) error {
	s.claim()
	return s.bus.Tx(w, r)
}

func (s sharedSPI) Transfer(b byte) (byte, error) {
	s.claim()
	return s.bus.Transfer(b)
}

func toOut(pins ...machine.Pin) []OutPin {
	out := make([]OutPin, len(pins))
	for i, p := range pins {
		out[i] = p
	}
	return out
}
