// Package ad9833 drives an AD9833 DDS waveform generator together with the
// MCP41010 digital potentiometer that sets its output amplitude. Both chips
// share one SPI bus and have their own select lines.
//
// Every AD9833 transfer is one 16-bit word, MSB first, framed by FSYNC low.
// The SPI bus must be in mode 2 (CPOL=1, CPHA=0) while the driver uses it.
package ad9833

import (
	"time"

	"tinygo.org/x/drivers"

	"f4disco/errcode"
)

// MCLK is the on-board oscillator frequency.
const MCLK = 25_000_000

// Control words.
const (
	cmdReset     = 0x0100
	cmdFreqWrite = 0x2000 // B28: next two FREQ0 writes carry LSB then MSB
	regFreq0     = 0x4000
	cmdSleep1    = 0x0080 // internal clock off
	freqMask     = 0x3FFF

	potWrite = 0x1100 // MCP41010: write data to pot 0
)

// Mode is the output shape control word.
type Mode uint16

const (
	Sine     Mode = 0x0000
	Triangle Mode = 0x0002
	Square   Mode = 0x0028
)

// Pin is a chip-select style output.
type Pin interface {
	Set(level bool)
}

// Config holds optional settings.
type Config struct {
	// MCLK defaults to 25 MHz.
	MCLK uint32
	// Delay waits for ms milliseconds. Defaults to time.Sleep.
	Delay func(ms uint32)
}

type Device struct {
	bus   drivers.SPI
	fsync Pin
	potCS Pin
	mclk  uint32
	delay func(ms uint32)
	buf   [2]byte
}

// New returns a device; call Configure before use.
func New(bus drivers.SPI, fsync, potCS Pin) *Device {
	return &Device{bus: bus, fsync: fsync, potCS: potCS, mclk: MCLK}
}

// Configure applies cfg and parks both select lines high.
func (d *Device) Configure(cfg Config) {
	if cfg.MCLK != 0 {
		d.mclk = cfg.MCLK
	}
	d.delay = cfg.Delay
	if d.delay == nil {
		d.delay = func(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) }
	}
	d.fsync.Set(true)
	d.potCS.Set(true)
}

func (d *Device) xfer(cs Pin, w uint16, op string) error {
	d.buf[0] = byte(w >> 8)
	d.buf[1] = byte(w)
	cs.Set(false)
	err := d.bus.Tx(d.buf[:], nil)
	cs.Set(true)
	return errcode.Wrap(errcode.BusError, op, err)
}

func (d *Device) write(w uint16) error { return d.xfer(d.fsync, w, "ad9833.write") }

// Reset pulses the reset bit with a 10 ms settle on each edge.
func (d *Device) Reset() error {
	if err := d.write(cmdReset); err != nil {
		return err
	}
	d.delay(10)
	if err := d.write(0x0000); err != nil {
		return err
	}
	d.delay(10)
	return nil
}

// FrequencyWord returns the 28-bit FREQ register value for hz.
func FrequencyWord(hz, mclk uint32) uint32 {
	return uint32((uint64(hz) << 28) / uint64(mclk))
}

// SetFrequency loads FREQ0 as two 14-bit halves, LSB first.
func (d *Device) SetFrequency(hz uint32) error {
	fw := FrequencyWord(hz, d.mclk)
	for _, w := range [...]uint16{
		cmdFreqWrite,
		regFreq0 | uint16(fw&freqMask),
		regFreq0 | uint16((fw>>14)&freqMask),
	} {
		if err := d.write(w); err != nil {
			return err
		}
	}
	return nil
}

// SetAmplitude writes the potentiometer wiper.
func (d *Device) SetAmplitude(v uint8) error {
	return d.xfer(d.potCS, potWrite|uint16(v), "mcp41010.write")
}

func (d *Device) SetMode(m Mode) error { return d.write(uint16(m)) }

// Enable starts or stops the output.
func (d *Device) Enable(on bool) error {
	if on {
		return d.write(regFreq0)
	}
	return d.write(cmdSleep1)
}

// Init runs the full bring-up: reset, frequency, amplitude, mode, enable.
func (d *Device) Init(hz uint32, amp uint8, m Mode) error {
	d.fsync.Set(true)
	d.potCS.Set(true)
	if err := d.Reset(); err != nil {
		return err
	}
	if err := d.SetFrequency(hz); err != nil {
		return err
	}
	if err := d.SetAmplitude(amp); err != nil {
		return err
	}
	if err := d.SetMode(m); err != nil {
		return err
	}
	return d.Enable(true)
}
