// Package bl24cm1a drives the BL24CM1A 1 Mbit I2C EEPROM.
//
// The array is 512 pages of 256 bytes. A memory address is 17 bits: the low
// 16 go on the wire after the device address, bit 16 replaces the LSB of
// the device address. Writes never cross a page; the driver splits them and
// waits out the internal write cycle between pages.
package bl24cm1a

import (
	"io"
	"time"

	"tinygo.org/x/drivers"

	"f4disco/errcode"
	"f4disco/x/mathx"
)

const (
	Address  = 0x50
	PageSize = 256
	Pages    = 512
	Size     = PageSize * Pages
)

// Config holds optional settings.
type Config struct {
	// Address defaults to 0x50.
	Address uint16
	// WriteCycleMs is waited after each page write. Default 5.
	WriteCycleMs uint32
	// Delay waits for ms milliseconds. Defaults to time.Sleep.
	Delay func(ms uint32)
}

type Device struct {
	bus     drivers.I2C
	Address uint16
	cycle   uint32
	delay   func(ms uint32)
	buf     [2 + PageSize]byte
}

func New(bus drivers.I2C) *Device {
	d := &Device{bus: bus}
	d.Configure(Config{})
	return d
}

func (d *Device) Configure(cfg Config) {
	d.Address = cfg.Address
	if d.Address == 0 {
		d.Address = Address
	}
	d.cycle = cfg.WriteCycleMs
	if d.cycle == 0 {
		d.cycle = 5
	}
	d.delay = cfg.Delay
	if d.delay == nil {
		d.delay = func(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) }
	}
}

// devAddr folds memory address bit 16 into the device address.
func (d *Device) devAddr(mem uint32) uint16 {
	return d.Address&^1 | uint16(mem>>16)&1
}

func checkRange(off int64, n int) error {
	if off < 0 || off+int64(n) > Size {
		return errcode.OutOfRange
	}
	return nil
}

// WaitReady polls for an ACK up to attempts times, one write cycle apart.
func (d *Device) WaitReady(attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		d.buf[0], d.buf[1] = 0, 0
		if err = d.bus.Tx(d.Address, d.buf[:2], nil); err == nil {
			return nil
		}
		d.delay(d.cycle)
	}
	return errcode.Wrap(errcode.Timeout, "bl24cm1a.ready", err)
}

// ReadAt reads len(p) bytes starting at off, one page-bounded chunk at a time.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if err := checkRange(off, len(p)); err != nil {
		return 0, err
	}
	mem := uint32(off)
	done := 0
	for done < len(p) {
		n := int(mathx.ToBoundary(mem, PageSize, uint32(len(p)-done)))
		d.buf[0] = byte(mem >> 8)
		d.buf[1] = byte(mem)
		if err := d.bus.Tx(d.devAddr(mem), d.buf[:2], p[done:done+n]); err != nil {
			return done, errcode.Wrap(errcode.BusError, "bl24cm1a.read", err)
		}
		done += n
		mem += uint32(n)
	}
	return done, nil
}

// WriteAt writes p at off, splitting at page boundaries.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if err := checkRange(off, len(p)); err != nil {
		return 0, err
	}
	mem := uint32(off)
	done := 0
	for done < len(p) {
		n := int(mathx.ToBoundary(mem, PageSize, uint32(len(p)-done)))
		d.buf[0] = byte(mem >> 8)
		d.buf[1] = byte(mem)
		copy(d.buf[2:], p[done:done+n])
		if err := d.bus.Tx(d.devAddr(mem), d.buf[:2+n], nil); err != nil {
			return done, errcode.Wrap(errcode.BusError, "bl24cm1a.write", err)
		}
		d.delay(d.cycle)
		done += n
		mem += uint32(n)
	}
	return done, nil
}

var (
	_ io.ReaderAt = (*Device)(nil)
	_ io.WriterAt = (*Device)(nil)
)
