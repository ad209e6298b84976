// Package fm25q08b drives the FM25Q08B 8 Mbit SPI NOR flash.
//
// Programming only clears bits: erase (4K sector, 32K/64K block or chip)
// before rewriting. Every program or erase is preceded by write-enable and
// followed by polling the WIP status bit, bounded by Config.BusyTimeoutMs.
package fm25q08b

import (
	"io"
	"time"

	"tinygo.org/x/drivers"

	"f4disco/errcode"
	"f4disco/x/mathx"
)

// Geometry.
const (
	PageSize    = 256
	SectorSize  = 4096
	Block32Size = 32 * 1024
	Block64Size = 64 * 1024
	Size        = 1024 * 1024
)

const (
	cmdWriteEnable  = 0x06
	cmdWriteDisable = 0x04
	cmdReadStatus1  = 0x05
	cmdReadStatus2  = 0x35
	cmdWriteStatus  = 0x01
	cmdSectorErase  = 0x20
	cmdBlockErase32 = 0x52
	cmdBlockErase64 = 0xD8
	cmdChipErase    = 0xC7
	cmdPowerDown    = 0xB9
	cmdReleasePD    = 0xAB
	cmdRead         = 0x03
	cmdPageProgram  = 0x02
	cmdReadUniqueID = 0x4B
	cmdReadJEDECID  = 0x9F
	cmdReadMfgDevID = 0x90
	cmdEnableReset  = 0x66
	cmdReset        = 0x99
	statusWIP       = 0x01
)

// Pin is the chip-select output.
type Pin interface {
	Set(level bool)
}

// Config holds optional settings.
type Config struct {
	// BusyTimeoutMs bounds each WIP poll. Default 30000 (chip erase).
	BusyTimeoutMs uint32
	// Delay waits for ms milliseconds. Defaults to time.Sleep.
	Delay func(ms uint32)
}

type Device struct {
	bus    drivers.SPI
	cs     Pin
	busyMs uint32
	delay  func(ms uint32)
	buf    [4 + PageSize]byte
}

func New(bus drivers.SPI, cs Pin) *Device {
	d := &Device{bus: bus, cs: cs}
	d.Configure(Config{})
	return d
}

func (d *Device) Configure(cfg Config) {
	d.busyMs = cfg.BusyTimeoutMs
	if d.busyMs == 0 {
		d.busyMs = 30000
	}
	d.delay = cfg.Delay
	if d.delay == nil {
		d.delay = func(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) }
	}
	d.cs.Set(true)
}

// tx runs one chip-select frame: write w, then read len(r) bytes.
func (d *Device) tx(op string, w, r []byte) error {
	d.cs.Set(false)
	err := d.bus.Tx(w, nil)
	if err == nil && len(r) > 0 {
		err = d.bus.Tx(nil, r)
	}
	d.cs.Set(true)
	return errcode.Wrap(errcode.BusError, op, err)
}

func (d *Device) cmd(op string, c byte) error {
	d.buf[0] = c
	return d.tx(op, d.buf[:1], nil)
}

func (d *Device) addrCmd(c byte, addr uint32) []byte {
	d.buf[0] = c
	d.buf[1] = byte(addr >> 16)
	d.buf[2] = byte(addr >> 8)
	d.buf[3] = byte(addr)
	return d.buf[:4]
}

// Reset issues enable-reset then reset and waits 10 ms.
func (d *Device) Reset() error {
	if err := d.cmd("fm25q08b.reset", cmdEnableReset); err != nil {
		return err
	}
	if err := d.cmd("fm25q08b.reset", cmdReset); err != nil {
		return err
	}
	d.delay(10)
	return nil
}

// UniqueID returns the 64-bit factory serial.
func (d *Device) UniqueID() (id [8]byte, err error) {
	w := [5]byte{cmdReadUniqueID} // four dummy bytes follow the opcode
	err = d.tx("fm25q08b.uid", w[:], id[:])
	return id, err
}

// JEDECID returns manufacturer, memory type and capacity packed as 0xMMTTCC.
func (d *Device) JEDECID() (uint32, error) {
	var r [3]byte
	if err := d.tx("fm25q08b.jedec", []byte{cmdReadJEDECID}, r[:]); err != nil {
		return 0, err
	}
	return uint32(r[0])<<16 | uint32(r[1])<<8 | uint32(r[2]), nil
}

// ManufacturerID returns manufacturer and device id packed as 0xMMDD.
func (d *Device) ManufacturerID() (uint16, error) {
	var r [2]byte
	if err := d.tx("fm25q08b.mfg", []byte{cmdReadMfgDevID, 0, 0, 0}, r[:]); err != nil {
		return 0, err
	}
	return uint16(r[0])<<8 | uint16(r[1]), nil
}

func (d *Device) readStatus(c byte) (uint8, error) {
	var r [1]byte
	err := d.tx("fm25q08b.status", []byte{c}, r[:])
	return r[0], err
}

func (d *Device) Status1() (uint8, error) { return d.readStatus(cmdReadStatus1) }
func (d *Device) Status2() (uint8, error) { return d.readStatus(cmdReadStatus2) }

// WriteStatus writes status registers 1 and 2.
func (d *Device) WriteStatus(s1, s2 uint8) error {
	if err := d.WriteEnable(); err != nil {
		return err
	}
	if err := d.tx("fm25q08b.wrsr", []byte{cmdWriteStatus, s1, s2}, nil); err != nil {
		return err
	}
	return d.waitIdle()
}

func (d *Device) WriteEnable() error  { return d.cmd("fm25q08b.wren", cmdWriteEnable) }
func (d *Device) WriteDisable() error { return d.cmd("fm25q08b.wrdi", cmdWriteDisable) }
func (d *Device) PowerDown() error    { return d.cmd("fm25q08b.pd", cmdPowerDown) }
func (d *Device) ReleasePowerDown() error {
	return d.cmd("fm25q08b.rpd", cmdReleasePD)
}

// waitIdle polls WIP once per millisecond until clear or the budget runs out.
func (d *Device) waitIdle() error {
	for waited := uint32(0); ; waited++ {
		st, err := d.Status1()
		if err != nil {
			return err
		}
		if st&statusWIP == 0 {
			return nil
		}
		if waited >= d.busyMs {
			return errcode.Wrap(errcode.Timeout, "fm25q08b.busy", errcode.Busy)
		}
		d.delay(1)
	}
}

func (d *Device) erase(c byte, addr uint32) error {
	if addr >= Size {
		return errcode.OutOfRange
	}
	if err := d.WriteEnable(); err != nil {
		return err
	}
	if err := d.tx("fm25q08b.erase", d.addrCmd(c, addr), nil); err != nil {
		return err
	}
	return d.waitIdle()
}

func (d *Device) EraseSector(addr uint32) error  { return d.erase(cmdSectorErase, addr) }
func (d *Device) EraseBlock32(addr uint32) error { return d.erase(cmdBlockErase32, addr) }
func (d *Device) EraseBlock64(addr uint32) error { return d.erase(cmdBlockErase64, addr) }

func (d *Device) EraseChip() error {
	if err := d.WriteEnable(); err != nil {
		return err
	}
	if err := d.cmd("fm25q08b.erase", cmdChipErase); err != nil {
		return err
	}
	return d.waitIdle()
}

// Erase clears every sector touched by [off, off+n).
func (d *Device) Erase(off, n int64) error {
	if off < 0 || n < 0 || off+n > Size {
		return errcode.OutOfRange
	}
	last := mathx.CeilDiv(uint32(off+n), SectorSize)
	for s := uint32(off) / SectorSize; s < last; s++ {
		if err := d.EraseSector(s * SectorSize); err != nil {
			return err
		}
	}
	return nil
}

// ReadAt reads len(p) bytes at off in a single frame.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > Size {
		return 0, errcode.OutOfRange
	}
	if err := d.tx("fm25q08b.read", d.addrCmd(cmdRead, uint32(off)), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ProgramPage writes at most one page; data must not cross a page boundary.
func (d *Device) ProgramPage(addr uint32, data []byte) error {
	if len(data) > PageSize || int(addr%PageSize)+len(data) > PageSize {
		return errcode.InvalidParams
	}
	if err := d.WriteEnable(); err != nil {
		return err
	}
	n := copy(d.buf[4:], data)
	d.addrCmd(cmdPageProgram, addr)
	if err := d.tx("fm25q08b.program", d.buf[:4+n], nil); err != nil {
		return err
	}
	return d.waitIdle()
}

// WriteAt programs p at off page by page. The range must be erased.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > Size {
		return 0, errcode.OutOfRange
	}
	addr := uint32(off)
	done := 0
	for done < len(p) {
		n := int(mathx.ToBoundary(addr, PageSize, uint32(len(p)-done)))
		if err := d.ProgramPage(addr, p[done:done+n]); err != nil {
			return done, err
		}
		done += n
		addr += uint32(n)
	}
	return done, nil
}

var (
	_ io.ReaderAt = (*Device)(nil)
	_ io.WriterAt = (*Device)(nil)
)
