//go:build !stm32f4disco && !rp2040 && !rp2350

package platform

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
)

// BoardID selects the embedded configuration.
const BoardID = "host"

// FakePin is an in-memory pin with falling-edge callback support.
type FakePin struct {
	mu     sync.Mutex
	level  bool
	sets   int
	onFall func()
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	fell := p.level && !level
	p.level = level
	p.sets++
	cb := p.onFall
	p.mu.Unlock()
	if fell && cb != nil {
		cb() // ISR-style callback
	}
}

func (p *FakePin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Sets reports how many times Set was called.
func (p *FakePin) Sets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sets
}

func (p *FakePin) SetFallingIRQ(handler func()) error {
	p.mu.Lock()
	p.onFall = handler
	p.mu.Unlock()
	return nil
}

// Press drives a release-to-press edge on an active-low button.
func (p *FakePin) Press() {
	p.Set(true)
	p.Set(false)
}

// HostEEPROM emulates the two I2C addresses of a 128 KiB EEPROM with a
// 16-bit memory address phase.
type HostEEPROM struct {
	mu  sync.Mutex
	Mem [128 * 1024]byte
}

var errNoDevice = errors.New("i2c: no device")

func (h *HostEEPROM) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if addr&^1 != 0x50 {
		return errNoDevice
	}
	if len(w) < 2 {
		return nil // ready probe
	}
	base := int(addr&1)<<16 | int(w[0])<<8 | int(w[1])
	if base+len(r) > len(h.Mem) || base+len(w)-2 > len(h.Mem) {
		return io.ErrShortBuffer
	}
	copy(h.Mem[base:], w[2:])
	copy(r, h.Mem[base:])
	return nil
}

// HostSPI accepts every transfer and reads zeros.
type HostSPI struct {
	mu  sync.Mutex
	Out []byte
}

func (s *HostSPI) Tx(w, r []byte) error {
	s.mu.Lock()
	s.Out = append(s.Out, w...)
	s.mu.Unlock()
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (s *HostSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.Tx([]byte{b}, r[:])
	return r[0], err
}

// HostSerial feeds reads from an io.Reader through a goroutine so receives
// can honour a context.
type HostSerial struct {
	w    io.Writer
	in   chan []byte
	rest []byte
}

func NewHostSerial(r io.Reader, w io.Writer) *HostSerial {
	s := &HostSerial{w: w, in: make(chan []byte, 4)}
	go func() {
		for {
			buf := make([]byte, 64)
			n, err := r.Read(buf)
			if n > 0 {
				s.in <- buf[:n]
			}
			if err != nil {
				close(s.in)
				return
			}
		}
	}()
	return s
}

func (s *HostSerial) Write(b []byte) (int, error) { return s.w.Write(b) }

func (s *HostSerial) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(s.rest) == 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case b, ok := <-s.in:
			if !ok {
				return 0, io.EOF
			}
			s.rest = b
		}
	}
	n := copy(buf, s.rest)
	s.rest = s.rest[n:]
	return n, nil
}

// Open builds a host board on stdin and stdout.
func Open(sc SerialConfig) (*Board, error) {
	return OpenWith(os.Stdin, os.Stdout), nil
}

// OpenWith builds a host board whose serial port is r and w.
func OpenWith(r io.Reader, w io.Writer) *Board {
	spi := &HostSPI{}
	b := &Board{
		Name:      BoardID,
		LEDs:      LEDs{Green: &FakePin{}, Orange: &FakePin{}, Red: &FakePin{}, Blue: &FakePin{}},
		Button:    &FakePin{},
		Serial:    NewHostSerial(r, w),
		DDSBus:    spi,
		FlashBus:  spi,
		EEPROMBus: &HostEEPROM{},
		FSync:     &FakePin{},
		PotCS:     &FakePin{},
		FlashCS:   &FakePin{},
		Positions: []OutPin{&FakePin{}, &FakePin{}, &FakePin{}},
	}
	for i := range b.Segments {
		b.Segments[i] = &FakePin{}
	}
	return b
}
