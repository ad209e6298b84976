package selftest

import (
	"errors"
	"testing"

	"f4disco/drivers/bl24cm1a"
	"f4disco/drivers/fm25q08b"
	"f4disco/errcode"
	"f4disco/internal/platform"
)

func nolog(string) {}

func newEEPROM(bus interface {
	Tx(addr uint16, w, r []byte) error
}) *bl24cm1a.Device {
	d := bl24cm1a.New(bus)
	d.Configure(bl24cm1a.Config{Delay: func(uint32) {}})
	return d
}

func TestEEPROMPasses(t *testing.T) {
	var lines []string
	d := newEEPROM(&platform.HostEEPROM{})
	if err := EEPROM(d, 0x100, Pattern(600, 7), func(l string) { lines = append(lines, l) }); err != nil {
		t.Fatalf("EEPROM: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("log = %v", lines)
	}
}

type absentBus struct{}

func (absentBus) Tx(uint16, []byte, []byte) error { return errors.New("nack") }

func TestEEPROMAbsent(t *testing.T) {
	err := EEPROM(newEEPROM(absentBus{}), 0, Pattern(4, 0), nolog)
	if errcode.Of(err) != errcode.Timeout {
		t.Fatalf("err = %v, want timeout", err)
	}
}

// stuckBit flips bit 0 of every byte read back.
type stuckBit struct{ platform.HostEEPROM }

func (s *stuckBit) Tx(addr uint16, w, r []byte) error {
	err := s.HostEEPROM.Tx(addr, w, r)
	for i := range r {
		r[i] |= 1
	}
	return err
}

func TestEEPROMMismatch(t *testing.T) {
	err := EEPROM(newEEPROM(&stuckBit{}), 0, Pattern(8, 0), nolog)
	e, ok := err.(*errcode.E)
	if !ok || e.C != errcode.VerifyFailed || e.Msg != "at 0x00000000" {
		t.Fatalf("err = %#v", err)
	}
}

func TestFlashMissing(t *testing.T) {
	d := fm25q08b.New(&platform.HostSPI{}, &platform.FakePin{})
	d.Configure(fm25q08b.Config{Delay: func(uint32) {}})
	if err := Flash(d, 0, Pattern(16, 0), nolog); errcode.Of(err) != errcode.NotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestPattern(t *testing.T) {
	p := Pattern(258, 0xFE)
	if p[0] != 0xFE || p[1] != 0xFF || p[2] != 0 || p[257] != 0xFF {
		t.Fatalf("pattern = % x", p[:4])
	}
}
