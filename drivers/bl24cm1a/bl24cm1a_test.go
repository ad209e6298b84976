package bl24cm1a

import (
	"bytes"
	"errors"
	"testing"

	"f4disco/errcode"
)

// fakeEEPROM models the two 64 KiB halves behind addresses 0x50 and 0x51.
type fakeEEPROM struct {
	mem    [Size]byte
	writes []int // payload length per write transaction
	nack   int   // NACK this many transactions before answering
}

func (f *fakeEEPROM) Tx(addr uint16, w, r []byte) error {
	if f.nack > 0 {
		f.nack--
		return errors.New("nack")
	}
	if addr&^1 != Address {
		return errors.New("wrong device")
	}
	if len(w) < 2 {
		return errors.New("missing address phase")
	}
	base := int(addr&1)<<16 | int(w[0])<<8 | int(w[1])
	if len(r) > 0 {
		copy(r, f.mem[base:base+len(r)])
		return nil
	}
	data := w[2:]
	if len(data) == 0 {
		return nil
	}
	if base/PageSize != (base+len(data)-1)/PageSize {
		return errors.New("page write crosses boundary")
	}
	copy(f.mem[base:], data)
	f.writes = append(f.writes, len(data))
	return nil
}

func newDevice(bus *fakeEEPROM) *Device {
	d := New(bus)
	d.Configure(Config{Delay: func(uint32) {}})
	return d
}

func TestWriteSplitsAtPageBoundary(t *testing.T) {
	bus := &fakeEEPROM{}
	d := newDevice(bus)

	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i)
	}
	if n, err := d.WriteAt(data, 250); err != nil || n != 600 {
		t.Fatalf("WriteAt = %d,%v", n, err)
	}
	want := []int{6, 256, 256, 82}
	if len(bus.writes) != len(want) {
		t.Fatalf("writes = %v, want %v", bus.writes, want)
	}
	for i := range want {
		if bus.writes[i] != want[i] {
			t.Fatalf("writes = %v, want %v", bus.writes, want)
		}
	}

	got := make([]byte, 600)
	if _, err := d.ReadAt(got, 250); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("read back mismatch")
	}
}

func TestUpperHalfUsesAddressBit(t *testing.T) {
	bus := &fakeEEPROM{}
	d := newDevice(bus)

	if _, err := d.WriteAt([]byte("hi"), 0xFFFF); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if bus.mem[0xFFFF] != 'h' || bus.mem[0x10000] != 'i' {
		t.Fatal("write across the 64 KiB boundary landed wrong")
	}
}

func TestRangeAndBusErrors(t *testing.T) {
	d := newDevice(&fakeEEPROM{})
	if _, err := d.WriteAt([]byte{1}, Size); err != errcode.OutOfRange {
		t.Fatalf("out of range: %v", err)
	}
	bus := &fakeEEPROM{nack: 1}
	d = newDevice(bus)
	if _, err := d.ReadAt(make([]byte, 4), 0); errcode.Of(err) != errcode.BusError {
		t.Fatalf("bus error: %v", err)
	}
}

func TestWaitReady(t *testing.T) {
	d := newDevice(&fakeEEPROM{nack: 3})
	if err := d.WaitReady(10); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	d = newDevice(&fakeEEPROM{nack: 20})
	if err := d.WaitReady(10); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("WaitReady = %v", err)
	}
}
