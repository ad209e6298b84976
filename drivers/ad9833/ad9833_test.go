package ad9833

import (
	"errors"
	"testing"

	"f4disco/errcode"
)

// recorder captures 16-bit words per select line.
type recorder struct {
	active string
	words  map[string][]uint16
	fail   bool
}

func (r *recorder) Tx(w, _ []byte) error {
	if r.fail {
		return errors.New("spi fault")
	}
	if r.active == "" {
		panic("transfer with no chip selected")
	}
	r.words[r.active] = append(r.words[r.active], uint16(w[0])<<8|uint16(w[1]))
	return nil
}

func (r *recorder) Transfer(b byte) (byte, error) { return 0, nil }

type csPin struct {
	name string
	rec  *recorder
}

func (p csPin) Set(level bool) {
	if level {
		if p.rec.active == p.name {
			p.rec.active = ""
		}
		return
	}
	p.rec.active = p.name
}

func newDevice() (*Device, *recorder, *[]uint32) {
	rec := &recorder{words: map[string][]uint16{}}
	d := New(rec, csPin{"fsync", rec}, csPin{"pot", rec})
	var delays []uint32
	d.Configure(Config{Delay: func(ms uint32) { delays = append(delays, ms) }})
	return d, rec, &delays
}

func TestFrequencyWord(t *testing.T) {
	if got := FrequencyWord(1000, MCLK); got != 10737 {
		t.Fatalf("1 kHz word = %d", got)
	}
	if got := FrequencyWord(12_500_000, MCLK); got != 1<<27 {
		t.Fatalf("max word = %#x", got)
	}
}

func TestInitSequence(t *testing.T) {
	d, rec, delays := newDevice()
	if err := d.Init(1000, 128, Square); err != nil {
		t.Fatalf("Init: %v", err)
	}
	fw := FrequencyWord(1000, MCLK)
	want := []uint16{
		0x0100, 0x0000,
		0x2000, 0x4000 | uint16(fw&0x3FFF), 0x4000 | uint16(fw>>14),
		0x0028,
		0x4000,
	}
	got := rec.words["fsync"]
	if len(got) != len(want) {
		t.Fatalf("words = %#x, want %#x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("word %d = %#x, want %#x", i, got[i], want[i])
		}
	}
	if pot := rec.words["pot"]; len(pot) != 1 || pot[0] != 0x1180 {
		t.Fatalf("pot words = %#x", pot)
	}
	if len(*delays) != 2 || (*delays)[0] != 10 {
		t.Fatalf("delays = %v", *delays)
	}
}

func TestEnableOff(t *testing.T) {
	d, rec, _ := newDevice()
	_ = d.Enable(false)
	if w := rec.words["fsync"]; len(w) != 1 || w[0] != 0x0080 {
		t.Fatalf("words = %#x", w)
	}
}

func TestBusErrorIsWrapped(t *testing.T) {
	d, rec, _ := newDevice()
	rec.fail = true
	err := d.SetMode(Sine)
	if errcode.Of(err) != errcode.BusError {
		t.Fatalf("err = %v", err)
	}
	if rec.active != "" {
		t.Fatal("FSYNC left low after failure")
	}
}
