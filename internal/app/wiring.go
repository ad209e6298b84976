package app

import (
	"f4disco/drivers/ad9833"
	"f4disco/drivers/bl24cm1a"
	"f4disco/drivers/fm25q08b"
	"f4disco/drivers/segment"
	"f4disco/errcode"
	"f4disco/internal/dds"
	"f4disco/internal/platform"
	"f4disco/internal/store"
	"f4disco/internal/timebase"
)

// Synth drives the AD9833 from a parameters record.
type Synth struct {
	dev *ad9833.Device
}

// NewSynth builds the generator on the board's DDS bus. Its reset settle
// delays sleep on clk.
func NewSynth(b *platform.Board, mclk uint32, clk *timebase.Clock) *Synth {
	dev := ad9833.New(b.DDSBus, b.FSync, b.PotCS)
	dev.Configure(ad9833.Config{MCLK: mclk, Delay: clk.Sleep})
	return &Synth{dev: dev}
}

func (s *Synth) Init(p dds.Params) error {
	return s.dev.Init(p.Frequency, p.Amplitude, ModeOf(p.Waveform))
}

// ModeOf maps a waveform selector to the AD9833 control word.
func ModeOf(w dds.Waveform) ad9833.Mode {
	switch w {
	case dds.Square:
		return ad9833.Square
	case dds.Triangle:
		return ad9833.Triangle
	}
	return ad9833.Sine
}

// OpenStore builds the parameter store named by cfg.Store. StoreNone gives
// a nil store. Write cycles and busy polls sleep on clk.
func OpenStore(cfg Config, b *platform.Board, clk *timebase.Clock) (*store.Store, error) {
	switch cfg.Store {
	case StoreNone:
		return nil, nil
	case StoreEEPROM:
		ee := bl24cm1a.New(b.EEPROMBus)
		ee.Configure(bl24cm1a.Config{Delay: clk.Sleep})
		if err := ee.WaitReady(10); err != nil {
			return nil, err
		}
		return store.New(ee, cfg.StoreOffset), nil
	case StoreFlash:
		fl := fm25q08b.New(b.FlashBus, b.FlashCS)
		fl.Configure(fm25q08b.Config{Delay: clk.Sleep})
		if err := fl.ReleasePowerDown(); err != nil {
			return nil, err
		}
		return store.New(fl, cfg.StoreOffset), nil
	}
	return nil, errcode.InvalidParams
}

// NewDisplay builds the 7-segment display, or nil on boards without one.
func NewDisplay(b *platform.Board) *segment.Display {
	if len(b.Positions) == 0 {
		return nil
	}
	pos := make([]segment.Pin, len(b.Positions))
	for i, p := range b.Positions {
		pos[i] = p
	}
	var seg [7]segment.Pin
	for i, p := range b.Segments {
		seg[i] = p
	}
	return segment.New(pos, seg)
}
