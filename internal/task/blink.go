package task

import "f4disco/internal/timebase"

// Pin is an output the tasks drive.
type Pin interface {
	Set(level bool)
}

// BlinkPhase is the two-phase LED cycle.
type BlinkPhase uint8

const (
	LEDOn BlinkPhase = iota
	LEDOff
)

func (p BlinkPhase) Next() BlinkPhase {
	if p == LEDOn {
		return LEDOff
	}
	return LEDOn
}

func (p BlinkPhase) String() string {
	if p == LEDOn {
		return "on"
	}
	return "off"
}

// NewBlink toggles led once per period, starting with the LED on.
func NewBlink(clk *timebase.Clock, period uint32, led Pin) *Periodic[BlinkPhase] {
	return NewPeriodic(clk, period, LEDOn, func(p BlinkPhase) {
		led.Set(p == LEDOn)
	})
}

// BlinkMode selects one of the blink periods; the button cycles it.
type BlinkMode uint8

const (
	ModeShort BlinkMode = iota
	ModeMedium
	ModeLong
	numModes
)

func (m BlinkMode) Next() BlinkMode { return (m + 1) % numModes }

func (m BlinkMode) String() string {
	switch m {
	case ModeShort:
		return "short"
	case ModeMedium:
		return "medium"
	case ModeLong:
		return "long"
	}
	return "unknown"
}

// ModePeriods maps each BlinkMode to a period in ticks.
type ModePeriods [numModes]uint32

// DefaultModePeriods are the 100/200/500 tick blink rates.
var DefaultModePeriods = ModePeriods{100, 200, 500}

// Presser reports debounced button presses since the last call.
type Presser interface {
	Presses() int
}

// ModeSwitch advances the blink mode once per button press and retunes the
// blink task. It runs on every pass; it is not periodic.
type ModeSwitch struct {
	mode    BlinkMode
	periods ModePeriods
	btn     Presser
	blink   *Periodic[BlinkPhase]
	changed func(BlinkMode)
}

func NewModeSwitch(btn Presser, blink *Periodic[BlinkPhase], periods ModePeriods, changed func(BlinkMode)) *ModeSwitch {
	s := &ModeSwitch{periods: periods, btn: btn, blink: blink, changed: changed}
	blink.SetPeriod(periods[s.mode])
	return s
}

func (s *ModeSwitch) Mode() BlinkMode { return s.mode }

func (s *ModeSwitch) RunOnce() bool {
	n := s.btn.Presses()
	if n == 0 {
		return false
	}
	for ; n > 0; n-- {
		s.mode = s.mode.Next()
	}
	s.blink.SetPeriod(s.periods[s.mode])
	if s.changed != nil {
		s.changed(s.mode)
	}
	return true
}
