// Package dds owns the signal-parameters record and the serial command
// protocol that edits it: "freq:amp:wave" commands separated by ';' on a
// line closed by a terminator byte.
package dds

import "f4disco/x/mathx"

// Waveform is the generator output shape. The numeric values are the wire
// selector values.
type Waveform uint8

const (
	Sine Waveform = iota
	Square
	Triangle
)

func (w Waveform) Valid() bool { return w <= Triangle }

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	}
	return "invalid"
}

// Legal field ranges, inclusive.
const (
	MinFrequency uint32 = 1
	MaxFrequency uint32 = 12_500_000
	MinAmplitude uint8  = 1
	MaxAmplitude uint8  = 255
)

// Params is the record the generator is initialised from.
type Params struct {
	Frequency uint32   `json:"frequency" yaml:"frequency"`
	Amplitude uint8    `json:"amplitude" yaml:"amplitude"`
	Waveform  Waveform `json:"waveform" yaml:"waveform"`
}

// DefaultParams is used until a stored or configured record is loaded.
var DefaultParams = Params{Frequency: 1000, Amplitude: 128, Waveform: Sine}

func (p Params) Valid() bool {
	return mathx.Between(p.Frequency, MinFrequency, MaxFrequency) &&
		mathx.Between(p.Amplitude, MinAmplitude, MaxAmplitude) &&
		p.Waveform.Valid()
}

// Generator re-initialises the waveform hardware from a record.
type Generator interface {
	Init(p Params) error
}
