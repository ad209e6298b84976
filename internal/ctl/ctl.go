// Package ctl is the host side of the serial command protocol: it builds
// command lines, plans sweeps and scripted profiles, and talks to a board
// over any byte stream.
package ctl

import (
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"f4disco/errcode"
	"f4disco/internal/dds"
	"f4disco/x/mathx"
)

// DefaultTerminator closes every line sent to the board.
const DefaultTerminator = '!'

// Step is one command and how long to hold it.
type Step struct {
	Params dds.Params
	Dwell  time.Duration
}

// ParseArg accepts a complete "freq:amp:wave" command. Unlike the board,
// which applies valid fields and skips the rest, the host refuses any
// invalid field so typos never reach the generator.
func ParseArg(s string) (dds.Params, error) {
	u := dds.ParseCommand(s)
	if !u.HasFrequency || !u.HasAmplitude || !u.HasWaveform {
		return dds.Params{}, &errcode.E{C: errcode.InvalidField, Op: "ctl.parse", Msg: s}
	}
	var p dds.Params
	u.Apply(&p)
	return p, nil
}

// Line joins cmds with the command separator and closes the line with term.
func Line(cmds []dds.Params, term byte) string {
	var b strings.Builder
	for i, p := range cmds {
		if i > 0 {
			b.WriteByte(dds.Separator)
		}
		b.WriteString(dds.Format(p))
	}
	b.WriteByte(term)
	return b.String()
}

// ParseWaveform accepts a selector number or a name.
func ParseWaveform(s string) (dds.Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "sine", "sin":
		return dds.Sine, nil
	case "1", "square", "sq":
		return dds.Square, nil
	case "2", "triangle", "tri":
		return dds.Triangle, nil
	}
	return 0, &errcode.E{C: errcode.InvalidField, Op: "ctl.waveform", Msg: s}
}

// Sweep is a log-spaced frequency ramp at fixed amplitude and waveform.
type Sweep struct {
	From      uint32        `yaml:"from"`
	To        uint32        `yaml:"to"`
	Steps     int           `yaml:"steps"`
	Amplitude uint8         `yaml:"amplitude"`
	Waveform  Wave          `yaml:"waveform"`
	Dwell     time.Duration `yaml:"dwell"`
}

// Plan expands the sweep. Neighbouring points that round to the same
// frequency collapse into one step.
func (s Sweep) Plan() ([]Step, error) {
	if s.Steps < 2 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "ctl.sweep", Msg: "need at least 2 steps"}
	}
	base := dds.Params{Frequency: s.From, Amplitude: s.Amplitude, Waveform: dds.Waveform(s.Waveform)}
	end := base
	end.Frequency = s.To
	if !base.Valid() || !end.Valid() {
		return nil, &errcode.E{C: errcode.OutOfRange, Op: "ctl.sweep", Msg: "frequency, amplitude or waveform"}
	}

	hz := floats.LogSpan(make([]float64, s.Steps), float64(s.From), float64(s.To))
	out := make([]Step, 0, len(hz))
	for _, f := range hz {
		p := base
		p.Frequency = mathx.Clamp(uint32(math.Round(f)), s.From, s.To)
		if n := len(out); n > 0 && out[n-1].Params.Frequency == p.Frequency {
			continue
		}
		out = append(out, Step{Params: p, Dwell: s.Dwell})
	}
	return out, nil
}
