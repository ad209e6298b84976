package dds

import (
	"strings"

	"f4disco/x/mathx"
	"f4disco/x/strconvx"
	"f4disco/x/strx"
)

const (
	// Separator ends a command within a line.
	Separator byte = ';'
	// FieldSeparator splits the fields of a command.
	FieldSeparator = ":"
)

// Keep bounds: digits, ':' and ';'. Everything else on the line is noise.
const (
	keepLo byte = '0'
	keepHi byte = ';'
)

// IsNoise reports whether b is stripped from command lines.
func IsNoise(b byte) bool { return b < keepLo || b > keepHi }

// SplitLine strips noise from a completed line and returns its non-empty
// commands in order. The line terminator is not part of line.
func SplitLine(line []byte) []string {
	return strx.Fields(string(strx.KeepRange(line, keepLo, keepHi)), Separator)
}

// Update holds the fields of one command that passed validation.
type Update struct {
	Frequency    uint32
	Amplitude    uint8
	Waveform     Waveform
	HasFrequency bool
	HasAmplitude bool
	HasWaveform  bool
}

// ParseCommand validates each positional field on its own. Missing, empty,
// non-numeric and out-of-range fields are left unset; extra fields are
// ignored.
func ParseCommand(cmd string) Update {
	var u Update
	f := strings.SplitN(cmd, FieldSeparator, 4)
	if v, ok := field(f, 0, uint64(MinFrequency), uint64(MaxFrequency)); ok {
		u.Frequency, u.HasFrequency = uint32(v), true
	}
	if v, ok := field(f, 1, uint64(MinAmplitude), uint64(MaxAmplitude)); ok {
		u.Amplitude, u.HasAmplitude = uint8(v), true
	}
	if v, ok := field(f, 2, uint64(Sine), uint64(Triangle)); ok {
		u.Waveform, u.HasWaveform = Waveform(v), true
	}
	return u
}

func field(f []string, i int, lo, hi uint64) (uint64, bool) {
	if i >= len(f) {
		return 0, false
	}
	v, err := strconvx.ParseUint(f[i], 10, 32)
	if err != nil || !mathx.Between(v, lo, hi) {
		return 0, false
	}
	return v, true
}

// Apply copies the valid fields into p and reports whether any were set.
func (u Update) Apply(p *Params) bool {
	if u.HasFrequency {
		p.Frequency = u.Frequency
	}
	if u.HasAmplitude {
		p.Amplitude = u.Amplitude
	}
	if u.HasWaveform {
		p.Waveform = u.Waveform
	}
	return u.HasFrequency || u.HasAmplitude || u.HasWaveform
}

// Format renders p as a wire command without the separator.
func Format(p Params) string {
	return strconvx.FormatUint(uint64(p.Frequency), 10) + FieldSeparator +
		strconvx.FormatUint(uint64(p.Amplitude), 10) + FieldSeparator +
		strconvx.FormatUint(uint64(p.Waveform), 10)
}
