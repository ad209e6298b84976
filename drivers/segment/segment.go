// Package segment drives a multiplexed common-anode 7-segment display.
//
// One position is lit at a time: position selects are active low, segment
// lines are active high. A caller cycles positions fast enough to persist.
package segment

// Segment bit positions in a mask, laid out as 0b0ABCDEFG.
const (
	SegG = 1 << iota
	SegF
	SegE
	SegD
	SegC
	SegB
	SegA
)

// Minus is the mask for '-'.
const Minus = SegD

var digitMasks = [10]uint8{0x77, 0x30, 0x6E, 0x7C, 0x39, 0x5D, 0x5F, 0x70, 0x7F, 0x7D}

// letterMasks covers a..z; zero entries have no usable glyph.
var letterMasks = [26]uint8{
	0x7B, 0x1F, 0x47, 0x3E, 0x4F, 0x4B, 0x57, 0x3B, 0x03, 0x34, // a..j
	0x00, 0x07, 0x00, 0x1A, 0x1E, 0x6B, 0x79, 0x0A, 0x5D, 0x0F, // k..t
	0x37, 0x16, 0x00, 0x00, 0x3D, 0x00, // u..z
}

// Mask returns the segment mask for ch. Letters ignore case. Characters
// without a glyph report false and a blank mask.
func Mask(ch byte) (uint8, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return digitMasks[ch-'0'], true
	case ch == '-':
		return Minus, true
	case ch == ' ':
		return 0, true
	case ch >= 'A' && ch <= 'Z':
		ch += 'a' - 'A'
		fallthrough
	case ch >= 'a' && ch <= 'z':
		m := letterMasks[ch-'a']
		return m, m != 0
	}
	return 0, false
}

type Pin interface {
	Set(level bool)
}

// Display owns the position selects and the A..G segment lines.
type Display struct {
	positions []Pin
	segments  [7]Pin // A..G
}

// New builds a display; segments are given in A..G order.
func New(positions []Pin, segments [7]Pin) *Display {
	d := &Display{positions: positions, segments: segments}
	d.Clear()
	return d
}

func (d *Display) Positions() int { return len(d.positions) }

// Clear deselects every position and drops every segment.
func (d *Display) Clear() {
	for _, p := range d.positions {
		p.Set(true)
	}
	for _, s := range d.segments {
		s.Set(false)
	}
}

// Show lights ch at pos. Out-of-range positions leave the display dark.
func (d *Display) Show(pos int, ch byte) {
	d.Clear()
	if pos < 0 || pos >= len(d.positions) {
		return
	}
	m, _ := Mask(ch)
	d.positions[pos].Set(false)
	for i, s := range d.segments {
		// segments[0] is A, which is bit 6
		s.Set(m&(SegA>>i) != 0)
	}
}
