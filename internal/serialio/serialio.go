// Package serialio moves received serial bytes from the port into a ring
// (producer side) and frames them into terminator-delimited lines on the
// foreground side.
package serialio

import (
	"context"
	"errors"
	"io"
	"time"

	"f4disco/errcode"
	"f4disco/x/shmring"
	"f4disco/x/timex"
)

// Port is a serial device with a context-bounded receive.
type Port interface {
	io.Writer
	// RecvSomeContext blocks until at least one byte arrives or ctx ends.
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

// DefaultSlice bounds each blocking receive so Pump notices cancellation.
const DefaultSlice = 250 * time.Millisecond

// Pump copies received bytes into r until ctx ends or the port reports EOF.
// It only receives into the space r has free and waits for the reader while
// the ring is full, so bytes stay in the port until there is room.
func Pump(ctx context.Context, p Port, r *shmring.Ring, slice time.Duration) error {
	if slice <= 0 {
		slice = DefaultSlice
	}
	buf := make([]byte, 64)
	for {
		for r.Space() == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.Writable():
			}
		}
		n := r.Space()
		if n > len(buf) {
			n = len(buf)
		}
		rctx, cancel := context.WithTimeout(ctx, slice)
		got, err := p.RecvSomeContext(rctx, buf[:n])
		cancel()
		if got > 0 {
			r.TryWriteFrom(buf[:got])
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			return err
		}
	}
}

// DefaultMaxLine is the longest line kept; ten 15-byte commands plus separators.
const DefaultMaxLine = 160

// LineReader accumulates bytes from a ring into lines closed by term.
// A partial line survives across calls.
type LineReader struct {
	r    *shmring.Ring
	term byte
	max  int

	buf       []byte
	skipping  bool
	overflows uint32
	timer     *time.Timer
}

func NewLineReader(r *shmring.Ring, term byte, max int) *LineReader {
	if max <= 0 {
		max = DefaultMaxLine
	}
	return &LineReader{r: r, term: term, max: max, buf: make([]byte, 0, max)}
}

// Ready reports whether unread bytes are waiting in the ring.
func (l *LineReader) Ready() bool { return l.r.Available() > 0 }

// Pending is the length of the partial line held so far.
func (l *LineReader) Pending() int { return len(l.buf) }

// Overflows counts lines discarded for exceeding the maximum length.
func (l *LineReader) Overflows() uint32 { return l.overflows }

// Poll consumes waiting bytes up to and including the next terminator and
// returns the completed line without it. Bytes after the terminator stay
// in the ring. It never blocks.
func (l *LineReader) Poll() ([]byte, bool) {
	var one [1]byte
	for l.r.TryReadInto(one[:]) == 1 {
		b := one[0]
		if b == l.term {
			if l.skipping {
				l.skipping = false
				l.buf = l.buf[:0]
				continue
			}
			line := append([]byte(nil), l.buf...)
			l.buf = l.buf[:0]
			return line, true
		}
		if l.skipping {
			continue
		}
		if len(l.buf) == l.max {
			l.skipping = true
			l.overflows++
			continue
		}
		l.buf = append(l.buf, b)
	}
	return nil, false
}

// ReadLine waits for a complete line. It gives up with errcode.Timeout once
// limit has passed since the call began, however many bytes arrived, or
// with ctx's error; the partial line is kept either way.
func (l *LineReader) ReadLine(ctx context.Context, limit time.Duration) ([]byte, error) {
	if l.timer == nil {
		l.timer = time.NewTimer(limit)
	} else {
		timex.ResetTimer(l.timer, limit)
	}
	defer l.timer.Stop()
	for {
		if line, ok := l.Poll(); ok {
			return line, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.timer.C:
			return nil, errcode.Timeout
		case <-l.r.Readable():
		}
	}
}
