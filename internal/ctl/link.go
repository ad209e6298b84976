package ctl

import (
	"bytes"
	"errors"
	"io"
	"time"

	"f4disco/errcode"
	"f4disco/internal/dds"
)

// DefaultAckTimeout bounds the wait for all acks of one line.
const DefaultAckTimeout = 2 * time.Second

// Link sends command lines over a byte stream and collects the CRLF
// terminated acks. The stream may return (0, nil) or io.EOF when a read
// times out; both mean "nothing yet".
type Link struct {
	rw      io.ReadWriter
	term    byte
	timeout time.Duration
	rx      []byte

	// Sleep holds a step's dwell. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

func NewLink(rw io.ReadWriter, term byte, timeout time.Duration) *Link {
	if timeout <= 0 {
		timeout = DefaultAckTimeout
	}
	return &Link{rw: rw, term: term, timeout: timeout, Sleep: time.Sleep}
}

// Send writes cmds as one line and waits for their acks in order.
func (l *Link) Send(cmds []dds.Params) ([]string, error) {
	if len(cmds) == 0 {
		return nil, nil
	}
	if _, err := io.WriteString(l.rw, Line(cmds, l.term)); err != nil {
		return nil, &errcode.E{C: errcode.BusError, Op: "ctl.send", Err: err}
	}
	deadline := time.Now().Add(l.timeout)
	acks := make([]string, 0, len(cmds))
	for _, p := range cmds {
		ack, err := l.readAck(deadline)
		if err != nil {
			return acks, err
		}
		acks = append(acks, ack)
		if want := dds.Format(p); ack != want {
			return acks, &errcode.E{C: errcode.VerifyFailed, Op: "ctl.ack", Msg: ack + " != " + want}
		}
	}
	return acks, nil
}

// Run sends each step on its own line and holds it for its dwell.
// progress, when set, sees every acknowledged step.
func (l *Link) Run(steps []Step, progress func(i int, s Step)) error {
	for i, s := range steps {
		if _, err := l.Send([]dds.Params{s.Params}); err != nil {
			return err
		}
		if progress != nil {
			progress(i, s)
		}
		if s.Dwell > 0 {
			l.Sleep(s.Dwell)
		}
	}
	return nil
}

func (l *Link) readAck(deadline time.Time) (string, error) {
	var buf [64]byte
	for {
		if i := bytes.Index(l.rx, []byte("\r\n")); i >= 0 {
			ack := string(l.rx[:i])
			l.rx = l.rx[i+2:]
			return ack, nil
		}
		if time.Now().After(deadline) {
			return "", &errcode.E{C: errcode.Timeout, Op: "ctl.ack"}
		}
		n, err := l.rw.Read(buf[:])
		l.rx = append(l.rx, buf[:n]...)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", &errcode.E{C: errcode.BusError, Op: "ctl.recv", Err: err}
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}
