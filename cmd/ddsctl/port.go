//go:build !tinygo && !windows

package main

import (
	"errors"
	"log"
	"time"

	"github.com/pkg/term"

	"f4disco/internal/ctl"
	"f4disco/internal/dds"
)

// readSlice is how long one read waits before reporting no data.
const readSlice = 100 * time.Millisecond

func terminator() (byte, error) {
	t := rootOpts.term
	if len(t) != 1 || !dds.IsNoise(t[0]) {
		return 0, errors.New("terminator must be one byte outside '0'..';'")
	}
	return t[0], nil
}

// openLink opens the port raw at the configured speed and wraps it in a
// Link. The caller closes the returned port.
func openLink() (*ctl.Link, *term.Term, error) {
	tb, err := terminator()
	if err != nil {
		return nil, nil, err
	}
	dev, err := term.Open(rootOpts.port,
		term.RawMode,
		term.Speed(rootOpts.baud),
		term.ReadTimeout(readSlice),
	)
	if err != nil {
		return nil, nil, err
	}
	// Drop whatever the board printed before we attached.
	if err := dev.Flush(); err != nil {
		log.Printf("flush %s: %v", rootOpts.port, err)
	}
	return ctl.NewLink(dev, tb, rootOpts.timeout), dev, nil
}

func progress(i int, s ctl.Step) {
	if rootOpts.verbose {
		log.Printf("step %d: %s hold %v", i, dds.Format(s.Params), s.Dwell)
	}
}
