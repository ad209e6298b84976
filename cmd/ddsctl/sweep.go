//go:build !tinygo && !windows

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"f4disco/internal/ctl"
	"f4disco/internal/dds"
)

var (
	sweepOpts = struct {
		from, to uint32
		steps    int
		amp      uint8
		wave     string
		dwell    time.Duration
		dryRun   bool
	}{}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Step the frequency across a log-spaced range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctl.ParseWaveform(sweepOpts.wave)
			if err != nil {
				return err
			}
			steps, err := ctl.Sweep{
				From:      sweepOpts.from,
				To:        sweepOpts.to,
				Steps:     sweepOpts.steps,
				Amplitude: sweepOpts.amp,
				Waveform:  ctl.Wave(w),
				Dwell:     sweepOpts.dwell,
			}.Plan()
			if err != nil {
				return err
			}
			return runSteps(cmd, steps, sweepOpts.dryRun)
		},
	}
)

func init() {
	f := sweepCmd.Flags()
	f.Uint32Var(&sweepOpts.from, "from", 100, "start frequency in Hz")
	f.Uint32Var(&sweepOpts.to, "to", 10000, "end frequency in Hz")
	f.IntVar(&sweepOpts.steps, "steps", 20, "number of points")
	f.Uint8Var(&sweepOpts.amp, "amp", 128, "amplitude 1..255")
	f.StringVar(&sweepOpts.wave, "wave", "sine", "waveform: sine, square or triangle")
	f.DurationVar(&sweepOpts.dwell, "dwell", 100*time.Millisecond, "time held at each point")
	f.BoolVarP(&sweepOpts.dryRun, "dry-run", "n", false, "print the lines without opening the port")
}

func runSteps(cmd *cobra.Command, steps []ctl.Step, dry bool) error {
	if dry {
		tb, err := terminator()
		if err != nil {
			return err
		}
		for _, s := range steps {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", ctl.Line([]dds.Params{s.Params}, tb), s.Dwell)
		}
		return nil
	}
	link, dev, err := openLink()
	if err != nil {
		return err
	}
	defer dev.Close()
	return link.Run(steps, progress)
}
