//go:build !tinygo && !windows

// Command ddsctl drives the signal generator firmware over its serial
// command link.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"f4disco/internal/ctl"
)

var (
	rootOpts = struct {
		port    string
		baud    int
		timeout time.Duration
		term    string
		verbose bool
	}{}

	rootCmd = &cobra.Command{
		Use:          "ddsctl",
		Short:        "Control the DDS signal generator",
		Long:         "Send freq:amp:wave commands, sweeps and scripted profiles to the board and check every acknowledgement.",
		SilenceUsage: true,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootOpts.port, "port", "p", "/dev/ttyACM0", "serial port connected to the board")
	pf.IntVarP(&rootOpts.baud, "baud", "b", 115200, "baud rate")
	pf.DurationVarP(&rootOpts.timeout, "timeout", "t", ctl.DefaultAckTimeout, "time allowed for the acks of one line")
	pf.StringVar(&rootOpts.term, "term", string(rune(ctl.DefaultTerminator)), "line terminator the board expects")
	pf.BoolVarP(&rootOpts.verbose, "verbose", "v", false, "log every acknowledged step")

	rootCmd.AddCommand(sendCmd, sweepCmd, scriptCmd, formatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
