//go:build !tinygo && !windows

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"f4disco/internal/ctl"
)

var formatCmd = &cobra.Command{
	Use:   "format freq:amp:wave [freq:amp:wave ...]",
	Short: "Print the line send would write",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, err := parseArgs(args)
		if err != nil {
			return err
		}
		tb, err := terminator()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ctl.Line(cmds, tb))
		return nil
	},
}
