//go:build !tinygo && !windows

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"f4disco/internal/ctl"
	"f4disco/internal/dds"
)

var sendCmd = &cobra.Command{
	Use:   "send freq:amp:wave [freq:amp:wave ...]",
	Short: "Send commands on one line",
	Long:  "Send one or more commands as a single line and print each acknowledgement.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, err := parseArgs(args)
		if err != nil {
			return err
		}
		link, dev, err := openLink()
		if err != nil {
			return err
		}
		defer dev.Close()

		acks, err := link.Send(cmds)
		for _, a := range acks {
			fmt.Fprintln(cmd.OutOrStdout(), a)
		}
		return err
	},
}

func parseArgs(args []string) ([]dds.Params, error) {
	cmds := make([]dds.Params, 0, len(args))
	for _, a := range args {
		p, err := ctl.ParseArg(a)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, p)
	}
	return cmds, nil
}
