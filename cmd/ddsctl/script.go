//go:build !tinygo && !windows

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"f4disco/internal/ctl"
)

var (
	scriptDryRun bool

	scriptCmd = &cobra.Command{
		Use:   "script profile.yaml",
		Short: "Play a YAML profile of settings and sweeps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			prof, err := ctl.ParseProfile(src)
			if err != nil {
				return err
			}
			steps, err := prof.Plan()
			if err != nil {
				return err
			}
			// The profile's terminator wins over the flag unless the flag was set.
			if !cmd.Flags().Changed("term") {
				rootOpts.term = prof.Terminator
			}
			if rootOpts.verbose {
				log.Printf("%s: %d steps", args[0], len(steps))
			}
			return runSteps(cmd, steps, scriptDryRun)
		},
	}
)

func init() {
	scriptCmd.Flags().BoolVarP(&scriptDryRun, "dry-run", "n", false, "print the lines without opening the port")
}
