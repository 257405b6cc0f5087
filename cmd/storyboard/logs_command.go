package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"storyboard/internal/fileutil"
	"storyboard/internal/logs"
	"storyboard/internal/services"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs <run-id>",
		Short: "Print the log of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := runLogPath(cfg.Paths.LogDir, args[0])
			if !follow && !fileutil.NonEmptyRegular(path) {
				return services.Wrap(services.ErrNotFound, "logs", "read", "no log for run "+args[0], nil)
			}

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 250*time.Millisecond, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to print")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as the run writes them")
	return cmd
}

func runLogPath(logDir, runID string) string {
	return filepath.Join(logDir, "runs", runID+".log")
}
