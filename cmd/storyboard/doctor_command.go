package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"storyboard/internal/deps"
	"storyboard/internal/notifications"
	"storyboard/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var testNotify bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories and optional services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			problems := 0

			for _, line := range renderSectionHeader("External tools", color) {
				fmt.Fprintln(out, line)
			}
			for _, status := range preflight.CheckSystemDeps(cfg) {
				kind, msg := binaryStatus(status)
				if kind == statusError {
					problems++
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, msg, color))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Environment", color) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					problems++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, color))
			}

			if testNotify {
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Notifications", color) {
					fmt.Fprintln(out, line)
				}
				if cfg.Notifications.NtfyTopic == "" {
					fmt.Fprintln(out, renderStatusLine("ntfy", statusWarn, "notifications.ntfy_topic not set", color))
				} else if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					problems++
					fmt.Fprintln(out, renderStatusLine("ntfy", statusError, err.Error(), color))
				} else {
					fmt.Fprintln(out, renderStatusLine("ntfy", statusOK, "test message sent", color))
				}
			}

			if problems > 0 {
				return errors.New("doctor found problems; fix the items marked ERROR")
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&testNotify, "test-notification", false, "Send a test message to the configured ntfy topic")
	return cmd
}

func binaryStatus(status deps.Status) (statusKind, string) {
	if status.Available {
		return statusOK, status.Resolved
	}
	msg := status.Command
	if status.Detail != "" {
		msg = status.Detail
	}
	if status.Optional {
		return statusWarn, msg
	}
	return statusError, msg
}
