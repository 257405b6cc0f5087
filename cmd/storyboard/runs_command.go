package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"storyboard/internal/history"
	"storyboard/internal/prune"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.RunID,
					string(r.Status),
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					strconv.Itoa(r.LineCount),
					strconv.Itoa(r.Failures),
					formatElapsed(r),
					truncate(r.SourcePath, 40),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Status", "Started", "Lines", "Failed", "Elapsed", "Source"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.AddCommand(newRunsPruneCommand(ctx))
	cmd.AddCommand(newRunsRemoveCommand(ctx))
	return cmd
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than a cutoff, with their artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), 0)
			if err != nil {
				return err
			}
			ids := prune.Stale(records, olderThan, time.Now())
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "Nothing to prune")
				return nil
			}
			if dryRun {
				for _, id := range ids {
					fmt.Fprintf(out, "would remove %s\n", id)
				}
				return nil
			}
			return removeRuns(cmd, ctx, store, ids)
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum age of runs to delete")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the runs that would be deleted")
	return cmd
}

func newRunsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <run-id>...",
		Short: "Delete runs and their artifacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			return removeRuns(cmd, ctx, store, args)
		},
	}
}

func removeRuns(cmd *cobra.Command, ctx *commandContext, store *history.Store, ids []string) error {
	layout, err := ctx.layout()
	if err != nil {
		return err
	}
	logger, err := ctx.logger()
	if err != nil {
		return err
	}
	result := prune.Remove(cmd.Context(), layout, ids, logger)
	out := cmd.OutOrStdout()
	for _, id := range result.Runs {
		if err := store.Remove(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(out, "removed %s\n", id)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  %s: %v\n", e.Path, e.Error)
		}
		return fmt.Errorf("%d path(s) could not be removed", len(result.Errors))
	}
	return nil
}

func formatElapsed(r history.Record) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.Elapsed.Round(time.Second).String()
}
