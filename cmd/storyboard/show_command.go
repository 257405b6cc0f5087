package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storyboard/internal/fileutil"
	"storyboard/internal/logging"
	"storyboard/internal/story"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-line artifact status for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.cacheManager(logging.NewNop())
			if err != nil {
				return err
			}
			run, err := cache.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\nSource: %s\n", run.ID, run.SourcePath)
			if run.Prompt != (story.PromptTemplate{}) {
				fmt.Fprintf(out, "Prompt: %q ... %q\n", run.Prompt.Prefix, run.Prompt.Suffix)
			}

			rows := make([][]string, 0, len(run.Lines))
			for _, line := range run.Lines {
				row := []string{strconv.Itoa(line.Index), truncate(line.Text, 48)}
				for _, kind := range story.MediaKinds {
					row = append(row, yesNo(fileutil.NonEmptyRegular(line.Ref(kind))))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Text", "Audio", "Image", "Video"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			for _, kind := range story.MediaKinds {
				fmt.Fprintf(out, "%s: %d/%d\n", kind, run.Completed(kind), len(run.Lines))
			}
			final := cache.Layout().FinalVideo(run.ID)
			if fileutil.NonEmptyRegular(final) {
				fmt.Fprintf(out, "Final video: %s\n", final)
			} else {
				fmt.Fprintln(out, "Final video: not produced")
			}
			return nil
		},
	}
}
