package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyboard/internal/fileutil"
	"storyboard/internal/story"
)

func newCSVCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "csv2txt <in.csv> <out.txt>",
		Short:       "Write the last column of a CSV file as a story text file",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer in.Close()

			var buf bytes.Buffer
			n, err := story.CSVToText(in, &buf)
			if err != nil {
				return err
			}
			if err := fileutil.WriteFileAtomic(args[1], buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d lines to %s\n", n, args[1])
			return nil
		},
	}
}
