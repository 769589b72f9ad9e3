package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubeq/internal/logging"
	"tubeq/internal/partials"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove abandoned partial downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			root := cfg.Paths.DownloadDir

			if dryRun {
				files, err := partials.List(root)
				if err != nil {
					return err
				}
				cutoff := time.Now().Add(-olderThan)
				rows := make([][]string, 0, len(files))
				var total int64
				for _, file := range files {
					if !file.ModTime.Before(cutoff) {
						continue
					}
					rel, relErr := filepath.Rel(root, file.Path)
					if relErr != nil {
						rel = file.Path
					}
					rows = append(rows, []string{
						rel,
						humanize.IBytes(uint64(file.Size)),
						humanize.Time(file.ModTime),
					})
					total += file.Size
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "No stale partial downloads")
					return nil
				}
				fmt.Fprintln(out, renderTable(tableSpec{
					Headers:   []string{"File", "Size", "Modified"},
					Rows:      rows,
					Aligns:    []columnAlignment{alignLeft, alignRight, alignLeft},
					MaxWidths: []int{60, 0, 0},
				}))
				fmt.Fprintf(out, "Would remove %d file(s), %s\n", len(rows), humanize.IBytes(uint64(total)))
				return nil
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			result := partials.CleanStale(cmd.Context(), root, olderThan, logging.NewComponentLogger(logger, "partials"))
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "%s\n", renderStatusLine("Failed", statusError, fmt.Sprintf("%s: %v", failure.Path, failure.Error), shouldColorize(out)))
			}
			fmt.Fprintf(out, "Removed %d partial file(s), freed %s\n", len(result.Removed), humanize.IBytes(uint64(result.FreedBytes)))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d partial file(s) could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", partials.DefaultMaxAge, "Only remove partials not modified within this window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List stale partials without removing them")
	return cmd
}
