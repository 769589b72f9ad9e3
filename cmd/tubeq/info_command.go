package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubeq/internal/engine"
	"tubeq/internal/logging"
	"tubeq/internal/queue"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <url>",
		Short: "Show metadata for a URL without downloading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			eng := ctx.engine(cfg, logging.NewNop())
			meta, err := eng.ExtractMetadata(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("extract metadata: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, meta)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderMetadata(meta))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output metadata as JSON")
	return cmd
}

func renderMetadata(meta engine.Metadata) string {
	duration := queue.Item{DurationSeconds: meta.DurationSeconds}.FormatDuration()
	size := "Unknown"
	if meta.SizeBytes > 0 {
		size = humanize.IBytes(uint64(meta.SizeBytes))
	}

	rows := [][]string{
		{"Title", meta.Title},
		{"Uploader", meta.Uploader},
		{"Extractor", meta.Extractor},
		{"URL", meta.WebpageURL},
		{"Playlist", yesNo(meta.IsGroup())},
	}
	if meta.IsGroup() {
		rows = append(rows, []string{"Entries", strconv.Itoa(len(meta.Entries))})
	} else {
		rows = append(rows,
			[]string{"Duration", duration},
			[]string{"Size", size},
		)
	}
	summary := renderTable(tableSpec{
		Headers:   []string{"Field", "Value"},
		Rows:      rows,
		MaxWidths: []int{0, 80},
	})
	if !meta.IsGroup() {
		return summary + "\n"
	}

	entries := make([][]string, 0, len(meta.Entries))
	for _, entry := range meta.Entries {
		entries = append(entries, []string{
			strconv.Itoa(entry.Index),
			entry.Title,
			queue.Item{DurationSeconds: entry.DurationSeconds}.FormatDuration(),
			entry.URL,
		})
	}
	return summary + "\n" + renderTable(tableSpec{
		Headers:   []string{"#", "Title", "Length", "URL"},
		Rows:      entries,
		Aligns:    []columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
		MaxWidths: []int{0, 48, 0, 60},
	}) + "\n"
}
