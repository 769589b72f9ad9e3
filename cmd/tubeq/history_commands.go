package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubeq/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage download history",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryStatsCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))

	return historyCmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	store, err := c.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var (
		status string
		search string
		since  time.Duration
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List finished downloads, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := history.Filter{
				Query: search,
				Limit: limit,
			}
			switch strings.ToLower(strings.TrimSpace(status)) {
			case "":
			case history.OutcomeCompleted, history.OutcomeFailed:
				filter.Status = strings.ToLower(strings.TrimSpace(status))
			default:
				return fmt.Errorf("unknown status %q (use %s or %s)", status, history.OutcomeCompleted, history.OutcomeFailed)
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			return ctx.withHistory(func(store *history.Store) error {
				entries, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					if entries == nil {
						entries = []history.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "History is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
					Headers:   []string{"ID", "Title", "Status", "Size", "Finished"},
					Rows:      buildHistoryRows(entries, time.Now()),
					Aligns:    []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					MaxWidths: []int{0, 48, 0, 0, 0},
				}))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show completed or failed entries")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Match title or URL (case-insensitive)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only show entries finished within this window (e.g. 72h)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output entries as JSON")
	return cmd
}

func buildHistoryRows(entries []history.Entry, now time.Time) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		title := entry.Title
		if strings.TrimSpace(title) == "" {
			title = entry.URL
		}
		size := "-"
		if entry.SizeBytes > 0 {
			size = humanize.IBytes(uint64(entry.SizeBytes))
		}
		rows = append(rows, []string{
			entry.ID,
			title,
			entry.Status,
			size,
			humanize.RelTime(entry.FinishedAt, now, "ago", "from now"),
		})
	}
	return rows
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize download history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				sum, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Total", humanize.Comma(int64(sum.Total))},
					{"Completed", humanize.Comma(int64(sum.Completed))},
					{"Failed", humanize.Comma(int64(sum.Failed))},
					{"Downloaded", humanize.IBytes(uint64(sum.TotalBytes))},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
					Headers: []string{"Metric", "Value"},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignRight},
				}))
				return nil
			})
		},
	}
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove entries so their URLs download again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				var missing []string
				for _, id := range args {
					err := store.Remove(cmd.Context(), id)
					switch {
					case errors.Is(err, history.ErrNotFound):
						missing = append(missing, id)
					case err != nil:
						return err
					default:
						fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
					}
				}
				if len(missing) > 0 {
					return fmt.Errorf("not found: %s", strings.Join(missing, ", "))
				}
				return nil
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear history without --yes")
			}
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d history entries\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm deletion")
	return cmd
}
