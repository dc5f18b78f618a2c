package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"github.com/atinylittleshell/gshctx/internal/history"
	"github.com/atinylittleshell/gshctx/internal/styles"
)

const (
	// maxCommandWidth is where long commands are cut in history listings.
	maxCommandWidth = 60
	outcomeWidth    = 11
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		search string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}

			var (
				entries []history.HistoryEntry
				err     error
			)
			if search != "" {
				entries, err = a.history.SearchHistory(search, limit)
			} else {
				entries, err = a.history.GetRecentEntries("", limit)
			}
			if err != nil {
				return err
			}

			writeHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy search commands")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete one history entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid history id %q: %w", args[0], err)
				}
				if err := a.setup(cmd.ErrOrStderr()); err != nil {
					return err
				}
				return a.history.DeleteEntry(uint(id))
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Delete all history entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.setup(cmd.ErrOrStderr()); err != nil {
					return err
				}
				return a.history.ResetHistory()
			},
		},
	)
	return cmd
}

func writeHistory(w io.Writer, entries []history.HistoryEntry) {
	for _, entry := range entries {
		exitCode := "-"
		if entry.ExitCode.Valid {
			exitCode = strconv.Itoa(int(entry.ExitCode.Int32))
		}
		fmt.Fprintf(w, "%5d  %-14s %s %3s  %s\n",
			entry.ID,
			humanize.Time(entry.CreatedAt),
			outcomeCell(entry.Outcome, styles.OUTCOME),
			exitCode,
			truncate.StringWithTail(entry.Command, maxCommandWidth, "…"),
		)
	}
}

// outcomeCell pads the coloured outcome by its visible width so escape
// codes do not shift the columns after it.
func outcomeCell(outcome string, colour func(string) string) string {
	return padding.String(colour(outcome), outcomeWidth)
}
