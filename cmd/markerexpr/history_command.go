package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"markerexpr/internal/history"
	"markerexpr/internal/markers"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear recently used expressions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, ctx)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recently used expressions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, ctx)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, logger, err := ctx.begin(cmd)
			if err != nil {
				return err
			}
			if err := ctx.historyStore(logger).Clear(runCtx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return nil
		},
	})
	return cmd
}

func runHistoryList(cmd *cobra.Command, ctx *commandContext) error {
	runCtx, logger, err := ctx.begin(cmd)
	if err != nil {
		return err
	}
	entries, err := ctx.historyStore(logger).List(runCtx)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return writeOutput(cmd, ctx, entries, func(w io.Writer, colorize bool) error {
		return renderHistory(w, entries, colorize)
	})
}

func renderHistory(w io.Writer, entries []history.Entry, colorize bool) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No history")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		item := ""
		if e.MetadataID != 0 {
			item = strconv.FormatInt(e.MetadataID, 10)
		}
		result := ""
		if e.ResultMs != nil {
			result = markers.FormatMs(*e.ResultMs)
		}
		rows = append(rows, []string{
			e.Expression,
			sideLabel(e.IsEnd),
			item,
			result,
			e.UsedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	_, err := fmt.Fprintln(w, renderTable(
		[]string{"Expression", "Side", "Item", "Result", "Used"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		colorize,
	))
	return err
}
