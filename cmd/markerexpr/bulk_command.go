package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"markerexpr/internal/logging"
	"markerexpr/internal/markers"
	"markerexpr/internal/mediactx"
	"markerexpr/internal/plexdb"
	"markerexpr/internal/timeexpr"
)

type bulkRow struct {
	MetadataID int64  `json:"metadata_id" yaml:"metadata_id"`
	Title      string `json:"title" yaml:"title"`
	Index      int    `json:"index" yaml:"index"`
	Valid      bool   `json:"valid" yaml:"valid"`
	ResultMs   *int64 `json:"result_ms,omitempty" yaml:"result_ms,omitempty"`
	Result     string `json:"result,omitempty" yaml:"result,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

type bulkReport struct {
	ParentID  int64     `json:"parent_id" yaml:"parent_id"`
	Input     string    `json:"input" yaml:"input"`
	Canonical string    `json:"canonical" yaml:"canonical"`
	IsEnd     bool      `json:"is_end" yaml:"is_end"`
	Rows      []bulkRow `json:"rows" yaml:"rows"`
	Resolved  int       `json:"resolved" yaml:"resolved"`
	Failed    int       `json:"failed" yaml:"failed"`
}

func newBulkCommand(ctx *commandContext) *cobra.Command {
	var isEnd, final bool

	cmd := &cobra.Command{
		Use:   "bulk <metadata-id> <expression>",
		Short: "Apply one expression to every episode under a show or season",
		Long: `Parse the expression once and apply it to each episode under a show or
season (or to a single episode or movie). Rows whose reference cannot be
resolved are reported individually; other rows still resolve.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, logger, err := ctx.begin(cmd)
			if err != nil {
				return err
			}
			parentID, err := parseMetadataID(args[0])
			if err != nil {
				return err
			}
			input := args[1]

			baseline := timeexpr.New(timeexpr.Options{IsEnd: isEnd})
			state := baseline.Parse(input)
			if !state.Valid {
				return fmt.Errorf("invalid expression %q: %s", input, state.InvalidReason)
			}

			report := bulkReport{
				ParentID:  parentID,
				Input:     input,
				Canonical: baseline.String(),
				IsEnd:     isEnd,
				Rows:      []bulkRow{},
			}
			runCtx = logging.WithMetadataID(runCtx, parentID)
			logger = logging.WithContext(runCtx, logger)
			err = ctx.withLoader(runCtx, logger, func(db *plexdb.DB, loader *mediactx.Loader) error {
				items, err := db.Episodes(runCtx, parentID)
				if err != nil {
					return err
				}
				ids := make([]int64, len(items))
				for i, item := range items {
					ids[i] = item.ID
				}
				all, err := loader.LoadAll(runCtx, ids)
				if err != nil {
					return err
				}
				for _, media := range all {
					row := applyBaseline(state, isEnd, final, media)
					if row.Valid {
						report.Resolved++
					} else {
						report.Failed++
					}
					report.Rows = append(report.Rows, row)
				}
				return nil
			})
			if err != nil {
				return err
			}
			logger.Info("bulk evaluation complete",
				logging.String(logging.FieldEventType, "bulk_complete"),
				logging.Int("resolved", report.Resolved),
				logging.Int("failed", report.Failed),
			)
			return writeOutput(cmd, ctx, report, report.render)
		},
	}

	cmd.Flags().BoolVar(&isEnd, "end", false, "Treat the expression as an end timestamp")
	cmd.Flags().BoolVar(&final, "final", false, "Apply final-evaluation rules for marker references")
	return cmd
}

// applyBaseline evaluates a copy of state against one media item.
func applyBaseline(state timeexpr.ParseState, isEnd, final bool, media mediactx.Media) bulkRow {
	row := bulkRow{
		MetadataID: media.Item.ID,
		Title:      media.Item.Title,
		Index:      media.Item.Index,
	}
	expr := timeexpr.New(timeexpr.Options{IsEnd: isEnd})
	expr.Bind(media.Data)
	next := expr.UpdateState(state)
	if !next.Valid {
		row.Error = next.InvalidReason
		return row
	}
	ms, err := expr.Evaluate(final)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Valid = true
	row.ResultMs = &ms
	row.Result = markers.FormatMs(ms)
	return row
}

func (r bulkReport) render(w io.Writer, colorize bool) error {
	lines := []string{
		renderField("Expression", r.Canonical),
		renderField("Side", sideLabel(r.IsEnd)),
	}
	if len(r.Rows) == 0 {
		return writeLines(w, append(lines, "No episodes"))
	}
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		result := row.Result
		if !row.Valid {
			result = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(row.MetadataID, 10),
			strconv.Itoa(row.Index),
			row.Title,
			result,
			row.Error,
		})
	}
	lines = append(lines, renderTable(
		[]string{"ID", "#", "Title", "Result", "Error"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft},
		colorize,
	))
	kind := statusOK
	if r.Failed > 0 {
		kind = statusWarn
	}
	lines = append(lines, renderStatusLine("Summary", kind,
		fmt.Sprintf("%d resolved, %d failed", r.Resolved, r.Failed), colorize))
	return writeLines(w, lines)
}
