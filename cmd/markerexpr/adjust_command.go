package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"markerexpr/internal/history"
	"markerexpr/internal/logging"
	"markerexpr/internal/markers"
	"markerexpr/internal/mediactx"
	"markerexpr/internal/plexdb"
	"markerexpr/internal/timeexpr"
)

type adjustReport struct {
	MetadataID int64  `json:"metadata_id" yaml:"metadata_id"`
	Input      string `json:"input" yaml:"input"`
	Shift      string `json:"shift" yaml:"shift"`
	ShiftMs    int64  `json:"shift_ms" yaml:"shift_ms"`
	BeforeMs   int64  `json:"before_ms" yaml:"before_ms"`
	AfterMs    int64  `json:"after_ms" yaml:"after_ms"`
	Canonical  string `json:"canonical" yaml:"canonical"`
}

func newAdjustCommand(ctx *commandContext) *cobra.Command {
	var isEnd bool
	var by string

	cmd := &cobra.Command{
		Use:   "adjust <metadata-id> <expression> --by <shift>",
		Short: "Shift an expression's result and rewrite it",
		Long: `Evaluate an expression against an item, shift the result by a plain
timestamp (which may be negative, e.g. --by -500), and print the expression
rewritten to produce the new value. References are kept.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, logger, err := ctx.begin(cmd)
			if err != nil {
				return err
			}
			id, err := parseMetadataID(args[0])
			if err != nil {
				return err
			}
			input := args[1]

			shift := timeexpr.New(timeexpr.Options{PlainOnly: true, AllowNegative: true})
			if state := shift.Parse(by); !state.Valid {
				return fmt.Errorf("invalid --by value %q: %s", by, state.InvalidReason)
			}
			shiftMs, err := shift.Evaluate(false)
			if err != nil {
				return err
			}

			runCtx = logging.WithMetadataID(runCtx, id)
			logger = logging.WithContext(runCtx, logger)
			report := adjustReport{MetadataID: id, Input: input, Shift: shift.String(), ShiftMs: shiftMs}
			err = ctx.withLoader(runCtx, logger, func(_ *plexdb.DB, loader *mediactx.Loader) error {
				media, err := loader.Load(runCtx, id)
				if err != nil {
					return err
				}
				expr := timeexpr.New(timeexpr.Options{IsEnd: isEnd})
				expr.Bind(media.Data)
				if state := expr.Parse(input); !state.Valid {
					return fmt.Errorf("invalid expression %q: %s", input, state.InvalidReason)
				}
				before, err := expr.Evaluate(false)
				if err != nil {
					return err
				}
				if err := expr.SetMs(before + shiftMs); err != nil {
					return fmt.Errorf("cannot shift %q by %s: %w", input, report.Shift, err)
				}
				after, err := expr.Evaluate(false)
				if err != nil {
					return err
				}
				report.BeforeMs = before
				report.AfterMs = after
				report.Canonical = expr.String()
				return nil
			})
			if err != nil {
				return err
			}

			ctx.recordHistory(runCtx, logger, history.Entry{
				Expression: report.Canonical,
				IsEnd:      isEnd,
				MetadataID: id,
				ResultMs:   &report.AfterMs,
			})
			return writeOutput(cmd, ctx, report, report.render)
		},
	}

	cmd.Flags().BoolVar(&isEnd, "end", false, "Treat the expression as an end timestamp")
	cmd.Flags().StringVar(&by, "by", "", "Plain timestamp to shift the result by")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func (r adjustReport) render(w io.Writer, colorize bool) error {
	return writeLines(w, []string{
		renderField("Input", r.Input),
		renderField("Shift", r.Shift),
		renderField("Before", markers.FormatMs(r.BeforeMs)),
		renderField("After", markers.FormatMs(r.AfterMs)),
		renderStatusLine("Expression", statusOK, r.Canonical, colorize),
	})
}
