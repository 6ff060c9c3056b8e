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

func newEvalCommand(ctx *commandContext) *cobra.Command {
	var isEnd, final, copyResult, paste bool

	cmd := &cobra.Command{
		Use:   "eval <metadata-id> [expression]",
		Short: "Evaluate an expression against an episode or movie",
		Long: `Resolve an expression against the markers and chapters of one episode or
movie. With --final, a bare marker reference is moved one millisecond outside
the marker so a new marker does not share its boundary.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, logger, err := ctx.begin(cmd)
			if err != nil {
				return err
			}
			id, err := parseMetadataID(args[0])
			if err != nil {
				return err
			}
			input, err := ctx.expressionArg(args, 1, paste)
			if err != nil {
				return err
			}
			runCtx = logging.WithMetadataID(runCtx, id)
			logger = logging.WithContext(runCtx, logger)

			var report stateReport
			var chapterWarning string
			err = ctx.withLoader(runCtx, logger, func(_ *plexdb.DB, loader *mediactx.Loader) error {
				media, err := loader.Load(runCtx, id)
				if err != nil {
					return err
				}
				chapterWarning = media.ChapterWarning
				expr := timeexpr.New(timeexpr.Options{IsEnd: isEnd})
				expr.Bind(media.Data)
				expr.Parse(input)
				report = evaluateReport(input, expr, final)
				report.MetadataID = id
				return nil
			})
			if err != nil {
				return err
			}
			logger.Debug("expression evaluated",
				"canonical", report.Canonical,
				"outcome", report.Outcome,
			)

			if report.Outcome == outcomeValue {
				ctx.recordHistory(runCtx, logger, history.Entry{
					Expression: report.Canonical,
					IsEnd:      isEnd,
					MetadataID: id,
					ResultMs:   report.ResultMs,
				})
				if copyResult {
					if err := ctx.writeClipboard(markers.FormatMs(*report.ResultMs)); err != nil {
						return fmt.Errorf("copy result: %w", err)
					}
				}
			}

			render := func(w io.Writer, colorize bool) error {
				if err := report.render(w, colorize); err != nil {
					return err
				}
				if chapterWarning != "" {
					_, err := fmt.Fprintln(w, renderStatusLine("Chapters", statusWarn, chapterWarning, colorize))
					return err
				}
				return nil
			}
			if err := writeOutput(cmd, ctx, report, render); err != nil {
				return err
			}
			return report.failure()
		},
	}

	cmd.Flags().BoolVar(&isEnd, "end", false, "Treat the expression as an end timestamp")
	cmd.Flags().BoolVar(&final, "final", false, "Apply final-evaluation rules for marker references")
	cmd.Flags().BoolVar(&copyResult, "copy", false, "Copy the resolved timestamp to the clipboard")
	cmd.Flags().BoolVar(&paste, "paste", false, "Read the expression from the clipboard")
	return cmd
}
