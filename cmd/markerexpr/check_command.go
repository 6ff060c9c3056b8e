package main

import (
	"github.com/spf13/cobra"

	"markerexpr/internal/history"
	"markerexpr/internal/timeexpr"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var isEnd, plainOnly, allowNegative, paste bool

	cmd := &cobra.Command{
		Use:   "check [expression]",
		Short: "Parse an expression without a media item",
		Long: `Parse an expression and report its canonical form. Plain timestamps are
evaluated; references to markers or chapters report that a media item is
needed. Invalid expressions exit non-zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, logger, err := ctx.begin(cmd)
			if err != nil {
				return err
			}
			input, err := ctx.expressionArg(args, 0, paste)
			if err != nil {
				return err
			}

			expr := timeexpr.New(timeexpr.Options{IsEnd: isEnd, PlainOnly: plainOnly, AllowNegative: allowNegative})
			expr.Parse(input)
			report := evaluateReport(input, expr, false)
			logger.Debug("expression checked",
				"canonical", report.Canonical,
				"outcome", report.Outcome,
				"code", report.State.Code.String(),
			)

			if report.Outcome != outcomeInvalid {
				ctx.recordHistory(runCtx, logger, history.Entry{
					Expression: report.Canonical,
					IsEnd:      isEnd,
					ResultMs:   report.ResultMs,
				})
			}
			if err := writeOutput(cmd, ctx, report, report.render); err != nil {
				return err
			}
			return report.failure()
		},
	}

	cmd.Flags().BoolVar(&isEnd, "end", false, "Treat the expression as an end timestamp")
	cmd.Flags().BoolVar(&plainOnly, "plain-only", false, "Reject advanced '=' expressions")
	cmd.Flags().BoolVar(&allowNegative, "allow-negative", false, "Accept negative values without a reference")
	cmd.Flags().BoolVar(&paste, "paste", false, "Read the expression from the clipboard")
	return cmd
}
