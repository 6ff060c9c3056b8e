package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return buildRootCommand(newCommandContext())
}

func buildRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "markerexpr",
		Short: "Evaluate timestamp expressions against Plex markers and chapters",
		Long: `markerexpr parses timestamp expressions such as "1:30", "=I1S+5000" or
"=Ch(Intro*)E-2:00" and resolves them against the markers and chapters of
items in a Plex library database.

Expressions that start with '-' must follow "--", e.g. markerexpr check -- -500.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	flags.StringVarP(&ctx.formatFlag, "format", "f", "", "Output format: table, json, or yaml (default from config)")
	flags.StringVar(&ctx.colorFlag, "color", "", "Color output: auto, always, or never (default from config)")
	flags.StringVar(&ctx.logLevelFlag, "log-level", "", "Override logging.level")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newEvalCommand(ctx))
	rootCmd.AddCommand(newMarkersCommand(ctx))
	rootCmd.AddCommand(newChaptersCommand(ctx))
	rootCmd.AddCommand(newBulkCommand(ctx))
	rootCmd.AddCommand(newAdjustCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
