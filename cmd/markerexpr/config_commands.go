package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"markerexpr/internal/config"
	"markerexpr/internal/deps"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set plex.database_path (or export PLEX_DB_PATH) before evaluating against a library.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(strings.TrimSpace(ctx.configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			colorize := ctx.colorize(out)
			if dbPath, err := cfg.RequireDatabase(); err != nil {
				fmt.Fprintln(out, renderStatusLine("Database", statusWarn, err.Error(), colorize))
			} else if _, err := os.Stat(dbPath); err != nil {
				fmt.Fprintln(out, renderStatusLine("Database", statusWarn, fmt.Sprintf("%s not readable: %v", dbPath, err), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Database", statusOK, dbPath, colorize))
			}
			if cfg.History.Enabled {
				fmt.Fprintln(out, renderField("History", filepath.Clean(cfg.History.Path)))
			} else {
				fmt.Fprintln(out, renderField("History", "disabled"))
			}
			fmt.Fprintln(out, renderField("Chapters", yesNo(cfg.Chapters.Enabled)))
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
				if status.Available {
					fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, status.Command, colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine(status.Name, statusWarn, status.Detail, colorize))
				}
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
