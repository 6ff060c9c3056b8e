package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML encodes v as YAML to the command's stdout.
func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeOutput emits v in the selected format. Table output is delegated to
// renderText so each command controls its own layout.
func writeOutput(cmd *cobra.Command, ctx *commandContext, v any, renderText func(w io.Writer, colorize bool) error) error {
	format, err := ctx.outputFormat()
	if err != nil {
		return err
	}
	switch format {
	case "json":
		return writeJSON(cmd, v)
	case "yaml":
		return writeYAML(cmd, v)
	default:
		out := cmd.OutOrStdout()
		return renderText(out, ctx.colorize(out))
	}
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
