package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. A missing database path is
// not an error here; commands that need it call RequireDatabase.
func (c *Config) Validate() error {
	if err := ensurePositiveMap(map[string]int{
		"plex.busy_timeout_ms":     c.Plex.BusyTimeoutMs,
		"chapters.timeout_seconds": c.Chapters.TimeoutSeconds,
		"bulk.concurrency":         c.Bulk.Concurrency,
		"history.max_entries":      c.History.MaxEntries,
	}); err != nil {
		return err
	}
	if c.Bulk.Concurrency > maxBulkConcurrency {
		return fmt.Errorf("bulk.concurrency must be <= %d", maxBulkConcurrency)
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateOutput()
}

const maxBulkConcurrency = 64

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("output.format %q must be one of table, json, yaml", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return errors.New("output.color must be one of auto, always, never")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
