package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePlex(); err != nil {
		return err
	}
	c.normalizeChapters()
	if c.Bulk.Concurrency <= 0 {
		c.Bulk.Concurrency = defaultBulkConcurrency
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.normalizeOutput()
	return nil
}

func (c *Config) normalizePlex() error {
	c.Plex.DatabasePath = strings.TrimSpace(c.Plex.DatabasePath)
	if c.Plex.DatabasePath == "" {
		if value, ok := os.LookupEnv("PLEX_DB_PATH"); ok {
			c.Plex.DatabasePath = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Plex.DatabasePath, err = expandPath(c.Plex.DatabasePath); err != nil {
		return fmt.Errorf("plex.database_path: %w", err)
	}
	if c.Plex.BusyTimeoutMs <= 0 {
		c.Plex.BusyTimeoutMs = defaultBusyTimeoutMs
	}
	return nil
}

func (c *Config) normalizeChapters() {
	c.Chapters.FFprobeBinary = strings.TrimSpace(c.Chapters.FFprobeBinary)
	if value, ok := os.LookupEnv("FFPROBE_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Chapters.FFprobeBinary = strings.TrimSpace(value)
	}
	if c.Chapters.FFprobeBinary == "" {
		c.Chapters.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Chapters.TimeoutSeconds <= 0 {
		c.Chapters.TimeoutSeconds = defaultFFprobeTimeout
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath()
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = defaultHistoryMax
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOutput() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	c.Output.Color = strings.ToLower(strings.TrimSpace(c.Output.Color))
	if c.Output.Color == "" {
		c.Output.Color = defaultColorMode
	}
}
