package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"markerexpr/internal/config"
	"markerexpr/internal/history"
	"markerexpr/internal/logging"
	"markerexpr/internal/mediactx"
	"markerexpr/internal/plexdb"
)

type commandContext struct {
	configFlag   string
	formatFlag   string
	colorFlag    string
	logLevelFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	requestID string

	readClipboard  func() (string, error)
	writeClipboard func(string) error
}

func newCommandContext() *commandContext {
	return &commandContext{
		requestID:      logging.NewRequestID(),
		readClipboard:  clipboard.ReadAll,
		writeClipboard: clipboard.WriteAll,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.logLevelFlag); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// begin returns the command's context tagged with this invocation's
// correlation id, and a logger carrying it.
func (c *commandContext) begin(cmd *cobra.Command) (context.Context, *slog.Logger, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithRequestID(ctx, c.requestID)
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	logger = logging.WithContext(ctx, logger)
	logger.Debug("command started", logging.String("command", cmd.CommandPath()))
	return ctx, logger, nil
}

func (c *commandContext) openDB(ctx context.Context, logger *slog.Logger) (*plexdb.DB, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	path, err := cfg.RequireDatabase()
	if err != nil {
		return nil, err
	}
	return plexdb.Open(ctx, path, plexdb.Options{
		BusyTimeout: time.Duration(cfg.Plex.BusyTimeoutMs) * time.Millisecond,
		Logger:      logger,
	})
}

// withLoader opens the database and hands a media loader to fn.
func (c *commandContext) withLoader(ctx context.Context, logger *slog.Logger, fn func(*plexdb.DB, *mediactx.Loader) error) error {
	db, err := c.openDB(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	cfg, _ := c.ensureConfig()
	return fn(db, mediactx.NewLoader(db, cfg, mediactx.WithLogger(logger)))
}

func (c *commandContext) historyStore(logger *slog.Logger) *history.Store {
	cfg, err := c.ensureConfig()
	if err != nil || !cfg.History.Enabled {
		return history.New("", 0, logger)
	}
	return history.New(cfg.History.Path, cfg.History.MaxEntries, logger)
}

// recordHistory stores entry, logging rather than failing on error.
func (c *commandContext) recordHistory(ctx context.Context, logger *slog.Logger, entry history.Entry) {
	if err := c.historyStore(logger).Record(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "history not updated", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "expression missing from history list"),
		)
	}
}

func (c *commandContext) outputFormat() (string, error) {
	format := strings.ToLower(strings.TrimSpace(c.formatFlag))
	if format == "" {
		if cfg, err := c.ensureConfig(); err == nil {
			format = cfg.Output.Format
		}
	}
	switch format {
	case "", "table":
		return "table", nil
	case "json", "yaml":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json, or yaml)", format)
	}
}

func (c *commandContext) colorize(writer io.Writer) bool {
	mode := strings.ToLower(strings.TrimSpace(c.colorFlag))
	if mode == "" {
		if cfg, err := c.ensureConfig(); err == nil {
			mode = cfg.Output.Color
		}
	}
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return shouldColorize(writer)
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseMetadataID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid metadata id %q: must be a positive integer", value)
	}
	return id, nil
}

// expressionArg returns the expression from args[index], or from the
// clipboard when paste is set.
func (c *commandContext) expressionArg(args []string, index int, paste bool) (string, error) {
	if paste {
		text, err := c.readClipboard()
		if err != nil {
			return "", fmt.Errorf("read clipboard: %w", err)
		}
		return strings.TrimSpace(text), nil
	}
	if index >= len(args) {
		return "", errors.New("missing expression argument (or use --paste)")
	}
	return args[index], nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
