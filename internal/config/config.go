package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrMissingDatabase is returned when a command needs the Plex database but no
// path is configured.
var ErrMissingDatabase = errors.New("plex database path not configured")

// Plex contains configuration for the Plex library database.
type Plex struct {
	DatabasePath  string `toml:"database_path"`
	BusyTimeoutMs int    `toml:"busy_timeout_ms"`
}

// Chapters contains configuration for chapter extraction via ffprobe.
type Chapters struct {
	Enabled        bool   `toml:"enabled"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Bulk contains configuration for multi-item evaluation.
type Bulk struct {
	Concurrency int `toml:"concurrency"`
}

// History contains configuration for the recent expression list.
type History struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	MaxEntries int    `toml:"max_entries"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Output contains configuration for command output.
type Output struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
}

// Config encapsulates all configuration values for markerexpr.
//
// Configuration sections:
//   - Plex: library database location
//   - Chapters: ffprobe chapter lookup
//   - Bulk: concurrency when loading many items
//   - History: recently evaluated expressions
//   - Logging: log format, level, and optional file directory
//   - Output: default output format and color mode
type Config struct {
	Plex     Plex     `toml:"plex"`
	Chapters Chapters `toml:"chapters"`
	Bulk     Bulk     `toml:"bulk"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
	Output   Output   `toml:"output"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads .env files from the config directory and the working
// directory. Variables already present in the environment win.
func loadDotEnv(configDir string) error {
	candidates := []string{filepath.Join(configDir, ".env")}
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".env")
		if local != candidates[0] {
			candidates = append(candidates, local)
		}
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return fmt.Errorf("load %s: %w", candidate, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// RequireDatabase returns the configured Plex database path or
// ErrMissingDatabase.
func (c *Config) RequireDatabase() (string, error) {
	path := strings.TrimSpace(c.Plex.DatabasePath)
	if path == "" {
		return "", fmt.Errorf("%w: set plex.database_path or PLEX_DB_PATH", ErrMissingDatabase)
	}
	return path, nil
}

// EnsureDirectories creates the directories used for history and log files.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.History.Enabled && c.History.Path != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	if c.Logging.Dir != "" {
		dirs = append(dirs, c.Logging.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultHistoryPath() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "markerexpr", "history.json")
	}
	return defaultHistoryFallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
