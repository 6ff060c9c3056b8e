package config

const (
	defaultConfigPath      = "~/.config/markerexpr/config.toml"
	projectConfigName      = "markerexpr.toml"
	defaultBusyTimeoutMs   = 5000
	defaultFFprobeBinary   = "ffprobe"
	defaultFFprobeTimeout  = 15
	defaultBulkConcurrency = 4
	defaultHistoryFallback = "~/.local/state/markerexpr/history.json"
	defaultHistoryMax      = 50
	defaultLogFormat       = "console"
	defaultLogLevel        = "warn"
	defaultOutputFormat    = "table"
	defaultColorMode       = "auto"
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Plex: Plex{
			BusyTimeoutMs: defaultBusyTimeoutMs,
		},
		Chapters: Chapters{
			Enabled:        true,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultFFprobeTimeout,
		},
		Bulk: Bulk{
			Concurrency: defaultBulkConcurrency,
		},
		History: History{
			Enabled:    true,
			Path:       defaultHistoryPath(),
			MaxEntries: defaultHistoryMax,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Output: Output{
			Format: defaultOutputFormat,
			Color:  defaultColorMode,
		},
	}
}
