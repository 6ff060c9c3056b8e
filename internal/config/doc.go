// Package config loads, normalizes, and validates markerexpr configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, loads .env files, and honours environment fallbacks such as
// PLEX_DB_PATH and FFPROBE_BINARY.
//
// Always obtain settings through this package so downstream code receives
// expanded paths and canonical format names.
package config
