// Package logging builds the slog loggers used by markerexpr commands.
//
// A console handler writes compact `time LEVEL component: msg key=value`
// lines and a JSON handler writes one object per record. Context helpers
// attach the invocation's correlation id and the metadata item being worked
// on, so log lines from concurrent loads can be told apart.
package logging
