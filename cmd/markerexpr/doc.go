// Package main hosts the markerexpr CLI.
//
// The Cobra command tree parses and evaluates timestamp expressions against
// the markers and chapters of items in a Plex library database. Commands
// resolve configuration and logging through commandContext and leave parsing
// and evaluation to internal/timeexpr.
package main
