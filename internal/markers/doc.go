// Package markers defines the marker and chapter value types read from a Plex
// library and consumed by the timestamp expression engine.
//
// Markers mirror rows of Plex's taggings table (intro, credits, and
// commercial markers); chapters come from the media file itself. Both carry
// millisecond offsets. The package has no I/O and no dependencies on the
// database or CLI layers so it can be shared by all of them.
package markers
