// Package history keeps a short list of recently evaluated expressions in a
// JSON file.
//
// Several markerexpr processes may run at once, for example from shell
// loops, so every read-modify-write holds an exclusive file lock and the
// file is replaced atomically via a temp file rename.
package history
