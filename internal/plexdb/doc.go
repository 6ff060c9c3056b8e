// Package plexdb reads library items, markers, and media file paths from a
// Plex Media Server database.
//
// The database is always opened read-only. Plex keeps the file open and may
// hold write locks while scanning, so every query retries SQLITE_BUSY with a
// capped exponential backoff before giving up.
package plexdb
