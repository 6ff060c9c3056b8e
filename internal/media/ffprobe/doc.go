// Package ffprobe runs ffprobe against a media file and decodes its chapter
// and container metadata.
//
// Primary entry points:
//   - Probe: executes ffprobe and returns the parsed Result
//   - Chapters: returns the file's chapters in milliseconds
package ffprobe
