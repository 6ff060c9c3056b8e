package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"markerexpr/internal/markers"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Chapters []Chapter `json:"chapters"`
	Format   Format    `json:"format"`
	raw      []byte
}

// Chapter is one entry of ffprobe's chapters array. Times are decimal seconds.
type Chapter struct {
	ID        int64             `json:"id"`
	TimeBase  string            `json:"time_base"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Probe executes ffprobe against the provided path and decodes the JSON response.
func Probe(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_chapters", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe: %w", err)
	}
	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(output []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = append([]byte(nil), output...)
	return result, nil
}

// Chapters probes path and returns its chapters.
func Chapters(ctx context.Context, binary string, path string) ([]markers.Chapter, error) {
	result, err := Probe(ctx, binary, path)
	if err != nil {
		return nil, err
	}
	return result.MarkerChapters(), nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// DurationMs returns the container duration in milliseconds, or 0 when unavailable.
func (r Result) DurationMs() int64 {
	return secondsToMs(r.Format.Duration)
}

// MarkerChapters converts the chapters to millisecond values. Chapters without
// a title tag are named by position, as players display them.
func (r Result) MarkerChapters() []markers.Chapter {
	out := make([]markers.Chapter, 0, len(r.Chapters))
	for i, ch := range r.Chapters {
		out = append(out, markers.Chapter{
			Name:  ch.Title(i + 1),
			Start: secondsToMs(ch.StartTime),
			End:   secondsToMs(ch.EndTime),
		})
	}
	return out
}

// Title returns the chapter's title tag, falling back to "Chapter n".
func (c Chapter) Title(position int) string {
	if value := strings.TrimSpace(c.Tags["title"]); value != "" {
		return value
	}
	for key, value := range c.Tags {
		if strings.EqualFold(key, "title") && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return fmt.Sprintf("Chapter %d", position)
}

func secondsToMs(value string) int64 {
	seconds := parseFloat(value)
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	return int64(math.Round(seconds * 1000))
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
