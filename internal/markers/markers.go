package markers

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type identifies the kind of a marker. Values match the text Plex stores in
// taggings.text for marker rows.
type Type string

const (
	// TypeAny matches every marker type. It only appears in references.
	TypeAny     Type = "any"
	TypeIntro   Type = "intro"
	TypeCredits Type = "credits"
	TypeAd      Type = "commercial"
)

// Types lists the concrete marker types in display order.
var Types = []Type{TypeIntro, TypeCredits, TypeAd}

// ParseType maps Plex marker text, a display name, or a single reference
// letter (M/I/C/A) to a Type.
func ParseType(value string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "m", "any":
		return TypeAny, nil
	case "i", "intro":
		return TypeIntro, nil
	case "c", "credits":
		return TypeCredits, nil
	case "a", "ad", "commercial":
		return TypeAd, nil
	default:
		return "", fmt.Errorf("unknown marker type %q", value)
	}
}

// TypeFromLetter returns the type for a reference letter, ignoring case.
func TypeFromLetter(letter byte) (Type, bool) {
	switch letter {
	case 'M', 'm':
		return TypeAny, true
	case 'I', 'i':
		return TypeIntro, true
	case 'C', 'c':
		return TypeCredits, true
	case 'A', 'a':
		return TypeAd, true
	}
	return "", false
}

// Letter returns the canonical reference letter for the type.
func (t Type) Letter() string {
	switch t {
	case TypeIntro:
		return "I"
	case TypeCredits:
		return "C"
	case TypeAd:
		return "A"
	default:
		return "M"
	}
}

// DisplayName returns a title-cased label suitable for tables and messages.
func (t Type) DisplayName() string {
	switch t {
	case TypeAd:
		return "Ad"
	case "":
		return ""
	}
	return cases.Title(language.Und).String(string(t))
}

// Matches reports whether a marker of type other satisfies a filter of type t.
func (t Type) Matches(other Type) bool {
	return t == TypeAny || t == other
}

// Marker is a single timestamped marker attached to an episode or movie.
type Marker struct {
	ID         int64 `json:"id" yaml:"id"`
	MetadataID int64 `json:"metadata_id" yaml:"metadata_id"`
	Type       Type  `json:"type" yaml:"type"`
	Start      int64 `json:"start" yaml:"start"`
	End        int64 `json:"end" yaml:"end"`
	Index      int   `json:"index" yaml:"index"`
}

// Duration returns the marker length in milliseconds.
func (m Marker) Duration() int64 {
	return m.End - m.Start
}

// Chapter is a named interval from the media file's chapter metadata.
type Chapter struct {
	Name  string `json:"name" yaml:"name"`
	Start int64  `json:"start" yaml:"start"`
	End   int64  `json:"end" yaml:"end"`
}

// SortMarkers returns a copy of list ordered by start time, then end time.
func SortMarkers(list []Marker) []Marker {
	out := make([]Marker, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// FilterByType returns the markers matching t, preserving order.
func FilterByType(list []Marker, t Type) []Marker {
	out := make([]Marker, 0, len(list))
	for _, m := range list {
		if t.Matches(m.Type) {
			out = append(out, m)
		}
	}
	return out
}

// FormatMs renders a millisecond offset as HH:MM:SS.mmm.
func FormatMs(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	hh := ms / 1000 / 60 / 60
	mm := ms / 1000 / 60 % 60
	ss := ms / 1000 % 60
	rem := ms % 1000
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, hh, mm, ss, rem)
}
