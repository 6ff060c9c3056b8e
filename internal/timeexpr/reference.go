package timeexpr

import (
	"regexp"
	"strconv"
	"strings"

	"markerexpr/internal/markers"
)

// RefKind discriminates the reference variants.
type RefKind int

const (
	RefMarker RefKind = iota + 1
	RefChapterIndex
	RefChapterName
)

func (k RefKind) String() string {
	switch k {
	case RefMarker:
		return "marker"
	case RefChapterIndex:
		return "chapter"
	case RefChapterName:
		return "chapter_name"
	default:
		return "unknown"
	}
}

func (k RefKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// BaseReference holds the fields shared by every reference kind.
type BaseReference struct {
	// Index is 1-based; negative values count from the end.
	Index int `json:"index,omitempty" yaml:"index,omitempty"`
	// Start selects the referenced item's start (true) or end (false).
	Start bool `json:"start" yaml:"start"`
	// Implicit is set when Start was inferred rather than written as S/E.
	Implicit bool `json:"implicit" yaml:"implicit"`
}

// Equal compares index and side. Strict comparison also checks Implicit.
func (b BaseReference) Equal(other BaseReference, strict bool) bool {
	if b.Index != other.Index || b.Start != other.Start {
		return false
	}
	return !strict || b.Implicit == other.Implicit
}

func (b BaseReference) sideSuffix() string {
	if b.Implicit {
		return ""
	}
	if b.Start {
		return "S"
	}
	return "E"
}

// ChapterName matches chapters by name, either from a wildcard pattern or a
// literal regular expression.
type ChapterName struct {
	Pattern     *regexp.Regexp `json:"-" yaml:"-"`
	DisplayText string         `json:"text" yaml:"text"`
	IsRegex     bool           `json:"regex" yaml:"regex"`
}

// Reference points at a marker or chapter of the bound media item.
type Reference struct {
	Kind          RefKind `json:"kind" yaml:"kind"`
	BaseReference `yaml:",inline"`
	// MarkerType restricts which markers count toward Index (RefMarker only).
	MarkerType markers.Type `json:"marker_type,omitempty" yaml:"marker_type,omitempty"`
	// Name is set for RefChapterName only.
	Name *ChapterName `json:"name,omitempty" yaml:"name,omitempty"`
}

// IsChapter reports whether the reference targets a chapter.
func (r Reference) IsChapter() bool {
	return r.Kind == RefChapterIndex || r.Kind == RefChapterName
}

// Clone returns a deep copy. The compiled pattern is immutable and shared.
func (r Reference) Clone() Reference {
	out := r
	if r.Name != nil {
		name := *r.Name
		out.Name = &name
	}
	return out
}

// Equal compares two references of the same kind.
func (r Reference) Equal(other Reference, strict bool) bool {
	if r.Kind != other.Kind {
		return false
	}
	switch r.Kind {
	case RefMarker:
		return r.MarkerType == other.MarkerType && r.BaseReference.Equal(other.BaseReference, strict)
	case RefChapterIndex:
		return r.BaseReference.Equal(other.BaseReference, strict)
	case RefChapterName:
		if r.Name == nil || other.Name == nil {
			return r.Name == other.Name
		}
		if r.Name.DisplayText != other.Name.DisplayText || r.Name.IsRegex != other.Name.IsRegex {
			return false
		}
		if r.Start != other.Start {
			return false
		}
		return !strict || r.Implicit == other.Implicit
	}
	return false
}

// String renders the reference in expression syntax, e.g. "I1S" or "Ch(Intro*)".
func (r Reference) String() string {
	var b strings.Builder
	switch r.Kind {
	case RefMarker:
		b.WriteString(r.MarkerType.Letter())
		b.WriteString(strconv.Itoa(r.Index))
	case RefChapterIndex:
		b.WriteString("Ch")
		b.WriteString(strconv.Itoa(r.Index))
	case RefChapterName:
		b.WriteString("Ch(")
		if r.Name != nil {
			b.WriteString(r.Name.DisplayText)
		}
		b.WriteByte(')')
	}
	b.WriteString(r.sideSuffix())
	return b.String()
}

// defaultStart infers the referenced side when neither S nor E is written.
// Chapters follow the input's own side; markers take the opposite one.
func defaultStart(kind RefKind, isEnd bool) bool {
	if kind == RefMarker {
		return isEnd
	}
	return !isEnd
}
