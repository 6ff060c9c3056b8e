package timeexpr

import (
	"errors"

	"markerexpr/internal/markers"
)

var (
	// ErrInvalid is returned by Evaluate and SetMs when the current state is invalid.
	ErrInvalid = errors.New("invalid timestamp expression")
	// ErrNeedsMedia is returned when a reference cannot be resolved because no
	// media item is bound. It is not a syntax error.
	ErrNeedsMedia = errors.New("expression needs a media item to resolve its reference")
)

// Reason classifies why a ParseState is invalid.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonEmpty
	ReasonDoubleOperator
	ReasonMissingOperator
	ReasonInvalidCharacter
	ReasonInvalidTimestamp
	ReasonTrailingOperator
	ReasonPlainOnly
	ReasonNegative
	ReasonTypeTagOnEnd
	ReasonTypeTagNotFirst
	ReasonMultipleTags
	ReasonReferenceSubtracted
	ReasonMissingIndex
	ReasonBadChapterEscape
	ReasonBadChapterPattern
	ReasonUnterminatedChapter
	ReasonZeroIndex
	ReasonIndexOutOfRange
	ReasonNoChapterMatch
	ReasonNegativeWithReference
)

var reasonNames = map[Reason]string{
	ReasonNone:                  "none",
	ReasonEmpty:                 "empty",
	ReasonDoubleOperator:        "double_operator",
	ReasonMissingOperator:       "missing_operator",
	ReasonInvalidCharacter:      "invalid_character",
	ReasonInvalidTimestamp:      "invalid_timestamp",
	ReasonTrailingOperator:      "trailing_operator",
	ReasonPlainOnly:             "plain_only",
	ReasonNegative:              "negative",
	ReasonTypeTagOnEnd:          "type_tag_on_end",
	ReasonTypeTagNotFirst:       "type_tag_not_first",
	ReasonMultipleTags:          "multiple_tags",
	ReasonReferenceSubtracted:   "reference_subtracted",
	ReasonMissingIndex:          "missing_index",
	ReasonBadChapterEscape:      "bad_chapter_escape",
	ReasonBadChapterPattern:     "bad_chapter_pattern",
	ReasonUnterminatedChapter:   "unterminated_chapter",
	ReasonZeroIndex:             "zero_index",
	ReasonIndexOutOfRange:       "index_out_of_range",
	ReasonNoChapterMatch:        "no_chapter_match",
	ReasonNegativeWithReference: "negative_with_reference",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// MarshalText lets Reason encode as its name in JSON and YAML output.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ParseState is the result of parsing one expression.
type ParseState struct {
	Plain           bool   `json:"plain" yaml:"plain"`
	Valid           bool   `json:"valid" yaml:"valid"`
	InvalidReason   string `json:"invalid_reason,omitempty" yaml:"invalid_reason,omitempty"`
	Code            Reason `json:"code" yaml:"code"`
	UsesClockFormat bool   `json:"uses_clock_format" yaml:"uses_clock_format"`
	// Ms is the accumulated numeric delta, excluding any reference.
	Ms int64 `json:"ms" yaml:"ms"`
	// MarkerType is the type requested by a leading type tag ("I@"), or empty.
	MarkerType markers.Type `json:"marker_type,omitempty" yaml:"marker_type,omitempty"`
	Reference  *Reference   `json:"reference,omitempty" yaml:"reference,omitempty"`

	input string
}

// Clone returns a deep copy of the state.
func (s ParseState) Clone() ParseState {
	out := s
	if s.Reference != nil {
		ref := s.Reference.Clone()
		out.Reference = &ref
	}
	return out
}

// Input returns the text this state was produced from.
func (s ParseState) Input() string {
	return s.input
}

// Equal compares two states. Strict comparison also checks the implicit flag
// of references and the clock-format flag.
func (s ParseState) Equal(other ParseState, strict bool) bool {
	if s.Plain != other.Plain || s.Valid != other.Valid || s.Ms != other.Ms || s.MarkerType != other.MarkerType {
		return false
	}
	if !s.Valid && s.Code != other.Code {
		return false
	}
	if strict && s.UsesClockFormat != other.UsesClockFormat {
		return false
	}
	if s.Reference == nil || other.Reference == nil {
		return s.Reference == nil && other.Reference == nil
	}
	return s.Reference.Equal(*other.Reference, strict)
}

func (s *ParseState) fail(code Reason, reason string) {
	s.Valid = false
	s.Code = code
	s.InvalidReason = reason
}
