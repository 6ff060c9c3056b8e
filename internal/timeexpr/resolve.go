package timeexpr

import (
	"fmt"

	"markerexpr/internal/markers"
)

// MediaData is the marker and chapter data of a single media item.
type MediaData struct {
	Markers  []markers.Marker  `json:"markers" yaml:"markers"`
	Chapters []markers.Chapter `json:"chapters" yaml:"chapters"`
}

type resolveError struct {
	code   Reason
	reason string
}

func (e *resolveError) Error() string {
	return e.reason
}

// resolveBase returns the start or end time of the item ref points at.
func resolveBase(ref Reference, media MediaData) (int64, *resolveError) {
	switch ref.Kind {
	case RefMarker:
		candidates := markers.FilterByType(media.Markers, ref.MarkerType)
		marker, ok := pickIndex(candidates, ref.Index)
		if !ok {
			return 0, outOfRange(ref, markerDescription(ref.MarkerType), len(candidates))
		}
		return side(ref, marker.Start, marker.End), nil
	case RefChapterIndex:
		chapter, ok := pickIndex(media.Chapters, ref.Index)
		if !ok {
			return 0, outOfRange(ref, "chapters", len(media.Chapters))
		}
		return side(ref, chapter.Start, chapter.End), nil
	case RefChapterName:
		if ref.Name == nil || ref.Name.Pattern == nil {
			return 0, &resolveError{code: ReasonBadChapterPattern, reason: "chapter reference has no pattern"}
		}
		for _, chapter := range media.Chapters {
			if ref.Name.Pattern.MatchString(chapter.Name) {
				return side(ref, chapter.Start, chapter.End), nil
			}
		}
		return 0, &resolveError{
			code:   ReasonNoChapterMatch,
			reason: fmt.Sprintf("no chapter match for regex %s", ref.Name.Pattern.String()),
		}
	}
	return 0, &resolveError{code: ReasonInvalidCharacter, reason: "unknown reference kind"}
}

func pickIndex[T any](items []T, index int) (T, bool) {
	var zero T
	n := len(items)
	switch {
	case index > 0 && index <= n:
		return items[index-1], true
	case index < 0 && -index <= n:
		return items[n+index], true
	}
	return zero, false
}

func side(ref Reference, start, end int64) int64 {
	if ref.Start {
		return start
	}
	return end
}

func outOfRange(ref Reference, what string, found int) *resolveError {
	return &resolveError{
		code:   ReasonIndexOutOfRange,
		reason: fmt.Sprintf("reference %s out of range: not enough %s (found %d, need %d)", ref.String(), what, found, abs(ref.Index)),
	}
}

func markerDescription(t markers.Type) string {
	switch t {
	case markers.TypeIntro:
		return "intro markers"
	case markers.TypeCredits:
		return "credits markers"
	case markers.TypeAd:
		return "ad markers"
	default:
		return "markers"
	}
}

// validateReference resolves the state's reference against media and
// invalidates the state when resolution fails or the total goes negative.
func validateReference(state *ParseState, media MediaData) {
	if !state.Valid || state.Reference == nil {
		return
	}
	base, err := resolveBase(*state.Reference, media)
	if err != nil {
		state.fail(err.code, err.reason)
		return
	}
	total, ok := addMs(base, state.Ms)
	if !ok {
		state.fail(ReasonInvalidTimestamp,
			fmt.Sprintf("timestamp with reference %s is out of range", state.Reference.String()))
		return
	}
	if total < 0 {
		state.fail(ReasonNegativeWithReference,
			fmt.Sprintf("negative timestamp with reference %s (%d ms)", state.Reference.String(), total))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
