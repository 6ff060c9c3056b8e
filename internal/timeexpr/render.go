package timeexpr

import "strings"

// Render returns the canonical text for state. Invalid states render as the
// text they were parsed from.
func Render(state ParseState) string {
	if !state.Valid {
		return state.input
	}
	if state.Plain {
		return formatTimestamp(state.Ms, state.UsesClockFormat)
	}

	var b strings.Builder
	b.WriteByte('=')
	if state.MarkerType != "" {
		b.WriteString(state.MarkerType.Letter())
		b.WriteByte('@')
	}
	if state.Reference != nil {
		b.WriteString(state.Reference.String())
	}

	bare := state.Reference == nil && state.MarkerType == ""
	if state.Ms == 0 && state.UsesClockFormat && !bare {
		return b.String()
	}

	value := state.Ms
	if value < 0 {
		b.WriteByte('-')
		value = -value
	} else if state.Reference != nil {
		b.WriteByte('+')
	}
	b.WriteString(formatTimestamp(value, state.UsesClockFormat))
	return b.String()
}
