package timeexpr

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"markerexpr/internal/markers"
)

var clockPattern = regexp.MustCompile(`^(?:(?:(\d+):)?(\d+):)?(\d*)(?:\.(\d{1,3}))?$`)

// parseTimestamp parses a single unsigned plain timestamp. Text without ':'
// or '.' is raw milliseconds; anything else is [H:]M:SS[.mmm] clock notation.
func parseTimestamp(text string) (ms int64, clock bool, ok bool) {
	if text == "" {
		return 0, false, false
	}
	if !strings.ContainsAny(text, ":.") {
		for i := 0; i < len(text); i++ {
			if !isDigit(text[i]) {
				return 0, false, false
			}
		}
		value, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, false, false
		}
		return value, false, true
	}

	groups := clockPattern.FindStringSubmatch(text)
	if groups == nil {
		return 0, true, false
	}
	hours, minutes, seconds, fraction := groups[1], groups[2], groups[3], groups[4]
	if seconds == "" && (minutes != "" || fraction == "") {
		return 0, true, false
	}

	var total int64
	for _, part := range []struct {
		digits string
		scale  int64
	}{
		{hours, 60 * 60 * 1000},
		{minutes, 60 * 1000},
		{seconds, 1000},
	} {
		if part.digits == "" {
			continue
		}
		value, err := strconv.ParseInt(part.digits, 10, 64)
		if err != nil || value > (math.MaxInt64-total)/part.scale {
			return 0, true, false
		}
		total += value * part.scale
	}
	if fraction != "" {
		value, _ := strconv.ParseInt(fraction, 10, 64)
		for i := len(fraction); i < 3; i++ {
			value *= 10
		}
		var ok bool
		if total, ok = addMs(total, value); !ok {
			return 0, true, false
		}
	}
	return total, true, true
}

// addMs returns a+b, or false when the sum leaves the range whose negation
// is also representable.
func addMs(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < -math.MaxInt64-b) {
		return 0, false
	}
	return a + b, true
}

func formatTimestamp(ms int64, clock bool) string {
	if clock {
		return markers.FormatMs(ms)
	}
	return strconv.FormatInt(ms, 10)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isTimestampChar(c byte) bool {
	return isDigit(c) || c == ':' || c == '.'
}
