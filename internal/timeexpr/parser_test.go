package timeexpr_test

import (
	"strings"
	"testing"

	"markerexpr/internal/markers"
	"markerexpr/internal/timeexpr"
)

func TestParsePlainTimestamps(t *testing.T) {
	tests := []struct {
		input string
		ms    int64
		clock bool
	}{
		{"5000", 5000, false},
		{"  5000 ", 5000, false},
		{"1:30", 90000, true},
		{"1:02:03.5", 3723500, true},
		{"0:00.25", 250, true},
		{".5", 500, true},
		{"12.345", 12345, true},
		{"90:00", 5400000, true},
	}
	for _, tc := range tests {
		state := timeexpr.New(timeexpr.Options{}).Parse(tc.input)
		if !state.Valid {
			t.Fatalf("Parse(%q) invalid: %s", tc.input, state.InvalidReason)
		}
		if !state.Plain {
			t.Fatalf("Parse(%q) expected plain state", tc.input)
		}
		if state.Ms != tc.ms {
			t.Fatalf("Parse(%q) ms = %d, want %d", tc.input, state.Ms, tc.ms)
		}
		if state.UsesClockFormat != tc.clock {
			t.Fatalf("Parse(%q) clock = %v, want %v", tc.input, state.UsesClockFormat, tc.clock)
		}
	}
}

func TestParseAdvancedMarkerReference(t *testing.T) {
	state := timeexpr.New(timeexpr.Options{}).Parse("=I1S+5000")
	if !state.Valid {
		t.Fatalf("expected valid state: %s", state.InvalidReason)
	}
	if state.Plain {
		t.Fatal("expected advanced state")
	}
	if state.Ms != 5000 {
		t.Fatalf("unexpected ms %d", state.Ms)
	}
	ref := state.Reference
	if ref == nil || ref.Kind != timeexpr.RefMarker {
		t.Fatalf("expected marker reference, got %+v", ref)
	}
	if ref.MarkerType != markers.TypeIntro || ref.Index != 1 || !ref.Start || ref.Implicit {
		t.Fatalf("unexpected reference %+v", *ref)
	}
	if state.UsesClockFormat {
		t.Fatal("expected raw millisecond format")
	}
}

func TestParseClockFormatIsSticky(t *testing.T) {
	state := timeexpr.New(timeexpr.Options{}).Parse("=I1+1000+0:01")
	if !state.Valid || !state.UsesClockFormat || state.Ms != 2000 {
		t.Fatalf("unexpected state %+v", state)
	}
	pure := timeexpr.New(timeexpr.Options{}).Parse("=Ch2")
	if !pure.Valid || !pure.UsesClockFormat {
		t.Fatalf("expected pure reference to default to clock format: %+v", pure)
	}
}

func TestParseImplicitSides(t *testing.T) {
	start := timeexpr.New(timeexpr.Options{}).Parse("=I1")
	end := timeexpr.New(timeexpr.Options{IsEnd: true}).Parse("=I1")
	if start.Reference.Start || !start.Reference.Implicit {
		t.Fatalf("marker reference in start input should read the marker end: %+v", *start.Reference)
	}
	if !end.Reference.Start {
		t.Fatalf("marker reference in end input should read the marker start: %+v", *end.Reference)
	}

	chStart := timeexpr.New(timeexpr.Options{}).Parse("=Ch1")
	chEnd := timeexpr.New(timeexpr.Options{IsEnd: true}).Parse("=Ch1")
	if !chStart.Reference.Start {
		t.Fatal("chapter reference in start input should read the chapter start")
	}
	if chEnd.Reference.Start {
		t.Fatal("chapter reference in end input should read the chapter end")
	}
}

func TestParseLettersAreCaseInsensitive(t *testing.T) {
	state := timeexpr.New(timeexpr.Options{}).Parse("=c-1e - 500")
	if !state.Valid {
		t.Fatalf("expected valid state: %s", state.InvalidReason)
	}
	ref := state.Reference
	if ref.MarkerType != markers.TypeCredits || ref.Index != -1 || ref.Start || ref.Implicit {
		t.Fatalf("unexpected reference %+v", *ref)
	}
	if state.Ms != -500 {
		t.Fatalf("unexpected ms %d", state.Ms)
	}

	chapter := timeexpr.New(timeexpr.Options{}).Parse("=CH2s")
	if !chapter.Valid || chapter.Reference.Kind != timeexpr.RefChapterIndex || chapter.Reference.Index != 2 {
		t.Fatalf("unexpected chapter state %+v", chapter)
	}
}

func TestParseTypeTag(t *testing.T) {
	state := timeexpr.New(timeexpr.Options{}).Parse("=A@5:00")
	if !state.Valid {
		t.Fatalf("expected valid state: %s", state.InvalidReason)
	}
	if state.MarkerType != markers.TypeAd || state.Ms != 300000 || state.Reference != nil {
		t.Fatalf("unexpected state %+v", state)
	}
	anyTag := timeexpr.New(timeexpr.Options{}).Parse("= M@ 100")
	if !anyTag.Valid || anyTag.MarkerType != markers.TypeAny {
		t.Fatalf("unexpected state %+v", anyTag)
	}
}

func TestParseChapterNames(t *testing.T) {
	wild := timeexpr.New(timeexpr.Options{}).Parse(`=Ch(Opening \*Credits\)*)E`)
	if !wild.Valid {
		t.Fatalf("expected valid wildcard: %s", wild.InvalidReason)
	}
	name := wild.Reference.Name
	if wild.Reference.Kind != timeexpr.RefChapterName || name.IsRegex {
		t.Fatalf("unexpected reference %+v", *wild.Reference)
	}
	if !name.Pattern.MatchString("opening *credits) part 2") {
		t.Fatalf("pattern %s should match case-insensitively", name.Pattern)
	}
	if name.Pattern.MatchString("Opening Credits") {
		t.Fatalf("escaped '*' must be literal in %s", name.Pattern)
	}

	re := timeexpr.New(timeexpr.Options{}).Parse(`=Ch(/^Part \d+$/i)`)
	if !re.Valid {
		t.Fatalf("expected valid regex: %s", re.InvalidReason)
	}
	if !re.Reference.Name.IsRegex || re.Reference.Name.DisplayText != `/^Part \d+$/i` {
		t.Fatalf("unexpected name %+v", *re.Reference.Name)
	}
	if !re.Reference.Name.Pattern.MatchString("part 12") {
		t.Fatal("expected case-insensitive regex match")
	}

	sensitive := timeexpr.New(timeexpr.Options{}).Parse(`=Ch(/^Part/)`)
	if !sensitive.Valid || sensitive.Reference.Name.Pattern.MatchString("part") {
		t.Fatal("regex without flags should be case-sensitive")
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     timeexpr.Options
		code     timeexpr.Reason
		contains string
	}{
		{"empty", "  ", timeexpr.Options{}, timeexpr.ReasonEmpty, "empty"},
		{"bare equals", "=", timeexpr.Options{}, timeexpr.ReasonEmpty, "empty"},
		{"double operator", "=1000+-500", timeexpr.Options{}, timeexpr.ReasonDoubleOperator, "double operator"},
		{"double minus", "=I1--5", timeexpr.Options{}, timeexpr.ReasonDoubleOperator, "double operator"},
		{"missing operator", "=1000 500", timeexpr.Options{}, timeexpr.ReasonMissingOperator, "missing operator"},
		{"missing operator after ref", "=I1 500", timeexpr.Options{}, timeexpr.ReasonMissingOperator, "missing operator"},
		{"missing operator before ref", "=500 I1", timeexpr.Options{}, timeexpr.ReasonMissingOperator, "missing operator"},
		{"invalid character", "=1000+x", timeexpr.Options{}, timeexpr.ReasonInvalidCharacter, "'x' at position 6"},
		{"space inside reference", "=I 1", timeexpr.Options{}, timeexpr.ReasonMissingIndex, "position 2"},
		{"bad clock", "=1:2:3:4", timeexpr.Options{}, timeexpr.ReasonInvalidTimestamp, "invalid timestamp"},
		{"bad plain", "12a", timeexpr.Options{}, timeexpr.ReasonInvalidTimestamp, "invalid timestamp"},
		{"too many fraction digits", "1.2345", timeexpr.Options{}, timeexpr.ReasonInvalidTimestamp, "invalid timestamp"},
		{"trailing operator", "=I1+", timeexpr.Options{}, timeexpr.ReasonTrailingOperator, "ends with operator"},
		{"plain only", "=I1", timeexpr.Options{PlainOnly: true}, timeexpr.ReasonPlainOnly, "not allowed"},
		{"negative plain", "-500", timeexpr.Options{}, timeexpr.ReasonNegative, "negative"},
		{"negative advanced", "=500-1000", timeexpr.Options{}, timeexpr.ReasonNegative, "negative"},
		{"type tag on end", "=I@5000", timeexpr.Options{IsEnd: true}, timeexpr.ReasonTypeTagOnEnd, "end timestamps"},
		{"type tag not first", "=5000+I@", timeexpr.Options{}, timeexpr.ReasonTypeTagNotFirst, "start of the expression"},
		{"two type tags", "=I@C@", timeexpr.Options{}, timeexpr.ReasonMultipleTags, "only one"},
		{"type tag with reference", "=I@I1", timeexpr.Options{}, timeexpr.ReasonMultipleTags, "only one"},
		{"two references", "=I1+Ch1", timeexpr.Options{}, timeexpr.ReasonMultipleTags, "only one"},
		{"subtracted reference", "=5000-I1", timeexpr.Options{}, timeexpr.ReasonReferenceSubtracted, "subtracted"},
		{"leading subtracted reference", "=-Ch1", timeexpr.Options{}, timeexpr.ReasonReferenceSubtracted, "subtracted"},
		{"zero index", "=I0", timeexpr.Options{}, timeexpr.ReasonZeroIndex, "cannot be 0"},
		{"zero chapter index", "=Ch-0", timeexpr.Options{}, timeexpr.ReasonZeroIndex, "cannot be 0"},
		{"missing index", "=Ch", timeexpr.Options{}, timeexpr.ReasonMissingIndex, "expected reference index"},
		{"bad escape", `=Ch(a\b)`, timeexpr.Options{}, timeexpr.ReasonBadChapterEscape, `'\b'`},
		{"unterminated name", "=Ch(Intro", timeexpr.Options{}, timeexpr.ReasonUnterminatedChapter, "unterminated"},
		{"unterminated regex", "=Ch(/Intro", timeexpr.Options{}, timeexpr.ReasonUnterminatedChapter, "unterminated"},
		{"unterminated regex flags", "=Ch(/Intro/i", timeexpr.Options{}, timeexpr.ReasonUnterminatedChapter, "unterminated"},
		{"malformed regex", "=Ch(/(/)", timeexpr.Options{}, timeexpr.ReasonBadChapterPattern, "missing closing )"},
		{"bad regex flag", "=Ch(/x/g)", timeexpr.Options{}, timeexpr.ReasonBadChapterPattern, "unsupported flag"},
		{"hours overflow", "5124095576030432:00:00", timeexpr.Options{}, timeexpr.ReasonInvalidTimestamp, "invalid timestamp"},
		{"hours far past range", "99999999999999999:00:00", timeexpr.Options{}, timeexpr.ReasonInvalidTimestamp, "invalid timestamp"},
		{"advanced clock overflow", "=I1+5124095576030432:00:00", timeexpr.Options{}, timeexpr.ReasonInvalidTimestamp, "position 4"},
		{"sum overflow", "=9223372036854775807+9223372036854775807+2", timeexpr.Options{}, timeexpr.ReasonInvalidTimestamp, "out of range"},
		{"difference overflow", "=I1-9223372036854775807-1", timeexpr.Options{}, timeexpr.ReasonInvalidTimestamp, "out of range"},
		{"raw ms overflow", "9223372036854775808", timeexpr.Options{}, timeexpr.ReasonInvalidTimestamp, "invalid timestamp"},
		{"position counts characters", "=Ch(é)x", timeexpr.Options{}, timeexpr.ReasonInvalidCharacter, "'x' at position 6"},
		{"escape position counts characters", `=Ch(é\q)`, timeexpr.Options{}, timeexpr.ReasonBadChapterEscape, "position 5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := timeexpr.New(tc.opts).Parse(tc.input)
			if state.Valid {
				t.Fatalf("Parse(%q) expected invalid state, got %+v", tc.input, state)
			}
			if state.Code != tc.code {
				t.Fatalf("Parse(%q) code = %s, want %s (%s)", tc.input, state.Code, tc.code, state.InvalidReason)
			}
			if !strings.Contains(state.InvalidReason, tc.contains) {
				t.Fatalf("Parse(%q) reason %q does not mention %q", tc.input, state.InvalidReason, tc.contains)
			}
		})
	}
}

func TestParseAllowNegative(t *testing.T) {
	expr := timeexpr.New(timeexpr.Options{AllowNegative: true})
	plain := expr.Parse("-1:30")
	if !plain.Valid || plain.Ms != -90000 || !plain.Plain {
		t.Fatalf("unexpected state %+v", plain)
	}
	advanced := expr.Parse("=500-1000")
	if !advanced.Valid || advanced.Ms != -500 {
		t.Fatalf("unexpected state %+v", advanced)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	expr := timeexpr.New(timeexpr.Options{})
	expr.Bind(sampleMedia())
	for _, input := range []string{"=I1S+5000", "=Ch(Intro*)", "1:30", "=I9"} {
		first := expr.Parse(input)
		second := expr.Parse(input)
		if !first.Equal(second, true) {
			t.Fatalf("Parse(%q) not idempotent: %+v vs %+v", input, first, second)
		}
		fresh := timeexpr.New(timeexpr.Options{})
		fresh.Bind(sampleMedia())
		if !fresh.Parse(input).Equal(first, true) {
			t.Fatalf("Parse(%q) depends on memoized state", input)
		}
	}
}

func TestParseReturnsIndependentCopies(t *testing.T) {
	expr := timeexpr.New(timeexpr.Options{})
	state := expr.Parse("=I1S+5000")
	state.Reference.Index = 7
	state.Ms = 1

	again := expr.Parse("=I1S+5000")
	if again.Reference.Index != 1 || again.Ms != 5000 {
		t.Fatalf("caller mutation leaked into expression: %+v", again)
	}
}
