package timeexpr_test

import (
	"testing"

	"markerexpr/internal/timeexpr"
)

func TestRenderCanonicalForms(t *testing.T) {
	tests := []struct {
		input string
		opts  timeexpr.Options
		want  string
	}{
		{"5000", timeexpr.Options{}, "5000"},
		{"1:30", timeexpr.Options{}, "00:01:30.000"},
		{"-1.5", timeexpr.Options{AllowNegative: true}, "-00:00:01.500"},
		{"= i1s + 5000", timeexpr.Options{}, "=I1S+5000"},
		{"=I1", timeexpr.Options{}, "=I1"},
		{"=I1+0:00", timeexpr.Options{}, "=I1"},
		{"=I1+0", timeexpr.Options{}, "=I1+0"},
		{"=c-1e-1:00+500", timeexpr.Options{}, "=C-1E-00:00:59.500"},
		{"=a@5:00", timeexpr.Options{}, "=A@00:05:00.000"},
		{"=M@", timeexpr.Options{}, "=M@"},
		{"=0", timeexpr.Options{}, "=0"},
		{"=1:00", timeexpr.Options{}, "=00:01:00.000"},
		{"=ch(Intro*)e", timeexpr.Options{}, "=Ch(Intro*)E"},
		{`=Ch(/^Part \d/ii)`, timeexpr.Options{}, `=Ch(/^Part \d/i)`},
		{"=Ch-2S+100", timeexpr.Options{}, "=Ch-2S+100"},
	}
	for _, tc := range tests {
		expr := timeexpr.New(tc.opts)
		state := expr.Parse(tc.input)
		if !state.Valid {
			t.Fatalf("Parse(%q) invalid: %s", tc.input, state.InvalidReason)
		}
		if got := timeexpr.Render(state); got != tc.want {
			t.Fatalf("Render(%q) = %q, want %q", tc.input, got, tc.want)
		}
		if got := expr.String(); got != tc.want {
			t.Fatalf("String() for %q = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestRenderInvalidReturnsInputVerbatim(t *testing.T) {
	input := " =I1 ++ 5 "
	expr := timeexpr.New(timeexpr.Options{})
	state := expr.Parse(input)
	if state.Valid {
		t.Fatal("expected invalid state")
	}
	if got := expr.String(); got != input {
		t.Fatalf("String() = %q, want original input", got)
	}
	if state.Input() != input {
		t.Fatalf("Input() = %q, want original input", state.Input())
	}
}

func TestRenderRoundTrip(t *testing.T) {
	inputs := []string{
		"=I1S+5000",
		"=I1",
		"=C-2E-1:00.5",
		"=M3+0",
		"=A@1:00",
		"=I@",
		"=Ch4",
		"=Ch-1e+10",
		`=Ch(Intro\*\)\\\?*x?)`,
		"=Ch(/^(Part|Act) [0-9]+$/i)S+2:00",
		"=5000+1:00",
		"5000",
		"1:02:03.004",
	}
	for _, isEnd := range []bool{false, true} {
		for _, input := range inputs {
			opts := timeexpr.Options{IsEnd: isEnd}
			state := timeexpr.New(opts).Parse(input)
			if !state.Valid {
				if isEnd && state.Code == timeexpr.ReasonTypeTagOnEnd {
					continue
				}
				t.Fatalf("Parse(%q) invalid: %s", input, state.InvalidReason)
			}
			rendered := timeexpr.Render(state)
			again := timeexpr.New(opts).Parse(rendered)
			if !again.Equal(state, true) {
				t.Fatalf("round trip of %q via %q changed state: %+v vs %+v", input, rendered, state, again)
			}
			if timeexpr.Render(again) != rendered {
				t.Fatalf("rendering of %q is not stable: %q vs %q", input, rendered, timeexpr.Render(again))
			}
		}
	}
}
