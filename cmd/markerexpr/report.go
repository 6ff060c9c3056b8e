package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"markerexpr/internal/markers"
	"markerexpr/internal/timeexpr"
)

const (
	outcomeValue      = "value"
	outcomeNeedsMedia = "needs_media"
	outcomeInvalid    = "invalid"
)

// stateReport is the printable result of parsing and evaluating one expression.
type stateReport struct {
	Input      string              `json:"input" yaml:"input"`
	Canonical  string              `json:"canonical" yaml:"canonical"`
	IsEnd      bool                `json:"is_end" yaml:"is_end"`
	MetadataID int64               `json:"metadata_id,omitempty" yaml:"metadata_id,omitempty"`
	Outcome    string              `json:"outcome" yaml:"outcome"`
	ResultMs   *int64              `json:"result_ms,omitempty" yaml:"result_ms,omitempty"`
	Result     string              `json:"result,omitempty" yaml:"result,omitempty"`
	Error      string              `json:"error,omitempty" yaml:"error,omitempty"`
	State      timeexpr.ParseState `json:"state" yaml:"state"`
}

// evaluateReport evaluates expr's current state and summarizes the outcome.
func evaluateReport(input string, expr *timeexpr.Expression, final bool) stateReport {
	state := expr.State()
	report := stateReport{
		Input:     input,
		Canonical: expr.String(),
		IsEnd:     expr.Options().IsEnd,
		State:     state,
	}
	ms, err := expr.Evaluate(final)
	switch {
	case err == nil:
		report.Outcome = outcomeValue
		report.ResultMs = &ms
		report.Result = markers.FormatMs(ms)
	case errors.Is(err, timeexpr.ErrNeedsMedia):
		report.Outcome = outcomeNeedsMedia
		report.Error = err.Error()
	default:
		report.Outcome = outcomeInvalid
		report.Error = expr.State().InvalidReason
		if report.Error == "" {
			report.Error = err.Error()
		}
	}
	return report
}

// failure returns the error a command should exit with for this report.
func (r stateReport) failure() error {
	if r.Outcome != outcomeInvalid {
		return nil
	}
	return fmt.Errorf("invalid expression %q: %s", r.Input, r.Error)
}

func (r stateReport) render(w io.Writer, colorize bool) error {
	lines := []string{
		renderField("Input", r.Input),
		renderField("Canonical", r.Canonical),
		renderField("Kind", expressionKind(r.State)),
		renderField("Side", sideLabel(r.IsEnd)),
	}
	if r.MetadataID != 0 {
		lines = append(lines, renderField("Item", strconv.FormatInt(r.MetadataID, 10)))
	}
	if r.State.Reference != nil {
		lines = append(lines, renderField("Reference", r.State.Reference.String()))
	}
	if r.State.MarkerType != "" {
		lines = append(lines, renderField("New type", r.State.MarkerType.DisplayName()))
	}
	switch r.Outcome {
	case outcomeValue:
		lines = append(lines, renderStatusLine("Result", statusOK,
			fmt.Sprintf("%s (%d ms)", r.Result, *r.ResultMs), colorize))
	case outcomeNeedsMedia:
		lines = append(lines, renderStatusLine("Result", statusWarn, "needs a media item (pass a metadata id to eval)", colorize))
	default:
		lines = append(lines, renderStatusLine("Result", statusError,
			fmt.Sprintf("%s (%s)", r.Error, r.State.Code), colorize))
	}
	return writeLines(w, lines)
}

func expressionKind(state timeexpr.ParseState) string {
	switch {
	case !state.Valid:
		return "invalid"
	case state.Plain:
		return "plain"
	default:
		return "advanced"
	}
}

func sideLabel(isEnd bool) string {
	if isEnd {
		return "end"
	}
	return "start"
}
