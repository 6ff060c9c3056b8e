package timeexpr

import (
	"fmt"
	"math"

	"markerexpr/internal/markers"
)

// Options configures how an Expression interprets its input.
type Options struct {
	// IsEnd marks an expression that edits an end time.
	IsEnd bool
	// PlainOnly rejects '=' expressions, for inputs with no single media item
	// to resolve references against.
	PlainOnly bool
	// AllowNegative accepts negative values without a reference, e.g. shifts.
	AllowNegative bool
}

type memoEntry struct {
	text  string
	state ParseState
	ok    bool
}

// Expression owns the parse state of a single timestamp input.
type Expression struct {
	opts  Options
	media MediaData
	bound bool

	state ParseState
	// memo caches the last parse by exact input text.
	memo memoEntry
}

// New returns an Expression with no bound media.
func New(opts Options) *Expression {
	return &Expression{opts: opts}
}

// Options returns the options the expression was created with.
func (e *Expression) Options() Options {
	return e.opts
}

// Bind attaches the markers and chapters of one media item. Markers are
// ordered by start time. The current state is re-validated.
func (e *Expression) Bind(media MediaData) {
	e.media = MediaData{
		Markers:  markers.SortMarkers(media.Markers),
		Chapters: append([]markers.Chapter(nil), media.Chapters...),
	}
	e.bound = true
	e.rebuild()
}

// Unbind detaches media; references evaluate to ErrNeedsMedia afterwards.
func (e *Expression) Unbind() {
	e.media = MediaData{}
	e.bound = false
	e.rebuild()
}

// Bound reports whether media is attached.
func (e *Expression) Bound() bool {
	return e.bound
}

func (e *Expression) rebuild() {
	e.memo = memoEntry{}
	if e.state.input != "" {
		e.state = e.parse(e.state.input)
	}
}

// Parse parses text, replaces the current state, and returns a copy of it.
func (e *Expression) Parse(text string) ParseState {
	if e.memo.ok && e.memo.text == text {
		e.state = e.memo.state.Clone()
		return e.state.Clone()
	}
	state := e.parse(text)
	e.remember(state)
	return state.Clone()
}

func (e *Expression) parse(text string) ParseState {
	state := parseText(text, e.opts)
	if e.bound {
		validateReference(&state, e.media)
	}
	return state
}

func (e *Expression) remember(state ParseState) {
	e.state = state
	e.memo = memoEntry{text: state.input, state: state.Clone(), ok: true}
}

// State returns a copy of the current parse state.
func (e *Expression) State() ParseState {
	return e.state.Clone()
}

// Valid reports whether the current state is valid.
func (e *Expression) Valid() bool {
	return e.state.Valid
}

// String renders the current state in canonical form.
func (e *Expression) String() string {
	return Render(e.state)
}

// Evaluate returns the timestamp in milliseconds. Final evaluation of a bare
// marker reference moves the result one millisecond away from the marker so
// a new marker does not share its boundary.
func (e *Expression) Evaluate(final bool) (int64, error) {
	state := e.state
	if !state.Valid {
		return 0, fmt.Errorf("%w: %s", ErrInvalid, state.InvalidReason)
	}
	ref := state.Reference
	if ref == nil {
		return state.Ms, nil
	}
	if !e.bound {
		return 0, ErrNeedsMedia
	}
	base, rerr := resolveBase(*ref, e.media)
	if rerr != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalid, rerr.reason)
	}
	value := base + state.Ms
	if final && ref.Kind == RefMarker && state.Ms == 0 {
		if ref.Start {
			if value > 0 {
				value--
			}
		} else if value < math.MaxInt64 {
			value++
		}
	}
	return value, nil
}

// SetMs rewrites the numeric delta so that Evaluate(false) returns ms. The
// reference, if any, is kept. On error the current state is unchanged.
func (e *Expression) SetMs(ms int64) error {
	if !e.state.Valid {
		return fmt.Errorf("%w: %s", ErrInvalid, e.state.InvalidReason)
	}
	next := e.state.Clone()
	if ref := next.Reference; ref != nil {
		if !e.bound {
			return ErrNeedsMedia
		}
		base, rerr := resolveBase(*ref, e.media)
		if rerr != nil {
			return fmt.Errorf("%w: %s", ErrInvalid, rerr.reason)
		}
		delta, ok := addMs(ms, -base)
		if !ok {
			return fmt.Errorf("%w: %d ms is out of range for reference %s", ErrInvalid, ms, ref.String())
		}
		next.Ms = delta
	} else {
		next.Ms = ms
	}
	e.check(&next)
	if !next.Valid {
		return fmt.Errorf("%w: %s", ErrInvalid, next.InvalidReason)
	}
	e.remember(next)
	return nil
}

// UpdateState replaces the current state with a copy of state, as when one
// baseline expression is applied to many rows. Field rules and references
// are re-checked against this expression's options and media.
func (e *Expression) UpdateState(state ParseState) ParseState {
	next := state.Clone()
	if next.Valid {
		if ref := next.Reference; ref != nil && ref.Implicit {
			ref.Start = defaultStart(ref.Kind, e.opts.IsEnd)
		}
		switch {
		case !next.Plain && e.opts.PlainOnly:
			next.input = Render(next)
			next.fail(ReasonPlainOnly, "advanced '=' expressions are not allowed for this input")
		case next.MarkerType != "" && e.opts.IsEnd:
			next.input = Render(next)
			next.fail(ReasonTypeTagOnEnd,
				fmt.Sprintf("marker type tag %q is not allowed for end timestamps", next.MarkerType.Letter()+"@"))
		default:
			e.finish(&next)
			return next.Clone()
		}
	}
	e.remember(next)
	return next.Clone()
}

// finish checks a modified valid state and stores it as current.
func (e *Expression) finish(next *ParseState) {
	e.check(next)
	e.remember(*next)
}

// check re-renders a modified valid state and runs the value checks.
func (e *Expression) check(next *ParseState) {
	next.input = Render(*next)
	checkNegative(next, e.opts)
	if e.bound {
		validateReference(next, e.media)
	}
}
