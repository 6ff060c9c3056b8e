package timeexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"markerexpr/internal/markers"
)

type parser struct {
	text  string
	pos   int
	opts  Options
	state ParseState

	pendingOp    byte
	sawToken     bool
	lastWasValue bool
	numericTerms int
	clock        bool
}

// parseText performs the structural parse of text. Reference resolution
// happens separately so that unbound expressions can still be checked.
func parseText(text string, opts Options) ParseState {
	p := &parser{text: text, opts: opts}
	p.state.input = text
	p.state.Valid = true

	body := strings.TrimSpace(text)
	switch {
	case body == "":
		p.state.fail(ReasonEmpty, "expression is empty")
	case body[0] == '=':
		if opts.PlainOnly {
			p.state.fail(ReasonPlainOnly, "advanced '=' expressions are not allowed for this input")
			break
		}
		p.pos = strings.IndexByte(text, '=') + 1
		p.parseAdvanced()
	default:
		p.parsePlain(body)
	}
	if p.state.Valid {
		checkNegative(&p.state, opts)
	}
	return p.state
}

func (p *parser) parsePlain(body string) {
	p.state.Plain = true
	negative := false
	if body[0] == '-' {
		negative = true
		body = body[1:]
	}
	ms, clock, ok := parseTimestamp(body)
	if !ok {
		p.state.fail(ReasonInvalidTimestamp, fmt.Sprintf("invalid timestamp %q", strings.TrimSpace(p.text)))
		return
	}
	if negative {
		ms = -ms
	}
	p.state.Ms = ms
	p.state.UsesClockFormat = clock
}

func (p *parser) parseAdvanced() {
	for p.state.Valid {
		p.skipSpace()
		if p.pos >= len(p.text) {
			break
		}
		c := p.text[p.pos]
		switch {
		case c == '+' || c == '-':
			if p.pendingOp != 0 {
				p.state.fail(ReasonDoubleOperator, fmt.Sprintf("double operator '%c%c' at position %d", p.pendingOp, c, p.column(p.pos)))
				return
			}
			p.pendingOp = c
			p.sawToken = true
			p.pos++
		case isTimestampChar(c):
			p.parseTerm()
		case (c == 'C' || c == 'c') && (p.peek(1) == 'h' || p.peek(1) == 'H'):
			p.parseChapterReference()
		default:
			if _, ok := markers.TypeFromLetter(c); ok {
				if p.peek(1) == '@' {
					p.parseTypeTag()
				} else {
					p.parseMarkerReference()
				}
				continue
			}
			p.failInvalidCharacter()
			return
		}
	}
	if !p.state.Valid {
		return
	}
	if p.pendingOp != 0 {
		p.state.fail(ReasonTrailingOperator, fmt.Sprintf("expression ends with operator '%c'", p.pendingOp))
		return
	}
	if !p.sawToken {
		p.state.fail(ReasonEmpty, "expression is empty")
		return
	}
	// Clock notation is sticky across terms, and a pure reference reads as a clock value.
	p.state.UsesClockFormat = p.clock || p.numericTerms == 0
}

func (p *parser) parseTerm() {
	if p.lastWasValue && p.pendingOp == 0 {
		p.state.fail(ReasonMissingOperator, fmt.Sprintf("missing operator before position %d", p.column(p.pos)))
		return
	}
	start := p.pos
	for p.pos < len(p.text) && isTimestampChar(p.text[p.pos]) {
		p.pos++
	}
	raw := p.text[start:p.pos]
	ms, clock, ok := parseTimestamp(raw)
	if !ok {
		p.state.fail(ReasonInvalidTimestamp, fmt.Sprintf("invalid timestamp %q at position %d", raw, p.column(start)))
		return
	}
	if p.pendingOp == '-' {
		ms = -ms
	}
	sum, ok := addMs(p.state.Ms, ms)
	if !ok {
		p.state.fail(ReasonInvalidTimestamp, fmt.Sprintf("timestamp %q at position %d is out of range", raw, p.column(start)))
		return
	}
	p.state.Ms = sum
	p.clock = p.clock || clock
	p.numericTerms++
	p.consumeValue()
}

func (p *parser) parseTypeTag() {
	tag := p.text[p.pos : p.pos+2]
	markerType, _ := markers.TypeFromLetter(p.text[p.pos])
	switch {
	case p.opts.IsEnd:
		p.state.fail(ReasonTypeTagOnEnd, fmt.Sprintf("marker type tag %q is not allowed for end timestamps", tag))
		return
	case p.state.MarkerType != "" || p.state.Reference != nil:
		p.state.fail(ReasonMultipleTags, "only one marker type tag or reference is allowed")
		return
	case p.sawToken:
		p.state.fail(ReasonTypeTagNotFirst, fmt.Sprintf("marker type tag %q must be at the start of the expression", tag))
		return
	}
	p.state.MarkerType = markerType
	p.sawToken = true
	p.pos += 2
}

// beginReference applies the placement rules shared by all reference kinds.
func (p *parser) beginReference() bool {
	switch {
	case p.state.Reference != nil || p.state.MarkerType != "":
		p.state.fail(ReasonMultipleTags, "only one marker type tag or reference is allowed")
		return false
	case p.pendingOp == '-':
		p.state.fail(ReasonReferenceSubtracted, fmt.Sprintf("references cannot be subtracted (position %d)", p.column(p.pos)))
		return false
	case p.lastWasValue && p.pendingOp == 0:
		p.state.fail(ReasonMissingOperator, fmt.Sprintf("missing operator before position %d", p.column(p.pos)))
		return false
	}
	return true
}

func (p *parser) parseMarkerReference() {
	if !p.beginReference() {
		return
	}
	markerType, _ := markers.TypeFromLetter(p.text[p.pos])
	p.pos++
	index, ok := p.parseIndex()
	if !ok {
		return
	}
	ref := Reference{Kind: RefMarker, MarkerType: markerType}
	ref.Index = index
	p.parseSide(&ref)
	p.state.Reference = &ref
	p.consumeValue()
}

func (p *parser) parseChapterReference() {
	if !p.beginReference() {
		return
	}
	p.pos += 2 // "Ch"
	var ref Reference
	if p.peek(0) == '(' {
		name, ok := p.parseChapterName()
		if !ok {
			return
		}
		ref = Reference{Kind: RefChapterName, Name: name}
	} else {
		index, ok := p.parseIndex()
		if !ok {
			return
		}
		ref = Reference{Kind: RefChapterIndex}
		ref.Index = index
	}
	p.parseSide(&ref)
	p.state.Reference = &ref
	p.consumeValue()
}

func (p *parser) parseIndex() (int, bool) {
	start := p.pos
	if p.peek(0) == '-' {
		p.pos++
	}
	digitsStart := p.pos
	for p.pos < len(p.text) && isDigit(p.text[p.pos]) {
		p.pos++
	}
	if p.pos == digitsStart {
		p.state.fail(ReasonMissingIndex, fmt.Sprintf("expected reference index at position %d", p.column(digitsStart)))
		return 0, false
	}
	index, err := strconv.Atoi(p.text[start:p.pos])
	if err != nil {
		p.state.fail(ReasonMissingIndex, fmt.Sprintf("invalid reference index %q", p.text[start:p.pos]))
		return 0, false
	}
	if index == 0 {
		p.state.fail(ReasonZeroIndex, "reference index cannot be 0 (indexes start at 1)")
		return 0, false
	}
	return index, true
}

func (p *parser) parseSide(ref *Reference) {
	switch p.peek(0) {
	case 'S', 's':
		ref.Start = true
		p.pos++
	case 'E', 'e':
		ref.Start = false
		p.pos++
	default:
		ref.Start = defaultStart(ref.Kind, p.opts.IsEnd)
		ref.Implicit = true
	}
}

func (p *parser) consumeValue() {
	p.pendingOp = 0
	p.lastWasValue = true
	p.sawToken = true
}

func (p *parser) failInvalidCharacter() {
	r, _ := utf8.DecodeRuneInString(p.text[p.pos:])
	p.state.fail(ReasonInvalidCharacter, fmt.Sprintf("invalid character '%c' at position %d", r, p.column(p.pos)))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.text) {
		switch p.text[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// column converts a byte offset into the character index reported in errors.
func (p *parser) column(offset int) int {
	return utf8.RuneCountInString(p.text[:offset])
}

func (p *parser) peek(offset int) byte {
	if p.pos+offset >= len(p.text) {
		return 0
	}
	return p.text[p.pos+offset]
}

// checkNegative rejects negative values that have no reference to offset
// them, unless the input explicitly allows negative values.
func checkNegative(state *ParseState, opts Options) {
	if state.Reference == nil && state.Ms < 0 && !opts.AllowNegative {
		state.fail(ReasonNegative, "timestamp cannot be negative")
	}
}
