package timeexpr

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// wildcardEscapes lists the characters that may follow a backslash in a
// wildcard chapter name, mapped to the literal they stand for.
var wildcardEscapes = map[byte]string{
	'*':  "*",
	'?':  "?",
	'\\': "\\",
	')':  ")",
	't':  "\t",
}

// parseChapterName consumes a parenthesized chapter name starting at the
// '(' at p.pos.
func (p *parser) parseChapterName() (*ChapterName, bool) {
	p.pos++ // '('
	if p.pos < len(p.text) && p.text[p.pos] == '/' {
		return p.parseChapterRegex()
	}

	start := p.pos
	var pattern strings.Builder
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		switch c {
		case ')':
			display := p.text[start:p.pos]
			p.pos++
			re, err := regexp.Compile("(?i)^" + pattern.String() + "$")
			if err != nil {
				p.state.fail(ReasonBadChapterPattern, fmt.Sprintf("invalid chapter pattern %q: %v", display, err))
				return nil, false
			}
			return &ChapterName{Pattern: re, DisplayText: display}, true
		case '\\':
			if p.pos+1 >= len(p.text) {
				p.state.fail(ReasonUnterminatedChapter, "unterminated chapter reference")
				return nil, false
			}
			literal, ok := wildcardEscapes[p.text[p.pos+1]]
			if !ok {
				r, _ := utf8.DecodeRuneInString(p.text[p.pos+1:])
				p.state.fail(ReasonBadChapterEscape, fmt.Sprintf("invalid escape '\\%c' in chapter name at position %d", r, p.column(p.pos)))
				return nil, false
			}
			pattern.WriteString(regexp.QuoteMeta(literal))
			p.pos += 2
		case '*':
			pattern.WriteString(".*")
			p.pos++
		case '?':
			pattern.WriteString(".")
			p.pos++
		default:
			r, size := utf8.DecodeRuneInString(p.text[p.pos:])
			pattern.WriteString(regexp.QuoteMeta(string(r)))
			p.pos += size
		}
	}
	p.state.fail(ReasonUnterminatedChapter, "unterminated chapter reference")
	return nil, false
}

// parseChapterRegex consumes "/pattern/flags)" with p.pos at the opening '/'.
func (p *parser) parseChapterRegex() (*ChapterName, bool) {
	p.pos++ // '/'
	start := p.pos
	closed := false
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		if c == '\\' {
			p.pos += 2
			continue
		}
		if c == '/' {
			closed = true
			break
		}
		p.pos++
	}
	if !closed || p.pos > len(p.text) {
		p.state.fail(ReasonUnterminatedChapter, "unterminated chapter regex")
		return nil, false
	}
	source := p.text[start:p.pos]
	p.pos++ // closing '/'

	flagStart := p.pos
	for p.pos < len(p.text) && p.text[p.pos] != ')' {
		p.pos++
	}
	if p.pos >= len(p.text) {
		p.state.fail(ReasonUnterminatedChapter, "unterminated chapter reference")
		return nil, false
	}
	flags := p.text[flagStart:p.pos]
	p.pos++ // ')'

	insensitive := false
	for i := 0; i < len(flags); i++ {
		if flags[i] != 'i' {
			p.state.fail(ReasonBadChapterPattern, fmt.Sprintf("invalid chapter regex /%s/%s: unsupported flag %q", source, flags, flags[i]))
			return nil, false
		}
		insensitive = true
	}

	expr := source
	normalized := ""
	if insensitive {
		expr = "(?i)" + source
		normalized = "i"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		p.state.fail(ReasonBadChapterPattern, fmt.Sprintf("invalid chapter regex /%s/%s: %v", source, flags, err))
		return nil, false
	}
	return &ChapterName{
		Pattern:     re,
		DisplayText: "/" + source + "/" + normalized,
		IsRegex:     true,
	}, true
}
