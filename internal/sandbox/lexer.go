// Package sandbox implements the bounded, deterministic expression
// evaluator described in spec §4.F: a Lua-expression-style language
// (TabuLua's cell and validator expressions are Lua snippets) evaluated by
// a small tree-walking interpreter with an explicit operation-budget
// counter rather than an embedded real Lua VM, since the sandbox must deny
// I/O, reflection, and module loading outright rather than configure a
// general-purpose VM to forbid them after the fact. The operation budget
// doubles as the cancellation surface: a single-threaded, step-counted walk
// gives deterministic, interruptible execution with no wall-clock timers.
package sandbox

import (
	"strings"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokKeyword
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true,
	"true": true, "false": true, "nil": true,
	"self": true,
}

// lexer tokenizes a Lua-expression-subset source string.
type lexer struct {
	src []rune
	pos int
}

func newLexer(src string) *lexer { return &lexer{src: []rune(src)} }

func (l *lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			out = append(out, token{kind: tokEOF, pos: l.pos})
			return out, nil
		}
		start := l.pos
		r := l.src[l.pos]
		switch {
		case r >= '0' && r <= '9':
			out = append(out, l.lexNumber())
		case r == '"' || r == '\'':
			tok, err := l.lexString(r)
			if err != nil {
				return nil, err
			}
			out = append(out, tok)
		case isIdentStart(r):
			out = append(out, l.lexIdent())
		default:
			tok, ok := l.lexPunct()
			if !ok {
				return nil, errors.Errorf("expression: unexpected character %q at %d", r, start)
			}
			out = append(out, tok)
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t' || l.src[l.pos] == '\n' || l.src[l.pos] == '\r') {
		l.pos++
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func (l *lexer) lexIdent() token {
	start := l.pos
	for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	kind := tokIdent
	if keywords[text] {
		kind = tokKeyword
	}
	return token{kind: kind, text: text, pos: start}
}

func (l *lexer) lexNumber() token {
	start := l.pos
	for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9') {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9') {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9') {
			l.pos++
		}
	}
	return token{kind: tokNumber, text: string(l.src[start:l.pos]), pos: start}
}

func (l *lexer) lexString(quote rune) (token, error) {
	start := l.pos
	l.pos++ // consume opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, errors.New("expression: unterminated string literal")
		}
		r := l.src[l.pos]
		if r == quote {
			l.pos++
			return token{kind: tokString, text: b.String(), pos: start}, nil
		}
		if r == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			switch l.src[l.pos] {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '\\':
				b.WriteRune('\\')
			case quote:
				b.WriteRune(quote)
			default:
				b.WriteRune(l.src[l.pos])
			}
			l.pos++
			continue
		}
		b.WriteRune(r)
		l.pos++
	}
}

var multiCharPuncts = []string{"==", "~=", "<=", ">=", "..", "//"}

func (l *lexer) lexPunct() (token, bool) {
	start := l.pos
	for _, p := range multiCharPuncts {
		if l.hasPrefix(p) {
			l.pos += len(p)
			return token{kind: tokPunct, text: p, pos: start}, true
		}
	}
	singles := "+-*/%^#<>=(){}[],.:;"
	r := l.src[l.pos]
	if strings.ContainsRune(singles, r) {
		l.pos++
		return token{kind: tokPunct, text: string(r), pos: start}, true
	}
	return token{}, false
}

func (l *lexer) hasPrefix(s string) bool {
	runes := []rune(s)
	if l.pos+len(runes) > len(l.src) {
		return false
	}
	for i, r := range runes {
		if l.src[l.pos+i] != r {
			return false
		}
	}
	return true
}
