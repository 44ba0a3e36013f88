package qasm

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokReal
	tokInt
	tokString
	tokSymbol
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokReal:
		return "real"
	case tokInt:
		return "integer"
	case tokString:
		return "string"
	}
	return "symbol"
}

type token struct {
	kind tokenKind
	text string
	pos  Position
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%q", t.text)
}

// SyntaxError reports malformed source.
type SyntaxError struct {
	File string
	Pos  Position
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%s: %s", e.File, e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

type lexer struct {
	src  []rune
	off  int
	line int
	col  int
	file string
}

func newLexer(file, src string) *lexer {
	return &lexer{src: []rune(src), line: 1, col: 1, file: file}
}

func (l *lexer) errorf(pos Position, format string, args ...any) error {
	return &SyntaxError{File: l.file, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekRune(ahead int) rune {
	if l.off+ahead >= len(l.src) {
		return 0
	}
	return l.src[l.off+ahead]
}

func (l *lexer) advance() rune {
	r := l.src[l.off]
	l.off++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() {
	for l.off < len(l.src) {
		r := l.src[l.off]
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekRune(1) == '/':
			for l.off < len(l.src) && l.src[l.off] != '\n' {
				l.advance()
			}
		case r == '/' && l.peekRune(1) == '*':
			l.advance()
			l.advance()
			for l.off < len(l.src) && !(l.src[l.off] == '*' && l.peekRune(1) == '/') {
				l.advance()
			}
			if l.off < len(l.src) {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	pos := Position{Line: l.line, Col: l.col}
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: pos}, nil
	}

	r := l.src[l.off]
	switch {
	case unicode.IsLetter(r) || r == '_':
		var sb strings.Builder
		for l.off < len(l.src) && (unicode.IsLetter(l.src[l.off]) || unicode.IsDigit(l.src[l.off]) || l.src[l.off] == '_') {
			sb.WriteRune(l.advance())
		}
		return token{kind: tokIdent, text: sb.String(), pos: pos}, nil

	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(l.peekRune(1))):
		return l.number(pos)

	case r == '"':
		l.advance()
		var sb strings.Builder
		for l.off < len(l.src) && l.src[l.off] != '"' {
			if l.src[l.off] == '\n' {
				return token{}, l.errorf(pos, "unterminated string")
			}
			sb.WriteRune(l.advance())
		}
		if l.off >= len(l.src) {
			return token{}, l.errorf(pos, "unterminated string")
		}
		l.advance()
		return token{kind: tokString, text: sb.String(), pos: pos}, nil

	case r == '-' && l.peekRune(1) == '>':
		l.advance()
		l.advance()
		return token{kind: tokSymbol, text: "->", pos: pos}, nil

	case r == '=' && l.peekRune(1) == '=':
		l.advance()
		l.advance()
		return token{kind: tokSymbol, text: "==", pos: pos}, nil

	case strings.ContainsRune(";,()[]{}+-*/^", r):
		l.advance()
		return token{kind: tokSymbol, text: string(r), pos: pos}, nil
	}

	return token{}, l.errorf(pos, "unexpected character %q", r)
}

func (l *lexer) number(pos Position) (token, error) {
	var sb strings.Builder
	kind := tokInt
	for l.off < len(l.src) && unicode.IsDigit(l.src[l.off]) {
		sb.WriteRune(l.advance())
	}
	if l.off < len(l.src) && l.src[l.off] == '.' {
		kind = tokReal
		sb.WriteRune(l.advance())
		for l.off < len(l.src) && unicode.IsDigit(l.src[l.off]) {
			sb.WriteRune(l.advance())
		}
	}
	if l.off < len(l.src) && (l.src[l.off] == 'e' || l.src[l.off] == 'E') {
		next := l.peekRune(1)
		if unicode.IsDigit(next) || ((next == '+' || next == '-') && unicode.IsDigit(l.peekRune(2))) {
			kind = tokReal
			sb.WriteRune(l.advance())
			if l.src[l.off] == '+' || l.src[l.off] == '-' {
				sb.WriteRune(l.advance())
			}
			for l.off < len(l.src) && unicode.IsDigit(l.src[l.off]) {
				sb.WriteRune(l.advance())
			}
		}
	}
	return token{kind: kind, text: sb.String(), pos: pos}, nil
}
