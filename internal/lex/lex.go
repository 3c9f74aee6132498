// Package lex turns source text into a token stream.
//
// Token text is never copied; tokens carry a byte offset and a 16-bit length
// into the source. The stream always ends with a zero-length Eof token at the
// end of the source, and comments are kept as tokens so the formatter can
// reproduce them.
package lex

import (
	"math"
	"unicode/utf8"
)

// Lex tokenizes source. The returned error, if any, is a *Error.
func Lex(source string) (Tokens, error) {
	if uint64(len(source)) > math.MaxUint32 {
		return nil, &Error{Kind: SourceTooLong}
	}
	l := lexer{src: source}
	toks := make(Tokens, 0, len(source)/4+1)
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			break
		}
		start := l.pos
		kind, ok := l.scan()
		if !ok {
			return nil, &Error{Kind: InvalidToken, Start: uint32(start), End: uint32(l.pos)}
		}
		n := l.pos - start
		if n > math.MaxUint16 {
			return nil, &Error{Kind: TokenTooLong, Start: uint32(start), End: uint32(l.pos)}
		}
		toks = append(toks, Token{Start: uint32(start), Len: uint16(n), Kind: kind})
	}
	toks = append(toks, Token{Start: uint32(len(source)), Kind: Eof})
	return toks, nil
}

type lexer struct {
	src string
	pos int
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

// scan consumes one token starting at l.pos. On failure it leaves l.pos at
// the end of the invalid sequence.
func (l *lexer) scan() (Kind, bool) {
	c := l.src[l.pos]
	switch {
	case c == '#':
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.pos++
		}
		return Comment, true
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		if kw, ok := keywords[l.src[start:l.pos]]; ok {
			return kw, true
		}
		return Ident, true
	case isDigit(c):
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if l.peekAt(0) == '.' && isDigit(l.peekAt(1)) {
			l.pos++
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
			return Float, true
		}
		return Int, true
	case c == '"':
		l.pos++
		for l.pos < len(l.src) {
			switch l.src[l.pos] {
			case '"':
				l.pos++
				return String, true
			case '\n':
				return 0, false
			}
			l.pos++
		}
		return 0, false
	}

	if kind, n := punct(c, l.peekAt(1)); n > 0 {
		l.pos += n
		return kind, true
	}
	_, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	return 0, false
}

func punct(c, next byte) (Kind, int) {
	switch c {
	case '(':
		return LParen, 1
	case ')':
		return RParen, 1
	case '[':
		return LBracket, 1
	case ']':
		return RBracket, 1
	case '{':
		return LBrace, 1
	case '}':
		return RBrace, 1
	case ',':
		return Comma, 1
	case ':':
		return Colon, 1
	case ';':
		return Semicolon, 1
	case '=':
		return Equals, 1
	case '.':
		if next == '.' {
			return DotDot, 2
		}
		return Dot, 1
	case '+':
		if next == '=' {
			return PlusEquals, 2
		}
		return Plus, 1
	case '-':
		if next == '=' {
			return MinusEquals, 2
		}
		return Minus, 1
	case '*':
		if next == '=' {
			return TimesEquals, 2
		}
		return Times, 1
	case '/':
		if next == '=' {
			return DivideEquals, 2
		}
		return Divide, 1
	}
	return 0, 0
}

// Unquote returns the contents of a String token without its quotes.
func Unquote(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return text[1 : len(text)-1]
	}
	return text
}
