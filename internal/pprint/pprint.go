// Package pprint formats adroit source.
//
// Formatting is driven by the token stream so that every comment survives,
// with the parse tree marking where top-level items begin. Only modules that
// parse can be formatted.
package pprint

import (
	"io"
	"strings"

	"github.com/adroit-lang/adroit/internal/lex"
	"github.com/adroit-lang/adroit/internal/node"
)

const indentUnit = "  "

// Fprint writes the formatted module to w.
func Fprint(w io.Writer, syn *node.Syntax) error {
	_, err := io.WriteString(w, Format(syn))
	return err
}

// Format returns the formatted module text.
func Format(syn *node.Syntax) string {
	p := &printer{
		src:       syn.Text,
		toks:      syn.Tokens,
		items:     map[lex.TokenID]lex.Kind{},
		lineStart: true,
	}
	for _, imp := range syn.Tree.Imports {
		p.items[imp.From] = lex.Import
	}
	for _, h := range syn.Tree.Hosts {
		p.items[h.From] = lex.Import
	}
	for _, fn := range syn.Tree.Funcs {
		p.items[fn.Sig.From] = lex.Func
	}
	p.print()
	return p.b.String()
}

type printer struct {
	src   string
	toks  lex.Tokens
	items map[lex.TokenID]lex.Kind

	b         strings.Builder
	depth     int
	lineStart bool
	// newline is owed after the last token; trailing comments go first.
	newline bool

	prev       lex.Kind
	prevEnd    uint32
	hasPrev    bool
	unaryMinus bool
	started    bool
	// afterComment is set while the last thing written is an own-line
	// comment, which attaches to the item that follows it.
	afterComment bool
	lastItem     lex.Kind
}

func (p *printer) print() {
	for i, t := range p.toks {
		id := lex.TokenID(i)
		switch t.Kind {
		case lex.Eof:
			p.flush()
			return
		case lex.Comment:
			p.comment(t)
			continue
		}

		if kind, ok := p.items[id]; ok && p.depth == 0 {
			p.flush()
			if p.lastItem != 0 && !p.afterComment && !(p.lastItem == lex.Import && kind == lex.Import) {
				p.b.WriteByte('\n')
			}
			p.lastItem = kind
		} else if p.newline && p.depth > 0 && t.Kind != lex.RBrace && p.blankBefore(t) {
			p.flush()
			p.b.WriteByte('\n')
		}

		if t.Kind == lex.RBrace {
			p.depth--
			if p.hasPrev && p.prev != lex.LBrace {
				p.newline = true
			}
		}
		p.flush()

		if p.lineStart {
			p.b.WriteString(strings.Repeat(indentUnit, p.depth))
		} else if p.spaced(t.Kind) {
			p.b.WriteByte(' ')
		}
		p.b.WriteString(p.text(t))
		if t.Kind == lex.Minus {
			p.unaryMinus = !p.hasPrev || !operandEnd(p.prev)
		}
		p.lineStart, p.started, p.afterComment = false, true, false
		p.prev, p.prevEnd, p.hasPrev = t.Kind, t.Span().End, true

		switch t.Kind {
		case lex.LBrace:
			p.depth++
			if next := p.nextKind(i); next != lex.RBrace {
				p.newline = true
			}
		case lex.Semicolon, lex.RBrace:
			p.newline = true
		}
	}
	p.flush()
}

func (p *printer) text(t lex.Token) string {
	span := t.Span()
	return p.src[span.Start:span.End]
}

func (p *printer) comment(t lex.Token) {
	text := strings.TrimRight(p.text(t), " \t\r")
	if p.started && !p.lineStart && !strings.Contains(p.src[p.prevEnd:t.Start], "\n") {
		p.b.WriteString(" " + text)
		p.newline = true
		p.prevEnd = t.Span().End
		return
	}
	separate := p.blankBefore(t)
	if p.depth == 0 && !p.afterComment {
		separate = true
	}
	if p.started && separate {
		p.flush()
		p.b.WriteByte('\n')
	}
	p.flush()
	if !p.lineStart {
		p.b.WriteByte('\n')
		p.lineStart = true
	}
	p.b.WriteString(strings.Repeat(indentUnit, max(p.depth, 0)) + text)
	p.lineStart, p.started, p.afterComment = false, true, true
	p.newline = true
	p.prevEnd = t.Span().End
}

// blankBefore reports whether the source has an empty line between the
// previous token and t.
func (p *printer) blankBefore(t lex.Token) bool {
	return strings.Count(p.src[p.prevEnd:t.Start], "\n") >= 2
}

func (p *printer) flush() {
	if p.newline {
		p.b.WriteByte('\n')
		p.newline = false
		p.lineStart = true
	}
}

func (p *printer) nextKind(i int) lex.Kind {
	for _, t := range p.toks[i+1:] {
		if t.Kind != lex.Comment {
			return t.Kind
		}
	}
	return lex.Eof
}

func operandEnd(k lex.Kind) bool {
	switch k {
	case lex.Ident, lex.Int, lex.Float, lex.String, lex.RParen, lex.RBracket:
		return true
	}
	return false
}

// spaced reports whether a space separates the previous token from cur.
func (p *printer) spaced(cur lex.Kind) bool {
	switch cur {
	case lex.RParen, lex.RBracket, lex.Comma, lex.Semicolon, lex.Dot, lex.DotDot, lex.Colon:
		return false
	case lex.LParen, lex.LBracket:
		if operandEnd(p.prev) {
			return false
		}
	}
	switch p.prev {
	case lex.LParen, lex.LBracket, lex.Dot, lex.DotDot:
		return false
	case lex.LBrace:
		return cur != lex.RBrace
	case lex.RBracket:
		return cur != lex.Ident
	case lex.Minus:
		return !p.unaryMinus
	}
	return true
}
