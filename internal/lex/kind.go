package lex

import (
	"fmt"
	"math/bits"
	"strings"
)

// Kind is the kind of a token.
type Kind uint8

const (
	Eof Kind = iota
	Comment
	Ident
	Int
	Float
	String
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Dot
	DotDot
	Colon
	Equals
	Semicolon
	Plus
	Minus
	Times
	Divide
	PlusEquals
	MinusEquals
	TimesEquals
	DivideEquals
	Import
	Func
	Let
	Var
	For
	In
	As

	numKinds
)

var kindNames = [numKinds]string{
	Eof:          "end of file",
	Comment:      "comment",
	Ident:        "identifier",
	Int:          "integer",
	Float:        "number",
	String:       "string",
	LParen:       "`(`",
	RParen:       "`)`",
	LBracket:     "`[`",
	RBracket:     "`]`",
	LBrace:       "`{`",
	RBrace:       "`}`",
	Comma:        "`,`",
	Dot:          "`.`",
	DotDot:       "`..`",
	Colon:        "`:`",
	Equals:       "`=`",
	Semicolon:    "`;`",
	Plus:         "`+`",
	Minus:        "`-`",
	Times:        "`*`",
	Divide:       "`/`",
	PlusEquals:   "`+=`",
	MinusEquals:  "`-=`",
	TimesEquals:  "`*=`",
	DivideEquals: "`/=`",
	Import:       "`import`",
	Func:         "`func`",
	Let:          "`let`",
	Var:          "`var`",
	For:          "`for`",
	In:           "`in`",
	As:           "`as`",
}

var keywords = map[string]Kind{
	"import": Import,
	"func":   Func,
	"let":    Let,
	"var":    Var,
	"for":    For,
	"in":     In,
	"as":     As,
}

// String returns the human-readable name used in diagnostics.
func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Ignore reports whether the parser skips tokens of this kind.
func (k Kind) Ignore() bool {
	return k == Comment
}

// MarshalText renders the kind by its Go constant name for exported token
// streams.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.GoString()), nil
}

// GoString returns the constant name of the kind.
func (k Kind) GoString() string {
	switch k {
	case Eof:
		return "Eof"
	case Comment:
		return "Comment"
	case Ident:
		return "Ident"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case LParen:
		return "LParen"
	case RParen:
		return "RParen"
	case LBracket:
		return "LBracket"
	case RBracket:
		return "RBracket"
	case LBrace:
		return "LBrace"
	case RBrace:
		return "RBrace"
	case Comma:
		return "Comma"
	case Dot:
		return "Dot"
	case DotDot:
		return "DotDot"
	case Colon:
		return "Colon"
	case Equals:
		return "Equals"
	case Semicolon:
		return "Semicolon"
	case Plus:
		return "Plus"
	case Minus:
		return "Minus"
	case Times:
		return "Times"
	case Divide:
		return "Divide"
	case PlusEquals:
		return "PlusEquals"
	case MinusEquals:
		return "MinusEquals"
	case TimesEquals:
		return "TimesEquals"
	case DivideEquals:
		return "DivideEquals"
	case Import:
		return "Import"
	case Func:
		return "Func"
	case Let:
		return "Let"
	case Var:
		return "Var"
	case For:
		return "For"
	case In:
		return "In"
	case As:
		return "As"
	}
	return k.String()
}

// KindSet is a set of token kinds, used for "expected one of" errors.
type KindSet uint64

// Kinds builds a set from its members.
func Kinds(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	return s&(1<<k) != 0
}

// Len returns the number of kinds in the set.
func (s KindSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Slice returns the members in declaration order.
func (s KindSet) Slice() []Kind {
	var out []Kind
	for k := Kind(0); k < numKinds; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// String joins the member names with " or ".
func (s KindSet) String() string {
	names := make([]string, 0, s.Len())
	for _, k := range s.Slice() {
		names = append(names, k.String())
	}
	return strings.Join(names, " or ")
}
