package typecheck

import (
	"fmt"

	"github.com/adroit-lang/adroit/internal/lex"
)

// Kind is the shape of a type.
type Kind uint8

const (
	// Invalid is the type of expressions that already produced an error.
	// Checks involving it pass silently so one mistake is reported once.
	Invalid Kind = iota
	Int
	Float
	Vector
	Matrix
)

// Type is a resolved type. Elem is set for Vector and Matrix.
type Type struct {
	Kind Kind
	Elem *Type
}

var (
	IntType     = Type{Kind: Int}
	FloatType   = Type{Kind: Float}
	InvalidType = Type{}
)

// VectorOf returns []elem.
func VectorOf(elem Type) Type {
	return Type{Kind: Vector, Elem: &elem}
}

// MatrixOf returns [[]]elem.
func MatrixOf(elem Type) Type {
	return Type{Kind: Matrix, Elem: &elem}
}

// Equal reports structural equality.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Elem == nil || other.Elem == nil {
		return t.Elem == other.Elem
	}
	return t.Elem.Equal(*other.Elem)
}

// Numeric reports whether arithmetic applies to t.
func (t Type) Numeric() bool {
	return t.Kind == Int || t.Kind == Float
}

func (t Type) String() string {
	switch t.Kind {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Vector:
		return "[]" + t.Elem.String()
	case Matrix:
		return "[[]]" + t.Elem.String()
	default:
		return "{unknown}"
	}
}

// MarshalText renders the type the way it is written in source.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Param is a named, typed function parameter.
type Param struct {
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
}

// Func is a resolved function signature.
type Func struct {
	Name   string  `json:"name" yaml:"name"`
	Params []Param `json:"params" yaml:"params"`
	Result Type    `json:"result" yaml:"result"`
}

func (f Func) String() string {
	s := "func " + f.Name + "("
	for i, p := range f.Params {
		if i > 0 {
			s += ", "
		}
		s += p.Name + ": " + p.Type.String()
	}
	return s + "): " + f.Result.String()
}

// Module is the semantic result of checking one module: what importers can
// see, plus the type of every expression indexed by parse.ExprID.
type Module struct {
	Funcs []Func `json:"funcs" yaml:"funcs"`
	Hosts []Func `json:"hosts" yaml:"hosts"`
	Exprs []Type `json:"exprs" yaml:"exprs"`
}

// Func looks up an exported function by name.
func (m *Module) Func(name string) (Func, bool) {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return Func{}, false
}

// Error is a type error with the byte range it refers to.
type Error struct {
	Message string   `json:"message" yaml:"message"`
	Span    lex.Span `json:"span" yaml:"span"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%d-%d: %s", e.Span.Start, e.Span.End, e.Message)
}
