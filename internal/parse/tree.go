package parse

import "github.com/adroit-lang/adroit/internal/lex"

// Arena indices into a Tree.
type (
	TypeID  uint32
	ParamID uint32
	StmtID  uint32
	ExprID  uint32
	ArgID   uint32
)

// NoExpr marks an absent expression, e.g. a function without a result
// expression.
const NoExpr = ^ExprID(0)

// Range is a half-open range of arena indices.
type Range[T ~uint32] struct {
	Start T `json:"start" yaml:"start"`
	End   T `json:"end" yaml:"end"`
}

// Len returns the number of elements in the range.
func (r Range[T]) Len() int {
	return int(r.End - r.Start)
}

// TypeKind distinguishes the shapes of a written type.
type TypeKind uint8

const (
	TypeName TypeKind = iota
	TypeVector
	TypeMatrix
)

// Type is a written type: a name (`Int`), a vector (`[]T`) or a matrix
// (`[[]]T`).
type Type struct {
	Kind TypeKind    `json:"kind" yaml:"kind"`
	Name lex.TokenID `json:"name,omitempty" yaml:"name,omitempty"`
	Elem TypeID      `json:"elem,omitempty" yaml:"elem,omitempty"`
	From lex.TokenID `json:"from" yaml:"from"`
}

// Param is a function parameter.
type Param struct {
	Name lex.TokenID `json:"name" yaml:"name"`
	Type TypeID      `json:"type" yaml:"type"`
}

// StmtKind distinguishes statements.
type StmtKind uint8

const (
	StmtLet StmtKind = iota
	StmtVar
	StmtFor
	StmtSet
	StmtExpr
)

// SetKind is the operator of an assignment statement.
type SetKind uint8

const (
	Set SetKind = iota
	SetAdd
	SetSubtract
	SetMultiply
	SetDivide
)

// Stmt is a statement. Which fields are meaningful depends on Kind:
//
//	StmtLet, StmtVar: Name = Expr
//	StmtFor:          for Name in Expr .. End { Body }
//	StmtSet:          Target Op Expr
//	StmtExpr:         Expr
type Stmt struct {
	Kind   StmtKind      `json:"kind" yaml:"kind"`
	Name   lex.TokenID   `json:"name,omitempty" yaml:"name,omitempty"`
	Expr   ExprID        `json:"expr" yaml:"expr"`
	End    ExprID        `json:"end,omitempty" yaml:"end,omitempty"`
	Body   Range[StmtID] `json:"body" yaml:"body"`
	Target ExprID        `json:"target,omitempty" yaml:"target,omitempty"`
	Op     SetKind       `json:"op,omitempty" yaml:"op,omitempty"`
	From   lex.TokenID   `json:"from" yaml:"from"`
}

// ExprKind distinguishes expressions.
type ExprKind uint8

const (
	ExprParen ExprKind = iota
	ExprName
	ExprInt
	ExprFloat
	ExprNew
	ExprIndex
	ExprIndex2
	ExprCall
	ExprMethod
	ExprNegate
	ExprBinary
)

// Binop is a binary arithmetic operator.
type Binop uint8

const (
	Add Binop = iota
	Subtract
	Multiply
	Divide
)

// Expr is an expression. Which fields are meaningful depends on Kind:
//
//	ExprParen:  (X)
//	ExprName, ExprInt, ExprFloat: Token
//	ExprNew:    Type(Args)
//	ExprIndex:  X[Y]
//	ExprIndex2: X[Y, Z]
//	ExprCall:   Token(Args)
//	ExprMethod: X.Token(Args)
//	ExprNegate: -X
//	ExprBinary: X Op Y
//
// From and To delimit the tokens the expression was parsed from.
type Expr struct {
	Kind  ExprKind     `json:"kind" yaml:"kind"`
	Token lex.TokenID  `json:"token,omitempty" yaml:"token,omitempty"`
	Type  TypeID       `json:"type,omitempty" yaml:"type,omitempty"`
	Args  Range[ArgID] `json:"args" yaml:"args"`
	X     ExprID       `json:"x,omitempty" yaml:"x,omitempty"`
	Y     ExprID       `json:"y,omitempty" yaml:"y,omitempty"`
	Z     ExprID       `json:"z,omitempty" yaml:"z,omitempty"`
	Op    Binop        `json:"op,omitempty" yaml:"op,omitempty"`
	From  lex.TokenID  `json:"from" yaml:"from"`
	To    lex.TokenID  `json:"to" yaml:"to"`
}

// Arg is a call argument, optionally named (`f(n = 3)`).
type Arg struct {
	Name  lex.TokenID `json:"name,omitempty" yaml:"name,omitempty"`
	Named bool        `json:"named" yaml:"named"`
	Expr  ExprID      `json:"expr" yaml:"expr"`
}

// Signature is the header of a function or host import.
type Signature struct {
	Name   lex.TokenID    `json:"name" yaml:"name"`
	Params Range[ParamID] `json:"params" yaml:"params"`
	Result TypeID         `json:"result" yaml:"result"`
	From   lex.TokenID    `json:"from" yaml:"from"`
}

// Function is a function definition.
type Function struct {
	Sig  Signature     `json:"sig" yaml:"sig"`
	Body Range[StmtID] `json:"body" yaml:"body"`
	Ret  ExprID        `json:"ret" yaml:"ret"`
}

// HasRet reports whether the body ends in a result expression.
func (f Function) HasRet() bool {
	return f.Ret != NoExpr
}

// Import is a module import: `import "path" as alias;`.
type Import struct {
	Path  lex.TokenID `json:"path" yaml:"path"`
	Alias lex.TokenID `json:"alias" yaml:"alias"`
	From  lex.TokenID `json:"from" yaml:"from"`
}

// Tree is the parse tree of one module, stored in flat arenas addressed by
// the ID types above.
type Tree struct {
	Types   []Type      `json:"types" yaml:"types"`
	Params  []Param     `json:"params" yaml:"params"`
	Stmts   []Stmt      `json:"stmts" yaml:"stmts"`
	Exprs   []Expr      `json:"exprs" yaml:"exprs"`
	Args    []Arg       `json:"args" yaml:"args"`
	Imports []Import    `json:"imports" yaml:"imports"`
	Hosts   []Signature `json:"hosts" yaml:"hosts"`
	Funcs   []Function  `json:"funcs" yaml:"funcs"`
}

// ParamsOf returns the parameters in r.
func (t *Tree) ParamsOf(r Range[ParamID]) []Param {
	return t.Params[r.Start:r.End]
}

// StmtsOf returns the statements in r.
func (t *Tree) StmtsOf(r Range[StmtID]) []Stmt {
	return t.Stmts[r.Start:r.End]
}

// ArgsOf returns the arguments in r.
func (t *Tree) ArgsOf(r Range[ArgID]) []Arg {
	return t.Args[r.Start:r.End]
}

// ImportPaths returns the unquoted import names in declaration order.
func (t *Tree) ImportPaths(src string, toks lex.Tokens) []string {
	paths := make([]string, len(t.Imports))
	for i, imp := range t.Imports {
		paths[i] = lex.Unquote(toks.Text(src, imp.Path))
	}
	return paths
}

// ExprSpan returns the byte range an expression was parsed from.
func (t *Tree) ExprSpan(toks lex.Tokens, id ExprID) lex.Span {
	e := t.Exprs[id]
	first := toks[e.From].Span()
	if e.To <= e.From {
		return first
	}
	return first.Join(toks[e.To-1].Span())
}
