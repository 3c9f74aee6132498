package parse

import "fmt"

var typeKindNames = [...]string{TypeName: "Name", TypeVector: "Vector", TypeMatrix: "Matrix"}

var stmtKindNames = [...]string{
	StmtLet:  "Let",
	StmtVar:  "Var",
	StmtFor:  "For",
	StmtSet:  "Set",
	StmtExpr: "Expr",
}

var setKindNames = [...]string{
	Set:         "=",
	SetAdd:      "+=",
	SetSubtract: "-=",
	SetMultiply: "*=",
	SetDivide:   "/=",
}

var exprKindNames = [...]string{
	ExprParen:  "Paren",
	ExprName:   "Name",
	ExprInt:    "Int",
	ExprFloat:  "Float",
	ExprNew:    "New",
	ExprIndex:  "Index",
	ExprIndex2: "Index2",
	ExprCall:   "Call",
	ExprMethod: "Method",
	ExprNegate: "Negate",
	ExprBinary: "Binary",
}

var binopNames = [...]string{Add: "+", Subtract: "-", Multiply: "*", Divide: "/"}

func name(names []string, i uint8, typ string) string {
	if int(i) < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s(%d)", typ, i)
}

func (k TypeKind) String() string { return name(typeKindNames[:], uint8(k), "TypeKind") }
func (k StmtKind) String() string { return name(stmtKindNames[:], uint8(k), "StmtKind") }
func (k SetKind) String() string  { return name(setKindNames[:], uint8(k), "SetKind") }
func (k ExprKind) String() string { return name(exprKindNames[:], uint8(k), "ExprKind") }
func (o Binop) String() string    { return name(binopNames[:], uint8(o), "Binop") }

// The kinds below render by name in exported trees.

func (k TypeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
func (k StmtKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
func (k SetKind) MarshalText() ([]byte, error)  { return []byte(k.String()), nil }
func (k ExprKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
func (o Binop) MarshalText() ([]byte, error)    { return []byte(o.String()), nil }
