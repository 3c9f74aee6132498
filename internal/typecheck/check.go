// Package typecheck resolves names and types in a parsed module.
//
// Checking never fails outright: every problem becomes an Error with a span
// and the offending expression gets the Invalid type, which later checks
// accept silently.
package typecheck

import (
	"fmt"

	"github.com/adroit-lang/adroit/internal/lex"
	"github.com/adroit-lang/adroit/internal/parse"
)

type bindingKind uint8

const (
	bindParam bindingKind = iota
	bindLet
	bindVar
	bindLoop
)

type binding struct {
	kind bindingKind
	typ  Type
}

type checker struct {
	src   string
	toks  lex.Tokens
	tree  *parse.Tree
	funcs map[string]Func
	deps  map[string]*Module
	scope []map[string]binding
	types []Type
	errs  []Error
}

// Check typechecks tree. deps holds the semantic modules of the tree's
// imports, in import order.
func Check(src string, toks lex.Tokens, tree *parse.Tree, deps []*Module) (*Module, []Error) {
	c := &checker{
		src:   src,
		toks:  toks,
		tree:  tree,
		funcs: make(map[string]Func),
		deps:  make(map[string]*Module),
		types: make([]Type, len(tree.Exprs)),
	}
	mod := &Module{}

	for i, imp := range tree.Imports {
		alias := c.text(imp.Alias)
		if _, dup := c.deps[alias]; dup {
			c.errorAt(imp.Alias, "duplicate import alias `%s`", alias)
			continue
		}
		dep := &Module{}
		if i < len(deps) && deps[i] != nil {
			dep = deps[i]
		}
		c.deps[alias] = dep
	}
	for _, sig := range tree.Hosts {
		if f, ok := c.declare(sig); ok {
			mod.Hosts = append(mod.Hosts, f)
		}
	}
	sigs := make([]Func, len(tree.Funcs))
	for i, fn := range tree.Funcs {
		f, ok := c.declare(fn.Sig)
		if ok {
			mod.Funcs = append(mod.Funcs, f)
		}
		sigs[i] = f
	}
	for i, fn := range tree.Funcs {
		c.function(fn, sigs[i])
	}

	mod.Exprs = c.types
	return mod, c.errs
}

func (c *checker) text(id lex.TokenID) string {
	return c.toks.Text(c.src, id)
}

func (c *checker) errorAt(id lex.TokenID, format string, args ...any) {
	c.errs = append(c.errs, Error{Message: fmt.Sprintf(format, args...), Span: c.toks[id].Span()})
}

func (c *checker) errorExpr(id parse.ExprID, format string, args ...any) {
	c.errs = append(c.errs, Error{Message: fmt.Sprintf(format, args...), Span: c.tree.ExprSpan(c.toks, id)})
}

func (c *checker) typ(id parse.TypeID) Type {
	t := c.tree.Types[id]
	switch t.Kind {
	case parse.TypeVector:
		return VectorOf(c.typ(t.Elem))
	case parse.TypeMatrix:
		return MatrixOf(c.typ(t.Elem))
	}
	switch name := c.text(t.Name); name {
	case "Int":
		return IntType
	case "Float":
		return FloatType
	default:
		c.errorAt(t.Name, "unknown type `%s`", name)
		return InvalidType
	}
}

func (c *checker) declare(sig parse.Signature) (Func, bool) {
	f := Func{Name: c.text(sig.Name), Result: c.typ(sig.Result)}
	for _, p := range c.tree.ParamsOf(sig.Params) {
		f.Params = append(f.Params, Param{Name: c.text(p.Name), Type: c.typ(p.Type)})
	}
	if _, dup := c.funcs[f.Name]; dup {
		c.errorAt(sig.Name, "duplicate definition of `%s`", f.Name)
		return f, false
	}
	c.funcs[f.Name] = f
	return f, true
}

func (c *checker) push() {
	c.scope = append(c.scope, make(map[string]binding))
}

func (c *checker) pop() {
	c.scope = c.scope[:len(c.scope)-1]
}

func (c *checker) bind(name string, b binding) {
	c.scope[len(c.scope)-1][name] = b
}

func (c *checker) lookup(name string) (binding, bool) {
	for i := len(c.scope) - 1; i >= 0; i-- {
		if b, ok := c.scope[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

func (c *checker) function(fn parse.Function, sig Func) {
	c.push()
	defer c.pop()
	for _, p := range sig.Params {
		c.bind(p.Name, binding{kind: bindParam, typ: p.Type})
	}
	c.stmts(fn.Body)

	if !fn.HasRet() {
		if sig.Result.Kind != Invalid {
			c.errorAt(fn.Sig.Name, "missing result of type %s", sig.Result)
		}
		return
	}
	c.expect(fn.Ret, sig.Result, c.expr(fn.Ret))
}

// expect reports a mismatch between the wanted and actual type of id.
func (c *checker) expect(id parse.ExprID, want, got Type) {
	if want.Kind == Invalid || got.Kind == Invalid || want.Equal(got) {
		return
	}
	c.errorExpr(id, "expected %s, found %s", want, got)
}

func (c *checker) stmts(r parse.Range[parse.StmtID]) {
	for _, s := range c.tree.StmtsOf(r) {
		c.stmt(s)
	}
}

func (c *checker) stmt(s parse.Stmt) {
	switch s.Kind {
	case parse.StmtLet, parse.StmtVar:
		kind := bindLet
		if s.Kind == parse.StmtVar {
			kind = bindVar
		}
		t := c.expr(s.Expr)
		c.bind(c.text(s.Name), binding{kind: kind, typ: t})
	case parse.StmtFor:
		c.expect(s.Expr, IntType, c.expr(s.Expr))
		c.expect(s.End, IntType, c.expr(s.End))
		c.push()
		c.bind(c.text(s.Name), binding{kind: bindLoop, typ: IntType})
		c.stmts(s.Body)
		c.pop()
	case parse.StmtSet:
		target := c.assignable(s.Target)
		value := c.expr(s.Expr)
		if s.Op != parse.Set && target.Kind != Invalid && !target.Numeric() {
			c.errorExpr(s.Target, "expected Int or Float, found %s", target)
			return
		}
		c.expect(s.Expr, target, value)
	case parse.StmtExpr:
		c.expr(s.Expr)
	}
}

// assignable checks an assignment target and returns its type.
func (c *checker) assignable(id parse.ExprID) Type {
	e := c.tree.Exprs[id]
	if e.Kind != parse.ExprName {
		return c.expr(id)
	}
	name := c.text(e.Token)
	b, ok := c.lookup(name)
	if !ok {
		return c.expr(id)
	}
	c.types[id] = b.typ
	switch b.kind {
	case bindLet:
		c.errorAt(e.Token, "cannot assign to `%s`, declared with let", name)
	case bindLoop:
		c.errorAt(e.Token, "cannot assign to loop variable `%s`", name)
	case bindParam:
		c.errorAt(e.Token, "cannot assign to parameter `%s`", name)
	}
	return b.typ
}

func (c *checker) expr(id parse.ExprID) Type {
	t := c.exprType(id)
	c.types[id] = t
	return t
}

func (c *checker) exprType(id parse.ExprID) Type {
	e := c.tree.Exprs[id]
	switch e.Kind {
	case parse.ExprParen:
		return c.expr(e.X)
	case parse.ExprName:
		name := c.text(e.Token)
		if b, ok := c.lookup(name); ok {
			return b.typ
		}
		c.errorAt(e.Token, "unknown name `%s`", name)
		return InvalidType
	case parse.ExprInt:
		return IntType
	case parse.ExprFloat:
		return FloatType
	case parse.ExprNew:
		return c.construct(id, e)
	case parse.ExprIndex:
		base := c.expr(e.X)
		c.expect(e.Y, IntType, c.expr(e.Y))
		switch base.Kind {
		case Vector:
			return *base.Elem
		case Invalid:
			return InvalidType
		}
		c.errorExpr(e.X, "cannot index %s with one index", base)
		return InvalidType
	case parse.ExprIndex2:
		base := c.expr(e.X)
		c.expect(e.Y, IntType, c.expr(e.Y))
		c.expect(e.Z, IntType, c.expr(e.Z))
		switch base.Kind {
		case Matrix:
			return *base.Elem
		case Invalid:
			return InvalidType
		}
		c.errorExpr(e.X, "cannot index %s with two indices", base)
		return InvalidType
	case parse.ExprCall:
		name := c.text(e.Token)
		f, ok := c.funcs[name]
		if !ok {
			c.errorAt(e.Token, "unknown function `%s`", name)
			c.argTypes(e.Args)
			return InvalidType
		}
		c.call(id, f, e.Args)
		return f.Result
	case parse.ExprMethod:
		return c.method(id, e)
	case parse.ExprNegate:
		t := c.expr(e.X)
		if t.Kind != Invalid && !t.Numeric() {
			c.errorExpr(e.X, "expected Int or Float, found %s", t)
			return InvalidType
		}
		return t
	case parse.ExprBinary:
		x, y := c.expr(e.X), c.expr(e.Y)
		switch {
		case x.Kind == Invalid || y.Kind == Invalid:
			return InvalidType
		case !x.Numeric():
			c.errorExpr(e.X, "expected Int or Float, found %s", x)
			return InvalidType
		case !y.Numeric():
			c.errorExpr(e.Y, "expected Int or Float, found %s", y)
			return InvalidType
		case !x.Equal(y):
			c.errorExpr(id, "mismatched types %s and %s", x, y)
			return InvalidType
		}
		return x
	}
	return InvalidType
}

func (c *checker) construct(id parse.ExprID, e parse.Expr) Type {
	t := c.typ(e.Type)
	var dims []string
	switch t.Kind {
	case Vector:
		dims = []string{"len"}
	case Matrix:
		dims = []string{"rows", "cols"}
	case Invalid:
		c.argTypes(e.Args)
		return InvalidType
	default:
		c.errorExpr(id, "cannot construct %s", t)
		c.argTypes(e.Args)
		return InvalidType
	}
	params := make([]Param, len(dims))
	for i, d := range dims {
		params[i] = Param{Name: d, Type: IntType}
	}
	c.call(id, Func{Name: t.String(), Params: params, Result: t}, e.Args)
	return t
}

func (c *checker) method(id parse.ExprID, e parse.Expr) Type {
	name := c.text(e.Token)
	if x := c.tree.Exprs[e.X]; x.Kind == parse.ExprName {
		alias := c.text(x.Token)
		if _, shadowed := c.lookup(alias); !shadowed {
			if dep, ok := c.deps[alias]; ok {
				c.types[e.X] = InvalidType
				f, ok := dep.Func(name)
				if !ok {
					c.errorAt(e.Token, "module `%s` has no function `%s`", alias, name)
					c.argTypes(e.Args)
					return InvalidType
				}
				c.call(id, f, e.Args)
				return f.Result
			}
		}
	}

	recv := c.expr(e.X)
	var result Type
	switch {
	case recv.Kind == Invalid:
		c.argTypes(e.Args)
		return InvalidType
	case recv.Kind == Vector && name == "len":
		result = IntType
	case recv.Kind == Matrix && (name == "rows" || name == "cols"):
		result = IntType
	default:
		c.errorAt(e.Token, "unknown method `%s` on %s", name, recv)
		c.argTypes(e.Args)
		return InvalidType
	}
	c.call(id, Func{Name: name, Result: result}, e.Args)
	return result
}

// argTypes checks arguments of a call that could not be resolved, so their
// own errors are still reported.
func (c *checker) argTypes(r parse.Range[parse.ArgID]) {
	for _, a := range c.tree.ArgsOf(r) {
		c.expr(a.Expr)
	}
}

func (c *checker) call(id parse.ExprID, f Func, r parse.Range[parse.ArgID]) {
	args := c.tree.ArgsOf(r)
	if len(args) != len(f.Params) {
		c.errorExpr(id, "`%s` expects %d arguments, found %d", f.Name, len(f.Params), len(args))
		c.argTypes(r)
		return
	}
	for i, a := range args {
		p := f.Params[i]
		if a.Named {
			if name := c.text(a.Name); name != p.Name {
				c.errorAt(a.Name, "expected argument `%s`, found `%s`", p.Name, name)
			}
		}
		c.expect(a.Expr, p.Type, c.expr(a.Expr))
	}
}
