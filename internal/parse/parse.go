// Package parse builds the syntax tree of one module from its token stream.
//
// The parser is a hand-written recursive descent over lex.Tokens. Comments
// are skipped but keep their token ids, so every id stored in the tree can be
// looked up in the original stream. Nodes live in flat arenas on Tree and
// refer to each other by index.
package parse

import "github.com/adroit-lang/adroit/internal/lex"

type parser struct {
	toks lex.Tokens
	id   lex.TokenID
	last lex.TokenID
	tree *Tree
}

// Parse parses a token stream. The stream must end in lex.Eof, as every
// stream produced by lex.Lex does. On failure the returned error is a
// *Error.
func Parse(toks lex.Tokens) (*Tree, error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != lex.Eof {
		toks = append(toks[:len(toks):len(toks)], lex.Token{Kind: lex.Eof})
	}
	p := &parser{toks: toks, tree: &Tree{}}
	p.skip()
	if err := p.module(); err != nil {
		return nil, err
	}
	return p.tree, nil
}

func (p *parser) skip() {
	for p.toks[p.id].Kind.Ignore() {
		p.id++
	}
}

func (p *parser) peek() lex.Kind {
	return p.toks[p.id].Kind
}

func (p *parser) next() lex.TokenID {
	id := p.id
	if p.toks[id].Kind == lex.Eof {
		return id
	}
	p.last = id
	p.id++
	p.skip()
	return id
}

func (p *parser) err(expected ...lex.Kind) *Error {
	return &Error{Token: p.id, Expected: lex.Kinds(expected...)}
}

func (p *parser) expect(kind lex.Kind) (lex.TokenID, error) {
	if p.peek() != kind {
		return 0, p.err(kind)
	}
	return p.next(), nil
}

func (p *parser) pushType(t Type) TypeID {
	p.tree.Types = append(p.tree.Types, t)
	return TypeID(len(p.tree.Types) - 1)
}

func (p *parser) pushExpr(e Expr) ExprID {
	p.tree.Exprs = append(p.tree.Exprs, e)
	return ExprID(len(p.tree.Exprs) - 1)
}

// finish stamps the token range of e, which started at from.
func (p *parser) finish(e Expr, from lex.TokenID) Expr {
	e.From = from
	e.To = p.last + 1
	return e
}

func (p *parser) typ() (TypeID, error) {
	from := p.id
	switch p.peek() {
	case lex.Ident:
		return p.pushType(Type{Kind: TypeName, Name: p.next(), From: from}), nil
	case lex.LBracket:
		p.next()
		switch p.peek() {
		case lex.LBracket:
			p.next()
			if _, err := p.expect(lex.RBracket); err != nil {
				return 0, err
			}
			if _, err := p.expect(lex.RBracket); err != nil {
				return 0, err
			}
			elem, err := p.typ()
			if err != nil {
				return 0, err
			}
			return p.pushType(Type{Kind: TypeMatrix, Elem: elem, From: from}), nil
		case lex.RBracket:
			p.next()
			elem, err := p.typ()
			if err != nil {
				return 0, err
			}
			return p.pushType(Type{Kind: TypeVector, Elem: elem, From: from}), nil
		default:
			return 0, p.err(lex.LBracket, lex.RBracket)
		}
	default:
		return 0, p.err(lex.Ident, lex.LBracket)
	}
}

func (p *parser) atom() (Expr, error) {
	from := p.id
	switch p.peek() {
	case lex.Ident:
		return p.finish(Expr{Kind: ExprName, Token: p.next()}, from), nil
	case lex.Int:
		return p.finish(Expr{Kind: ExprInt, Token: p.next()}, from), nil
	case lex.Float:
		return p.finish(Expr{Kind: ExprFloat, Token: p.next()}, from), nil
	case lex.LParen:
		p.next()
		inner, err := p.exprID()
		if err != nil {
			return Expr{}, err
		}
		if _, err := p.expect(lex.RParen); err != nil {
			return Expr{}, err
		}
		return p.finish(Expr{Kind: ExprParen, X: inner}, from), nil
	case lex.LBracket:
		ty, err := p.typ()
		if err != nil {
			return Expr{}, err
		}
		args, err := p.args()
		if err != nil {
			return Expr{}, err
		}
		return p.finish(Expr{Kind: ExprNew, Type: ty, Args: args}, from), nil
	default:
		return Expr{}, p.err(lex.Ident, lex.Int, lex.Float, lex.LParen, lex.LBracket)
	}
}

func (p *parser) factor() (Expr, error) {
	var minuses []lex.TokenID
	for p.peek() == lex.Minus {
		minuses = append(minuses, p.next())
	}
	from := p.id
	var e Expr
	if p.peek() == lex.Ident {
		name := p.next()
		if p.peek() == lex.LParen {
			args, err := p.args()
			if err != nil {
				return Expr{}, err
			}
			e = p.finish(Expr{Kind: ExprCall, Token: name, Args: args}, from)
		} else {
			e = p.finish(Expr{Kind: ExprName, Token: name}, from)
		}
	} else {
		var err error
		if e, err = p.atom(); err != nil {
			return Expr{}, err
		}
	}
	for {
		switch p.peek() {
		case lex.LBracket:
			p.next()
			index, err := p.exprID()
			if err != nil {
				return Expr{}, err
			}
			switch p.peek() {
			case lex.RBracket:
				p.next()
				x := p.pushExpr(e)
				e = p.finish(Expr{Kind: ExprIndex, X: x, Y: index}, from)
			case lex.Comma:
				p.next()
				x := p.pushExpr(e)
				col, err := p.exprID()
				if err != nil {
					return Expr{}, err
				}
				if _, err := p.expect(lex.RBracket); err != nil {
					return Expr{}, err
				}
				e = p.finish(Expr{Kind: ExprIndex2, X: x, Y: index, Z: col}, from)
			default:
				return Expr{}, p.err(lex.RBracket, lex.Comma)
			}
		case lex.Dot:
			p.next()
			x := p.pushExpr(e)
			name, err := p.expect(lex.Ident)
			if err != nil {
				return Expr{}, err
			}
			args, err := p.args()
			if err != nil {
				return Expr{}, err
			}
			e = p.finish(Expr{Kind: ExprMethod, X: x, Token: name, Args: args}, from)
		default:
			for i := len(minuses) - 1; i >= 0; i-- {
				x := p.pushExpr(e)
				e = p.finish(Expr{Kind: ExprNegate, X: x}, minuses[i])
			}
			return e, nil
		}
	}
}

func (p *parser) term() (Expr, error) {
	from := p.id
	e, err := p.factor()
	if err != nil {
		return Expr{}, err
	}
	for {
		var op Binop
		switch p.peek() {
		case lex.Times:
			op = Multiply
		case lex.Divide:
			op = Divide
		default:
			return e, nil
		}
		p.next()
		x := p.pushExpr(e)
		y, err := p.factor()
		if err != nil {
			return Expr{}, err
		}
		e = p.finish(Expr{Kind: ExprBinary, X: x, Op: op, Y: p.pushExpr(y)}, from)
	}
}

func (p *parser) expr() (Expr, error) {
	from := p.id
	e, err := p.term()
	if err != nil {
		return Expr{}, err
	}
	for {
		var op Binop
		switch p.peek() {
		case lex.Plus:
			op = Add
		case lex.Minus:
			op = Subtract
		default:
			return e, nil
		}
		p.next()
		x := p.pushExpr(e)
		y, err := p.term()
		if err != nil {
			return Expr{}, err
		}
		e = p.finish(Expr{Kind: ExprBinary, X: x, Op: op, Y: p.pushExpr(y)}, from)
	}
}

func (p *parser) exprID() (ExprID, error) {
	e, err := p.expr()
	if err != nil {
		return 0, err
	}
	return p.pushExpr(e), nil
}

func (p *parser) args() (Range[ArgID], error) {
	if _, err := p.expect(lex.LParen); err != nil {
		return Range[ArgID]{}, err
	}
	// Nested calls push their own args while ours are parsed, so collect
	// locally and append as one contiguous run.
	var args []Arg
	for p.peek() != lex.RParen {
		e, err := p.expr()
		if err != nil {
			return Range[ArgID]{}, err
		}
		if p.peek() == lex.Equals {
			if e.Kind != ExprName {
				return Range[ArgID]{}, p.err(lex.Comma, lex.RParen)
			}
			p.next()
			value, err := p.exprID()
			if err != nil {
				return Range[ArgID]{}, err
			}
			args = append(args, Arg{Name: e.Token, Named: true, Expr: value})
		} else {
			args = append(args, Arg{Expr: p.pushExpr(e)})
		}
		if p.peek() == lex.Comma {
			p.next()
		}
	}
	p.next()
	start := ArgID(len(p.tree.Args))
	p.tree.Args = append(p.tree.Args, args...)
	return Range[ArgID]{Start: start, End: ArgID(len(p.tree.Args))}, nil
}

var setKinds = map[lex.Kind]SetKind{
	lex.Equals:       Set,
	lex.PlusEquals:   SetAdd,
	lex.MinusEquals:  SetSubtract,
	lex.TimesEquals:  SetMultiply,
	lex.DivideEquals: SetDivide,
}

// block parses `{ stmts [expr] }`. Statements of the block are returned
// rather than stored so that nested bodies land in the arena first and every
// body stays contiguous.
func (p *parser) block(allowResult bool) ([]Stmt, *Expr, error) {
	if _, err := p.expect(lex.LBrace); err != nil {
		return nil, nil, err
	}
	var stmts []Stmt
	for {
		from := p.id
		switch p.peek() {
		case lex.RBrace:
			p.next()
			return stmts, nil, nil
		case lex.Let, lex.Var:
			kind := StmtLet
			if p.peek() == lex.Var {
				kind = StmtVar
			}
			p.next()
			name, err := p.expect(lex.Ident)
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(lex.Equals); err != nil {
				return nil, nil, err
			}
			rhs, err := p.exprID()
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(lex.Semicolon); err != nil {
				return nil, nil, err
			}
			stmts = append(stmts, Stmt{Kind: kind, Name: name, Expr: rhs, From: from})
		case lex.For:
			p.next()
			name, err := p.expect(lex.Ident)
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(lex.In); err != nil {
				return nil, nil, err
			}
			start, err := p.exprID()
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(lex.DotDot); err != nil {
				return nil, nil, err
			}
			end, err := p.exprID()
			if err != nil {
				return nil, nil, err
			}
			body, _, err := p.block(false)
			if err != nil {
				return nil, nil, err
			}
			stmts = append(stmts, Stmt{
				Kind: StmtFor,
				Name: name,
				Expr: start,
				End:  end,
				Body: p.pushStmts(body),
				From: from,
			})
		default:
			e, err := p.expr()
			if err != nil {
				return nil, nil, err
			}
			kind := p.peek()
			switch kind {
			case lex.RBrace:
				if !allowResult {
					return nil, nil, p.err(lex.Semicolon, lex.Equals, lex.PlusEquals,
						lex.MinusEquals, lex.TimesEquals, lex.DivideEquals)
				}
				p.next()
				return stmts, &e, nil
			case lex.Semicolon:
				p.next()
				stmts = append(stmts, Stmt{Kind: StmtExpr, Expr: p.pushExpr(e), From: from})
				continue
			}
			op, ok := setKinds[kind]
			if !ok {
				return nil, nil, p.err(lex.Semicolon, lex.Equals, lex.PlusEquals,
					lex.MinusEquals, lex.TimesEquals, lex.DivideEquals, lex.RBrace)
			}
			switch e.Kind {
			case ExprName, ExprIndex, ExprIndex2:
			default:
				return nil, nil, p.err(lex.Semicolon, lex.RBrace)
			}
			p.next()
			target := p.pushExpr(e)
			rhs, err := p.exprID()
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(lex.Semicolon); err != nil {
				return nil, nil, err
			}
			stmts = append(stmts, Stmt{Kind: StmtSet, Target: target, Op: op, Expr: rhs, From: from})
		}
	}
}

func (p *parser) pushStmts(stmts []Stmt) Range[StmtID] {
	start := StmtID(len(p.tree.Stmts))
	p.tree.Stmts = append(p.tree.Stmts, stmts...)
	return Range[StmtID]{Start: start, End: StmtID(len(p.tree.Stmts))}
}

func (p *parser) signature() (Signature, error) {
	from := p.id
	if _, err := p.expect(lex.Func); err != nil {
		return Signature{}, err
	}
	name, err := p.expect(lex.Ident)
	if err != nil {
		return Signature{}, err
	}
	if _, err := p.expect(lex.LParen); err != nil {
		return Signature{}, err
	}
	start := ParamID(len(p.tree.Params))
	for p.peek() != lex.RParen {
		pname, err := p.expect(lex.Ident)
		if err != nil {
			return Signature{}, err
		}
		if _, err := p.expect(lex.Colon); err != nil {
			return Signature{}, err
		}
		ty, err := p.typ()
		if err != nil {
			return Signature{}, err
		}
		p.tree.Params = append(p.tree.Params, Param{Name: pname, Type: ty})
		if p.peek() == lex.Comma {
			p.next()
		}
	}
	p.next()
	params := Range[ParamID]{Start: start, End: ParamID(len(p.tree.Params))}
	if _, err := p.expect(lex.Colon); err != nil {
		return Signature{}, err
	}
	result, err := p.typ()
	if err != nil {
		return Signature{}, err
	}
	return Signature{Name: name, Params: params, Result: result, From: from}, nil
}

func (p *parser) importDecl() error {
	from := p.next()
	switch p.peek() {
	case lex.String:
		path := p.next()
		if _, err := p.expect(lex.As); err != nil {
			return err
		}
		alias, err := p.expect(lex.Ident)
		if err != nil {
			return err
		}
		if _, err := p.expect(lex.Semicolon); err != nil {
			return err
		}
		p.tree.Imports = append(p.tree.Imports, Import{Path: path, Alias: alias, From: from})
		return nil
	case lex.Func:
		sig, err := p.signature()
		if err != nil {
			return err
		}
		if _, err := p.expect(lex.Semicolon); err != nil {
			return err
		}
		sig.From = from
		p.tree.Hosts = append(p.tree.Hosts, sig)
		return nil
	default:
		return p.err(lex.String, lex.Func)
	}
}

func (p *parser) function() error {
	sig, err := p.signature()
	if err != nil {
		return err
	}
	stmts, result, err := p.block(true)
	if err != nil {
		return err
	}
	fn := Function{Sig: sig, Body: p.pushStmts(stmts), Ret: NoExpr}
	if result != nil {
		fn.Ret = p.pushExpr(*result)
	}
	p.tree.Funcs = append(p.tree.Funcs, fn)
	return nil
}

func (p *parser) module() error {
	for {
		var err error
		switch p.peek() {
		case lex.Import:
			err = p.importDecl()
		case lex.Func:
			err = p.function()
		case lex.Eof:
			return nil
		default:
			return p.err(lex.Import, lex.Func, lex.Eof)
		}
		if err != nil {
			return err
		}
	}
}
