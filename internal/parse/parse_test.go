package parse

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adroit-lang/adroit/internal/lex"
)

func mustParse(t *testing.T, src string) (*Tree, lex.Tokens) {
	t.Helper()
	toks, err := lex.Lex(src)
	require.NoError(t, err)
	tree, err := Parse(toks)
	require.NoError(t, err)
	return tree, toks
}

func TestParse_ModuleItems(t *testing.T) {
	src := `import "./vec" as vec;
import func print(x: Int): Int;
func main(): Int {
  let x = vec.sum(1, 2);
  x
}
`
	tree, toks := mustParse(t, src)

	require.Len(t, tree.Imports, 1)
	require.Len(t, tree.Hosts, 1)
	require.Len(t, tree.Funcs, 1)
	assert.Equal(t, []string{"./vec"}, tree.ImportPaths(src, toks))
	assert.Equal(t, "vec", toks.Text(src, tree.Imports[0].Alias))
	assert.Equal(t, "print", toks.Text(src, tree.Hosts[0].Name))

	main := tree.Funcs[0]
	assert.Equal(t, "main", toks.Text(src, main.Sig.Name))
	assert.Equal(t, 0, main.Sig.Params.Len())
	require.True(t, main.HasRet())
	assert.Equal(t, ExprName, tree.Exprs[main.Ret].Kind)

	body := tree.StmtsOf(main.Body)
	require.Len(t, body, 1)
	assert.Equal(t, StmtLet, body[0].Kind)
	call := tree.Exprs[body[0].Expr]
	assert.Equal(t, ExprMethod, call.Kind)
	assert.Equal(t, "sum", toks.Text(src, call.Token))
	assert.Equal(t, 2, call.Args.Len())
	assert.Equal(t, "vec.sum(1, 2)", span(tree, toks, src, body[0].Expr))
}

func span(tree *Tree, toks lex.Tokens, src string, id ExprID) string {
	sp := tree.ExprSpan(toks, id)
	return src[sp.Start:sp.End]
}

func TestParse_TreeLayout(t *testing.T) {
	// Tokens: func(0) f(1) ( x(3) : Int(5) ) : Int(8) { let(10) y(11) =
	// x(13) *(14) 2(15) ; y(17) +(18) 1(19) } Eof
	tree, _ := mustParse(t, "func f(x: Int): Int { let y = x * 2; y + 1 }")

	want := &Tree{
		Types: []Type{
			{Kind: TypeName, Name: 5, From: 5},
			{Kind: TypeName, Name: 8, From: 8},
		},
		Params: []Param{{Name: 3, Type: 0}},
		Stmts:  []Stmt{{Kind: StmtLet, Name: 11, Expr: 2, From: 10}},
		Exprs: []Expr{
			{Kind: ExprName, Token: 13, From: 13, To: 14},
			{Kind: ExprInt, Token: 15, From: 15, To: 16},
			{Kind: ExprBinary, X: 0, Op: Multiply, Y: 1, From: 13, To: 16},
			{Kind: ExprName, Token: 17, From: 17, To: 18},
			{Kind: ExprInt, Token: 19, From: 19, To: 20},
			{Kind: ExprBinary, X: 3, Op: Add, Y: 4, From: 17, To: 20},
		},
		Funcs: []Function{{
			Sig: Signature{
				Name:   1,
				Params: Range[ParamID]{Start: 0, End: 1},
				Result: 1,
				From:   0,
			},
			Body: Range[StmtID]{Start: 0, End: 1},
			Ret:  5,
		}},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CommentsKeepTokenIDs(t *testing.T) {
	src := "# header\nfunc f(): Int { 0 }"
	tree, toks := mustParse(t, src)

	require.Len(t, tree.Funcs, 1)
	assert.Equal(t, lex.TokenID(1), tree.Funcs[0].Sig.From)
	assert.Equal(t, "f", toks.Text(src, tree.Funcs[0].Sig.Name))
}

func TestParse_NestedBodiesAreContiguous(t *testing.T) {
	src := "func f(n: Int): Int { var s = 0; for i in 0..n { s += i; } s }"
	tree, _ := mustParse(t, src)

	fn := tree.Funcs[0]
	body := tree.StmtsOf(fn.Body)
	require.Len(t, body, 2)
	assert.Equal(t, StmtVar, body[0].Kind)
	require.Equal(t, StmtFor, body[1].Kind)

	inner := tree.StmtsOf(body[1].Body)
	require.Len(t, inner, 1)
	assert.Equal(t, StmtSet, inner[0].Kind)
	assert.Equal(t, SetAdd, inner[0].Op)
	assert.Equal(t, ExprName, tree.Exprs[inner[0].Target].Kind)
}

func TestParse_Expressions(t *testing.T) {
	t.Run("precedence", func(t *testing.T) {
		tree, _ := mustParse(t, "func f(): Int { 1 + 2 * 3 }")
		root := tree.Exprs[tree.Funcs[0].Ret]
		require.Equal(t, ExprBinary, root.Kind)
		assert.Equal(t, Add, root.Op)
		rhs := tree.Exprs[root.Y]
		require.Equal(t, ExprBinary, rhs.Kind)
		assert.Equal(t, Multiply, rhs.Op)
	})

	t.Run("nested negation", func(t *testing.T) {
		src := "func f(): Int { --1 }"
		tree, toks := mustParse(t, src)
		ret := tree.Funcs[0].Ret
		outer := tree.Exprs[ret]
		require.Equal(t, ExprNegate, outer.Kind)
		inner := tree.Exprs[outer.X]
		require.Equal(t, ExprNegate, inner.Kind)
		assert.Equal(t, ExprInt, tree.Exprs[inner.X].Kind)
		assert.Equal(t, "--1", span(tree, toks, src, ret))
	})

	t.Run("matrix index and constructor", func(t *testing.T) {
		src := "func f(): Float { let m = [[]]Float(2, 3); m[0, 1] }"
		tree, toks := mustParse(t, src)
		ret := tree.Exprs[tree.Funcs[0].Ret]
		assert.Equal(t, ExprIndex2, ret.Kind)

		let := tree.StmtsOf(tree.Funcs[0].Body)[0]
		ctor := tree.Exprs[let.Expr]
		require.Equal(t, ExprNew, ctor.Kind)
		assert.Equal(t, TypeMatrix, tree.Types[ctor.Type].Kind)
		assert.Equal(t, "[[]]Float(2, 3)", span(tree, toks, src, let.Expr))
	})

	t.Run("named arguments", func(t *testing.T) {
		src := "func f(): Int { g(n = 1, 2) }"
		tree, toks := mustParse(t, src)
		call := tree.Exprs[tree.Funcs[0].Ret]
		require.Equal(t, ExprCall, call.Kind)
		args := tree.ArgsOf(call.Args)
		require.Len(t, args, 2)
		assert.True(t, args[0].Named)
		assert.Equal(t, "n", toks.Text(src, args[0].Name))
		assert.False(t, args[1].Named)
	})

	t.Run("no result", func(t *testing.T) {
		tree, _ := mustParse(t, "func f(): Int { g(); }")
		assert.False(t, tree.Funcs[0].HasRet())
	})
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		token   lex.TokenID
		message string
	}{
		{
			name:    "missing operand",
			src:     "func f(): Int { 1 + }",
			token:   9,
			message: "expected identifier or integer or number or `(` or `[`",
		},
		{
			name:    "top level statement",
			src:     "let x = 1;",
			token:   0,
			message: "expected end of file or `import` or `func`",
		},
		{
			name:    "import without path or signature",
			src:     "import 3;",
			token:   1,
			message: "expected string or `func`",
		},
		{
			name:    "module import without alias",
			src:     `import "./a";`,
			token:   2,
			message: "expected `as`",
		},
		{
			name:    "result expression in loop body",
			src:     "func f(): Int { for i in 0..3 { i } 0 }",
			token:   15,
			message: "expected `=` or `;` or `+=` or `-=` or `*=` or `/=`",
		},
		{
			name:    "call is not assignable",
			src:     "func f(): Int { g() = 1; 0 }",
			token:   10,
			message: "expected `}` or `;`",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := lex.Lex(tc.src)
			require.NoError(t, err)
			_, err = Parse(toks)
			var parseErr *Error
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tc.token, parseErr.Token)
			assert.Equal(t, tc.message, parseErr.Message())
		})
	}
}

func TestParse_EmptyStream(t *testing.T) {
	tree, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, tree.Funcs)
}

func TestTree_MarshalsKindsByName(t *testing.T) {
	tree, _ := mustParse(t, "func f(): []Int { [ ]Int(1) }")
	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"New"`)
	assert.Contains(t, string(data), `"kind":"Vector"`)
}
