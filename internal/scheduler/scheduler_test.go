package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adroit-lang/adroit/internal/fetch"
	"github.com/adroit-lang/adroit/internal/graph"
	"github.com/adroit-lang/adroit/internal/localexecutor"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/typecheck"
)

func mustID(t *testing.T, p string) moduleid.ID {
	t.Helper()
	id, err := moduleid.ResolveRoot(p)
	require.NoError(t, err)
	return id
}

func setup(t *testing.T, fs fetch.Map, opts ...Option) (*graph.Manager, *DefaultScheduler, moduleid.ID) {
	t.Helper()
	g := graph.New(mustID(t, "/std"))
	root := mustID(t, "/src/r.adroit")
	g.MakeRoot(context.Background(), root)
	s := New(g, fs, localexecutor.New(4), localexecutor.New(2), opts...)
	return g, s, root
}

func kinds(g *graph.Manager) map[string]node.Kind {
	out := map[string]node.Kind{}
	for _, n := range g.Nodes(context.Background()) {
		out[n.ID.Path()] = n.Stage.Kind()
	}
	return out
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", Tolerant, false},
		{"tolerant", Tolerant, false},
		{"fail-fast", FailFast, false},
		{"FailFast", FailFast, false},
		{"strict", Tolerant, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePolicy(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDrain_SingleImport(t *testing.T) {
	fs := fetch.Map{
		"/src/r.adroit": `import "./a" as a; func main(): Int { a.one() }`,
		"/src/a.adroit": `func one(): Int { 1 }`,
	}
	g, s, _ := setup(t, fs)

	report, err := s.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]node.Kind{
		"/src/r.adroit": node.KindAnalyzed,
		"/src/a.adroit": node.KindAnalyzed,
	}, kinds(g))
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Analyzed)
	assert.Equal(t, 2, report.FetchRounds)
	assert.Equal(t, 2, report.CheckRounds)
	assert.Empty(t, report.Stuck)
}

func TestDrain_TypeErrorIsStoredNotFatal(t *testing.T) {
	fs := fetch.Map{
		"/src/r.adroit": `import "./a" as a; import "./b" as b; func main(): Int { a.one() + b.half() }`,
		"/src/a.adroit": `func one(): Int { 1 }`,
		"/src/b.adroit": `func half(): Float { 0.5 }`,
	}
	g, s, root := setup(t, fs)

	_, err := s.Drain(context.Background())
	require.NoError(t, err)

	st, ok := g.Stage(context.Background(), root)
	require.True(t, ok)
	analyzed, ok := st.(node.Analyzed)
	require.True(t, ok)
	require.Len(t, analyzed.Errors, 1)
	assert.Contains(t, analyzed.Errors[0].Message, "mismatched types")
}

func TestDrain_FailFastStopsOnTypeError(t *testing.T) {
	fs := fetch.Map{
		"/src/r.adroit": `import "./a" as a; func main(): Int { a.one() }`,
		"/src/a.adroit": `func one(): Int { 1.5 }`,
	}
	_, s, _ := setup(t, fs, WithPolicy(FailFast))

	_, err := s.Drain(context.Background())
	var modErr *ModuleError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, "/src/a.adroit", modErr.ID.Path())
	assert.Equal(t, node.KindAnalyzed, modErr.Stage)
	assert.EqualError(t, err, "/src/a.adroit: failed to typecheck")
}

func TestIsStored(t *testing.T) {
	id := mustID(t, "/src/a.adroit")
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "module error", err: &ModuleError{ID: id, Stage: node.KindAnalyzed}, want: true},
		{name: "wrapped module error", err: fmt.Errorf("reload: %w", &ModuleError{ID: id, Stage: node.KindRead}), want: true},
		{name: "cycle", err: &graph.CycleError{Path: []moduleid.ID{id, id}}, want: true},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsStored(tc.err))
		})
	}
}

func TestDrain_FailedStages(t *testing.T) {
	testCases := []struct {
		name      string
		text      string
		missing   bool
		wantStage node.Kind
		wantMsg   string
	}{
		{name: "missing file", missing: true, wantStage: node.KindUnavailable, wantMsg: "failed to read"},
		{name: "lex error", text: `func f(): Int { @ }`, wantStage: node.KindRead, wantMsg: "failed to tokenize"},
		{name: "parse error", text: `func f(`, wantStage: node.KindLexed, wantMsg: "failed to parse"},
	}
	for _, tc := range testCases {
		t.Run(tc.name+"/tolerant", func(t *testing.T) {
			fs := fetch.Map{"/src/r.adroit": `import "./a" as a; func main(): Int { 0 }`}
			if !tc.missing {
				fs["/src/a.adroit"] = tc.text
			}
			g, s, _ := setup(t, fs)

			report, err := s.Drain(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.wantStage, kinds(g)["/src/a.adroit"])
			require.Len(t, report.Stuck, 1)
			assert.Equal(t, graph.Blocked, report.Stuck[0].Reason)
			assert.Equal(t, "/src/a.adroit", report.Stuck[0].BlockedBy.Path())
		})
		t.Run(tc.name+"/fail-fast", func(t *testing.T) {
			fs := fetch.Map{"/src/r.adroit": `import "./a" as a; func main(): Int { 0 }`}
			if !tc.missing {
				fs["/src/a.adroit"] = tc.text
			}
			_, s, _ := setup(t, fs, WithPolicy(FailFast))

			_, err := s.Drain(context.Background())
			var modErr *ModuleError
			require.ErrorAs(t, err, &modErr)
			assert.Equal(t, tc.wantStage, modErr.Stage)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestDrain_Cycle(t *testing.T) {
	fs := fetch.Map{
		"/src/r.adroit": `import "./a" as a; func main(): Int { a.f() }`,
		"/src/a.adroit": `import "./b" as b; func f(): Int { b.g() }`,
		"/src/b.adroit": `import "./a" as a; func g(): Int { 0 }`,
	}

	t.Run("tolerant reports stuck modules", func(t *testing.T) {
		g, s, _ := setup(t, fs)
		report, err := s.Drain(context.Background())
		require.NoError(t, err)

		assert.Equal(t, node.KindParsed, kinds(g)["/src/a.adroit"])
		reasons := map[string]graph.StuckReason{}
		for _, st := range report.Stuck {
			reasons[st.ID.Path()] = st.Reason
		}
		assert.Equal(t, map[string]graph.StuckReason{
			"/src/a.adroit": graph.OnCycle,
			"/src/b.adroit": graph.OnCycle,
			"/src/r.adroit": graph.Blocked,
		}, reasons)
	})

	t.Run("fail-fast returns the cycle", func(t *testing.T) {
		_, s, _ := setup(t, fs, WithPolicy(FailFast))
		_, err := s.Drain(context.Background())
		var cycleErr *graph.CycleError
		require.ErrorAs(t, err, &cycleErr)
		require.Len(t, cycleErr.Path, 3)
		assert.Equal(t, cycleErr.Path[0], cycleErr.Path[2])
	})
}

func TestDrain_SharedImportCheckedOnce(t *testing.T) {
	fs := fetch.Map{
		"/src/r.adroit": `import "./a" as a; import "./b" as b; func main(): Int { a.f() + b.f() }`,
		"/src/a.adroit": `import "./c" as c; func f(): Int { c.k() }`,
		"/src/b.adroit": `import "./c" as c; func f(): Int { c.k() * 2 }`,
		"/src/c.adroit": `func k(): Int { 3 }`,
	}
	var fetches, checks atomic.Int32
	counting := fetch.ResolverFunc(func(ctx context.Context, id moduleid.ID) (string, error) {
		fetches.Add(1)
		return fs.Fetch(ctx, id)
	})
	g := graph.New(mustID(t, "/std"))
	g.MakeRoot(context.Background(), mustID(t, "/src/r.adroit"))
	s := New(g, counting, localexecutor.New(4), localexecutor.New(4), WithCheck(
		func(ctx context.Context, job *graph.Job) (*typecheck.Module, []typecheck.Error) {
			checks.Add(1)
			return Typecheck(ctx, job)
		}))

	report, err := s.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(4), fetches.Load())
	assert.Equal(t, int32(4), checks.Load())
	assert.Equal(t, 3, report.CheckRounds)
}

func TestDrain_Idempotent(t *testing.T) {
	fs := fetch.Map{
		"/src/r.adroit": `import "./a" as a; func main(): Int { a.one() }`,
		"/src/a.adroit": `func one(): Int { 1 }`,
	}
	g, s, _ := setup(t, fs)

	_, err := s.Drain(context.Background())
	require.NoError(t, err)
	before := g.Nodes(context.Background())

	report, err := s.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Fetched)
	assert.Zero(t, report.Analyzed)
	assert.Equal(t, before, g.Nodes(context.Background()))
}

func TestDrain_Cancelled(t *testing.T) {
	fs := fetch.Map{"/src/r.adroit": `func main(): Int { 0 }`}
	_, s, _ := setup(t, fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Drain(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDrain_DeterministicAcrossWorkerCounts(t *testing.T) {
	fs := fetch.Map{
		"/src/r.adroit":   `import "./a" as a; import "./b" as b; import "./bad" as bad; func main(): Int { a.f() + b.f() }`,
		"/src/a.adroit":   `import "./c" as c; func f(): Int { c.k() }`,
		"/src/b.adroit":   `import "./c" as c; func f(): Float { 1.0 }`,
		"/src/c.adroit":   `func k(): Int { 3 }`,
		"/src/bad.adroit": `func (`,
	}
	snapshot := func(workers int) map[string]node.Kind {
		g := graph.New(mustID(t, "/std"))
		g.MakeRoot(context.Background(), mustID(t, "/src/r.adroit"))
		s := New(g, fs, localexecutor.New(workers), localexecutor.New(workers))
		_, err := s.Drain(context.Background())
		require.NoError(t, err)
		return kinds(g)
	}

	want := snapshot(1)
	for _, workers := range []int{2, 8} {
		assert.Equal(t, want, snapshot(workers))
	}
}
