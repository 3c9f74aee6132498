package localsession

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/fetch"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/session"
)

func mustID(t *testing.T, p string) moduleid.ID {
	t.Helper()
	id, err := moduleid.ResolveRoot(p)
	require.NoError(t, err)
	return id
}

func newSession(t *testing.T, disk fetch.Map) session.Session {
	t.Helper()
	s, err := (&SessionFactory{}).NewSession(context.Background(), session.Options{
		Stdlib:       mustID(t, "/std"),
		Resolver:     disk,
		FetchWorkers: 2,
		CheckWorkers: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func headers(diags []diag.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Header
	}
	return out
}

func stageOf(t *testing.T, s session.Session, id moduleid.ID) node.Kind {
	t.Helper()
	st, ok := s.Graph().Stage(context.Background(), id)
	require.True(t, ok)
	return st.Kind()
}

func TestNewSession_RequiresStdlib(t *testing.T) {
	_, err := (&SessionFactory{}).NewSession(context.Background(), session.Options{})
	assert.Error(t, err)
}

func TestSession_AddRoot(t *testing.T) {
	s := newSession(t, fetch.Map{
		"/src/r.adroit": `import "./a" as a; func main(): Int { a.f() }`,
		"/src/a.adroit": `func f(): Int { 1 }`,
	})
	ctx := context.Background()
	r := mustID(t, "/src/r.adroit")

	report, err := s.AddRoot(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Analyzed)
	assert.Equal(t, node.KindAnalyzed, stageOf(t, s, r))
	for _, diags := range s.Diagnostics(ctx) {
		assert.Empty(t, diags)
	}
}

func TestSession_EditCycle(t *testing.T) {
	disk := fetch.Map{"/src/a.adroit": `func f(): Int { 1 }`}
	s := newSession(t, disk)
	ctx := context.Background()
	r := mustID(t, "/src/r.adroit")
	a := mustID(t, "/src/a.adroit")

	_, err := s.Open(ctx, r, `import "./a" as a; func main(): Int { a.f() }`)
	require.NoError(t, err)
	assert.Equal(t, node.KindAnalyzed, stageOf(t, s, r))

	_, err = s.Change(ctx, r, `import "./a" as a; func main(): Float { a.f() }`)
	require.NoError(t, err)
	assert.Equal(t, []string{diag.HeaderTypecheck}, headers(s.Diagnostics(ctx)[r]))

	// An editor opening the import fixes the mismatch from the other side.
	_, err = s.Open(ctx, a, `func f(): Float { 1.0 }`)
	require.NoError(t, err)
	assert.Empty(t, s.Diagnostics(ctx)[r])

	// Closing it falls back to the text on disk.
	_, err = s.CloseDocument(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{diag.HeaderTypecheck}, headers(s.Diagnostics(ctx)[r]))
}

func TestSession_BrokenImportThenFixed(t *testing.T) {
	disk := fetch.Map{}
	s := newSession(t, disk)
	ctx := context.Background()
	r := mustID(t, "/src/r.adroit")
	a := mustID(t, "/src/a.adroit")

	_, err := s.Open(ctx, r, `import "./a" as a; func main(): Int { a.f() }`)
	require.NoError(t, err)
	diags := s.Diagnostics(ctx)
	assert.Equal(t, []string{diag.HeaderRead}, headers(diags[a]))
	assert.Equal(t, []string{diag.HeaderBlocked}, headers(diags[r]))

	disk["/src/a.adroit"] = `func f(): Int { 2 }`
	_, err = s.Reload(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, node.KindAnalyzed, stageOf(t, s, r))
	assert.Empty(t, s.Diagnostics(ctx)[r])
}

func TestSession_ReloadUnknownIsIgnored(t *testing.T) {
	s := newSession(t, fetch.Map{})
	report, err := s.Reload(context.Background(), mustID(t, "/elsewhere.adroit"))
	require.NoError(t, err)
	assert.Zero(t, report.Fetched)
	assert.Empty(t, s.Graph().Nodes(context.Background()))
}

func TestSession_ReloadKeepsTextWhenFileDisappears(t *testing.T) {
	disk := fetch.Map{
		"/src/r.adroit": `import "./a" as a; func main(): Int { a.f() }`,
		"/src/a.adroit": `func f(): Int { 1 }`,
	}
	s := newSession(t, disk)
	ctx := context.Background()
	_, err := s.AddRoot(ctx, mustID(t, "/src/r.adroit"))
	require.NoError(t, err)

	delete(disk, "/src/a.adroit")
	_, err = s.Reload(ctx, mustID(t, "/src/a.adroit"))
	require.NoError(t, err)
	assert.Equal(t, node.KindAnalyzed, stageOf(t, s, mustID(t, "/src/a.adroit")))
}

func TestSession_ConcurrentChanges(t *testing.T) {
	s := newSession(t, fetch.Map{"/src/a.adroit": `func f(): Int { 1 }`})
	ctx := context.Background()
	r := mustID(t, "/src/r.adroit")
	_, err := s.Open(ctx, r, `import "./a" as a; func main(): Int { a.f() }`)
	require.NoError(t, err)

	texts := []string{
		`import "./a" as a; func main(): Int { a.f() + 1 }`,
		`import "./a" as a; func main(): Int { a.f() * 2 }`,
		`import "./a" as a; func main(): Int { a.f() - 3 }`,
	}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, err := s.Change(ctx, r, text)
			assert.NoError(t, err)
		}(texts[i%len(texts)])
	}
	wg.Wait()

	assert.Equal(t, node.KindAnalyzed, stageOf(t, s, r))
	assert.Empty(t, s.Diagnostics(ctx)[r])
}

func TestSession_Closed(t *testing.T) {
	s := newSession(t, fetch.Map{})
	require.NoError(t, s.Close(context.Background()))
	_, err := s.AddRoot(context.Background(), mustID(t, "/src/r.adroit"))
	assert.ErrorIs(t, err, ErrClosed)
}
