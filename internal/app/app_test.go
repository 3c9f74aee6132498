package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adroit-lang/adroit/internal/config"
	"github.com/adroit-lang/adroit/internal/export"
	"github.com/adroit-lang/adroit/internal/scheduler"
	"github.com/adroit-lang/adroit/internal/testutil"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*config.Model)
		wantErr string
	}{
		{name: "defaults", mutate: func(*config.Model) {}},
		{name: "missing stdlib", mutate: func(m *config.Model) { m.Project.Stdlib = "" }, wantErr: "stdlib is a required"},
		{name: "bad mode", mutate: func(m *config.Model) { m.Driver.Mode = "lenient" }, wantErr: "invalid driver mode"},
		{name: "zero workers", mutate: func(m *config.Model) { m.Driver.FetchWorkers = 0 }, wantErr: "invalid worker count"},
		{name: "bad level", mutate: func(m *config.Model) { m.Log.Level = "trace" }, wantErr: "invalid log-level"},
		{name: "bad format", mutate: func(m *config.Model) { m.Log.Format = "xml" }, wantErr: "invalid log-format"},
		{name: "bad traces", mutate: func(m *config.Model) { m.Telemetry.Traces = "otlp" }, wantErr: "invalid traces exporter"},
		{name: "bad metrics", mutate: func(m *config.Model) { m.Telemetry.Metrics = "statsd" }, wantErr: "invalid metrics exporter"},
		{name: "bad port", mutate: func(m *config.Model) { m.Telemetry.Port = 70000 }, wantErr: "invalid healthcheck port"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := config.Default("/cache")
			tc.mutate(m)
			cfg, err := NewConfig(m)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, scheduler.Tolerant, cfg.Policy)
			assert.Equal(t, filepath.Join("/cache", "adroit", "modules"), cfg.Stdlib.Path())
		})
	}
}

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	files["std/.keep"] = ""
	return testutil.WriteFiles(t, files)
}

func TestApp_Check(t *testing.T) {
	dir := project(t, map[string]string{
		"r.adroit":   `import "./a" as a; func main(): Int { a.one() }`,
		"a.adroit":   `func one(): Int { 1 }`,
		"bad.adroit": `func main(): Int { 1.5 }`,
	})
	a, _, errOut := SetupAppTest(t, filepath.Join(dir, "std"), nil)

	require.NoError(t, a.Check(context.Background(), filepath.Join(dir, "r.adroit")))
	assert.NotContains(t, errOut.String(), "error:")

	err := a.Check(context.Background(), filepath.Join(dir, "bad.adroit"))
	require.ErrorIs(t, err, ErrDiagnostics)
	assert.Contains(t, errOut.String(), "error: failed to typecheck")
	assert.Contains(t, errOut.String(), "bad.adroit:1:20")
}

func TestApp_Check_ProjectRoot(t *testing.T) {
	dir := project(t, map[string]string{"main.adroit": `func main(): Int { 1 }`})
	a, _, _ := SetupAppTest(t, filepath.Join(dir, "std"), func(m *config.Model) {
		m.Project.Root = filepath.Join(dir, "main.adroit")
	})
	assert.NoError(t, a.Check(context.Background(), ""))

	b, _, _ := SetupAppTest(t, filepath.Join(dir, "std"), nil)
	assert.ErrorContains(t, b.Check(context.Background(), ""), "no module given")
}

func TestApp_Check_Directory(t *testing.T) {
	dir := project(t, map[string]string{
		"src/a.adroit":     `func one(): Int { 1 }`,
		"src/lib/b.adroit": `func two(): Int { 2.0 }`,
		"src/readme.md":    "not a module",
	})
	a, _, errOut := SetupAppTest(t, filepath.Join(dir, "std"), nil)

	err := a.Check(context.Background(), filepath.Join(dir, "src"))
	require.ErrorIs(t, err, ErrDiagnostics)
	assert.Contains(t, errOut.String(), "b.adroit:1:19")
	assert.NotContains(t, errOut.String(), "a.adroit:")

	empty := t.TempDir()
	assert.ErrorContains(t, a.Check(context.Background(), empty), "no .adroit files")
}

func TestApp_Check_MissingFile(t *testing.T) {
	dir := project(t, map[string]string{})
	a, _, errOut := SetupAppTest(t, filepath.Join(dir, "std"), nil)

	err := a.Check(context.Background(), filepath.Join(dir, "nope.adroit"))
	require.ErrorIs(t, err, ErrDiagnostics)
	assert.Contains(t, errOut.String(), "error: failed to read")
}

func TestApp_Format(t *testing.T) {
	dir := project(t, map[string]string{
		"r.adroit":   "import \"./missing\" as m;\nfunc main():Int{1}",
		"bad.adroit": "func f(",
	})
	a, out, errOut := SetupAppTest(t, filepath.Join(dir, "std"), nil)

	require.NoError(t, a.Format(context.Background(), filepath.Join(dir, "r.adroit")))
	assert.Equal(t, "import \"./missing\" as m;\n\nfunc main(): Int {\n  1\n}\n", out.String())

	err := a.Format(context.Background(), filepath.Join(dir, "bad.adroit"))
	require.ErrorIs(t, err, ErrDiagnostics)
	assert.Contains(t, errOut.String(), "error: failed to parse")
	assert.Contains(t, errOut.String(), "expected identifier")
}

func TestApp_Export(t *testing.T) {
	dir := project(t, map[string]string{
		"r.adroit": `import "./a" as a; func main(): Int { a.one() }`,
		"a.adroit": `func one(): Int { 1 }`,
	})
	a, out, _ := SetupAppTest(t, filepath.Join(dir, "std"), nil)

	require.NoError(t, a.Export(context.Background(), filepath.Join(dir, "r.adroit"), export.JSON))

	var doc struct {
		Root    string                     `json:"root"`
		Modules map[string]json.RawMessage `json:"modules"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.String()), &doc))
	assert.True(t, strings.HasSuffix(doc.Root, "/r.adroit"), doc.Root)
	assert.Len(t, doc.Modules, 2)
}

func TestApp_Export_Diagnostics(t *testing.T) {
	files := map[string]string{
		"r.adroit": `import "./a" as a; func main(): Int { a.f() }`,
		"a.adroit": `import "./r" as r; func f(): Int { 1 }`,
	}

	t.Run("tolerant writes the document", func(t *testing.T) {
		dir := project(t, files)
		a, out, errOut := SetupAppTest(t, filepath.Join(dir, "std"), nil)
		err := a.Export(context.Background(), filepath.Join(dir, "r.adroit"), export.YAML)
		require.ErrorIs(t, err, ErrDiagnostics)
		assert.Contains(t, out.String(), "has_diagnostics: true")
		assert.Contains(t, errOut.String(), "error: import cycle")
	})

	t.Run("fail-fast writes nothing", func(t *testing.T) {
		dir := project(t, files)
		a, out, _ := SetupAppTest(t, filepath.Join(dir, "std"), func(m *config.Model) {
			m.Driver.Mode = "fail-fast"
		})
		err := a.Export(context.Background(), filepath.Join(dir, "r.adroit"), export.JSON)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error exporting modules")
		assert.Empty(t, out.String())
	})
}

func TestApp_Lex(t *testing.T) {
	src := "# bench\nfunc main(): Int { 1 }\n"
	dir := project(t, map[string]string{"r.adroit": src})
	a, out, _ := SetupAppTest(t, filepath.Join(dir, "std"), nil)

	stats, err := a.Lex(context.Background(), filepath.Join(dir, "r.adroit"), 3)
	require.NoError(t, err)
	assert.Equal(t, len(src), stats.Bytes)
	assert.Equal(t, 2, stats.Lines)
	assert.Equal(t, 11, stats.Tokens)
	assert.Contains(t, out.String(), "3 iterations\n")
	assert.Contains(t, out.String(), "3 * 11 = 33 tokens\n")
	assert.Contains(t, out.String(), "tokens per second\n")

	_, err = a.Lex(context.Background(), filepath.Join(dir, "r.adroit"), 0)
	assert.Error(t, err)
}

func TestCountLines(t *testing.T) {
	testCases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"\n\n", 2},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, countLines(tc.in), "%q", tc.in)
	}
}

func TestApp_HealthMux(t *testing.T) {
	a, _, _ := SetupAppTest(t, t.TempDir(), func(m *config.Model) {
		m.Telemetry.Metrics = "prometheus"
	})
	mux := a.healthMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApp_ServeLSP(t *testing.T) {
	a, _, _ := SetupAppTest(t, t.TempDir(), nil)

	var in bytes.Buffer
	for _, msg := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	} {
		fmt.Fprintf(&in, "Content-Length: %d\r\n\r\n%s", len(msg), msg)
	}
	var out bytes.Buffer
	require.NoError(t, a.ServeLSP(context.Background(), &in, &out))
	assert.Contains(t, out.String(), `"capabilities"`)
}

func TestApp_ServeLSP_FailFastConfig(t *testing.T) {
	dir := t.TempDir()
	a, _, _ := SetupAppTest(t, filepath.Join(dir, "std"), func(m *config.Model) {
		m.Driver.Mode = "fail-fast"
	})
	uri := "file://" + filepath.ToSlash(filepath.Join(dir, "r.adroit"))

	var in bytes.Buffer
	for _, msg := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"` + uri + `","languageId":"adroit","version":1,"text":"func main(): Int { 1.5 }"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	} {
		fmt.Fprintf(&in, "Content-Length: %d\r\n\r\n%s", len(msg), msg)
	}
	var out bytes.Buffer
	require.NoError(t, a.ServeLSP(context.Background(), &in, &out))
	assert.Contains(t, out.String(), "textDocument/publishDiagnostics")
	assert.Contains(t, out.String(), "expected Int, found Float")
}

func TestApp_Watch(t *testing.T) {
	dir := project(t, map[string]string{"r.adroit": `func main(): Int { 1 }`})
	a, _, errOut := SetupAppTest(t, filepath.Join(dir, "std"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, filepath.Join(dir, "r.adroit"), 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return strings.Contains(errOut.String(), "Diagnostics updated.")
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
