package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adroit-lang/adroit/internal/fetch"
	"github.com/adroit-lang/adroit/internal/localsession"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/scheduler"
	"github.com/adroit-lang/adroit/internal/session"
)

// script frames each message as a client would send it.
func script(t *testing.T, msgs ...any) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range msgs {
		data, err := json.Marshal(m)
		require.NoError(t, err)
		fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n%s", len(data), data)
	}
	return &buf
}

func request(id int, method string, params any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params}
}

func notification(method string, params any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "method": method, "params": params}
}

type reply struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *ResponseError  `json:"error"`
	Params json.RawMessage `json:"params"`
}

func readAll(t *testing.T, out *bytes.Buffer) []reply {
	t.Helper()
	conn := NewConn(out, io.Discard)
	var replies []reply
	for {
		body, err := conn.Read()
		if errors.Is(err, io.EOF) {
			return replies
		}
		require.NoError(t, err)
		var r reply
		require.NoError(t, json.Unmarshal(body, &r))
		replies = append(replies, r)
	}
}

func serve(t *testing.T, disk fetch.Map, in io.Reader) ([]reply, error) {
	t.Helper()
	return serveWithPolicy(t, scheduler.Tolerant, disk, in)
}

func serveWithPolicy(t *testing.T, policy scheduler.Policy, disk fetch.Map, in io.Reader) ([]reply, error) {
	t.Helper()
	std, err := moduleid.ResolveRoot("/std")
	require.NoError(t, err)
	sess, err := (&localsession.SessionFactory{}).NewSession(context.Background(), session.Options{
		Stdlib:   std,
		Resolver: disk,
		Policy:   policy,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	err = NewServer(sess, in, &out, "test").Serve(context.Background())
	return readAll(t, &out), err
}

func published(t *testing.T, r reply) PublishDiagnosticsParams {
	t.Helper()
	require.Equal(t, "textDocument/publishDiagnostics", r.Method)
	var p PublishDiagnosticsParams
	require.NoError(t, json.Unmarshal(r.Params, &p))
	return p
}

func TestServer_Lifecycle(t *testing.T) {
	replies, err := serve(t, fetch.Map{}, script(t,
		request(1, "initialize", map[string]any{}),
		notification("initialized", map[string]any{}),
		request(2, "textDocument/hover", map[string]any{}),
		notification("$/cancelRequest", map[string]any{"id": 2}),
		request(3, "shutdown", nil),
		request(4, "initialize", map[string]any{}),
		notification("exit", nil),
	))
	require.NoError(t, err)
	require.Len(t, replies, 4)

	var init InitializeResult
	require.NoError(t, json.Unmarshal(replies[0].Result, &init))
	assert.Equal(t, TextDocumentSyncFull, init.Capabilities.TextDocumentSync)
	assert.True(t, init.Capabilities.DocumentFormattingProvider)
	assert.Equal(t, "adroit", init.ServerInfo.Name)

	require.NotNil(t, replies[1].Error)
	assert.Equal(t, CodeMethodNotFound, replies[1].Error.Code)
	assert.JSONEq(t, "2", string(replies[1].ID))

	assert.Nil(t, replies[2].Error)
	assert.Equal(t, "null", string(replies[2].Result))

	require.NotNil(t, replies[3].Error)
	assert.Equal(t, CodeInvalidRequest, replies[3].Error.Code)
}

func TestServer_ExitWithoutShutdown(t *testing.T) {
	_, err := serve(t, fetch.Map{}, script(t,
		request(1, "initialize", map[string]any{}),
		notification("exit", nil),
	))
	assert.ErrorIs(t, err, ErrExitWithoutShutdown)
}

func TestServer_NotInitialized(t *testing.T) {
	replies, err := serve(t, fetch.Map{}, script(t, request(1, "shutdown", nil)))
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.NotNil(t, replies[0].Error)
	assert.Equal(t, CodeServerNotInitialized, replies[0].Error.Code)
}

func TestServer_Diagnostics(t *testing.T) {
	disk := fetch.Map{"/src/a.adroit": `func f(): Int { 1 }`}
	uri := "file:///src/r.adroit"
	open := map[string]any{"textDocument": map[string]any{
		"uri": uri, "languageId": "adroit", "version": 1,
		"text": "import \"./a\" as a;\nfunc main(): Float { a.f() }",
	}}
	fix := map[string]any{
		"textDocument":   map[string]any{"uri": uri, "version": 2},
		"contentChanges": []map[string]any{{"text": "import \"./a\" as a;\nfunc main(): Int { a.f() }"}},
	}

	replies, err := serve(t, disk, script(t,
		request(1, "initialize", map[string]any{}),
		notification("textDocument/didOpen", open),
		notification("textDocument/didChange", fix),
		notification("textDocument/didChange", fix),
		request(2, "shutdown", nil),
		notification("exit", nil),
	))
	require.NoError(t, err)
	require.Len(t, replies, 4, "the second identical change publishes nothing")

	first := published(t, replies[1])
	assert.Equal(t, uri, first.URI)
	require.Len(t, first.Diagnostics, 1)
	d := first.Diagnostics[0]
	assert.Equal(t, "failed to typecheck", d.Code)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, 1, d.Range.Start.Line)

	cleared := published(t, replies[2])
	assert.Equal(t, uri, cleared.URI)
	assert.Empty(t, cleared.Diagnostics)
}

func TestServer_DiagnosticsUnderEveryPolicy(t *testing.T) {
	uri := "file:///src/r.adroit"
	open := map[string]any{"textDocument": map[string]any{
		"uri": uri, "languageId": "adroit", "version": 1,
		"text": "func main(): Int { 1.5 }",
	}}

	for _, policy := range []scheduler.Policy{scheduler.Tolerant, scheduler.FailFast} {
		t.Run(policy.String(), func(t *testing.T) {
			replies, err := serveWithPolicy(t, policy, fetch.Map{}, script(t,
				request(1, "initialize", map[string]any{}),
				notification("textDocument/didOpen", open),
				request(2, "shutdown", nil),
				notification("exit", nil),
			))
			require.NoError(t, err)
			require.Len(t, replies, 3)

			p := published(t, replies[1])
			assert.Equal(t, uri, p.URI)
			require.Len(t, p.Diagnostics, 1)
			assert.Equal(t, "failed to typecheck", p.Diagnostics[0].Code)
			assert.Equal(t, "expected Int, found Float", p.Diagnostics[0].Message)
		})
	}
}

func TestServer_Formatting(t *testing.T) {
	uri := "file:///src/r.adroit"
	replies, err := serve(t, fetch.Map{}, script(t,
		request(1, "initialize", map[string]any{}),
		notification("textDocument/didOpen", map[string]any{"textDocument": map[string]any{
			"uri": uri, "languageId": "adroit", "version": 1, "text": "func main():Int{1}",
		}}),
		request(2, "textDocument/formatting", map[string]any{"textDocument": map[string]any{"uri": uri}}),
		request(3, "shutdown", nil),
		notification("exit", nil),
	))
	require.NoError(t, err)
	require.Len(t, replies, 3)

	var edits []TextEdit
	require.NoError(t, json.Unmarshal(replies[1].Result, &edits))
	require.Len(t, edits, 1)
	assert.Equal(t, "func main(): Int {\n  1\n}\n", edits[0].NewText)
	assert.Equal(t, Position{Line: 0, Character: 18}, edits[0].Range.End)
}

func TestConn_Read(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "with content type", in: "Content-Length: 2\r\nContent-Type: application/vscode-jsonrpc\r\n\r\n{}", want: "{}"},
		{name: "eof", in: "", wantErr: io.EOF},
		{name: "missing length", in: "Content-Type: x\r\n\r\n", wantErr: errMalformed},
		{name: "bad length", in: "Content-Length: -4\r\n\r\n", wantErr: errMalformed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := NewConn(strings.NewReader(tc.in), io.Discard).Read()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(body))
		})
	}
}
