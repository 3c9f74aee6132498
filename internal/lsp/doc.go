// Package lsp serves an editor session over the language server protocol.
//
// # Transport
//
// Messages are JSON-RPC 2.0 framed with a Content-Length header, read from
// one stream and written to another (stdin and stdout for `adroit lsp`).
// Messages are handled one at a time in arrival order, so every request sees
// the effects of the edits sent before it.
//
// # Supported Methods
//
//   - initialize, initialized, shutdown, exit
//   - textDocument/didOpen, textDocument/didChange (full sync),
//     textDocument/didClose
//   - textDocument/formatting
//
// After every edit the server drains the session and publishes diagnostics
// for each module whose diagnostics are non-empty, plus an empty list for
// each module that had diagnostics before, so stale squiggles disappear.
// Unknown requests get a MethodNotFound error; unknown notifications are
// ignored.
package lsp
