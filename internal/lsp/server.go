package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/adroit-lang/adroit/internal/ctxlog"
	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/pprint"
	"github.com/adroit-lang/adroit/internal/scheduler"
	"github.com/adroit-lang/adroit/internal/session"
)

// ErrExitWithoutShutdown is returned by Serve when the client sends exit
// before shutdown.
var ErrExitWithoutShutdown = errors.New("exit received before shutdown")

const sourceName = "adroit"

// Server handles one client connection.
type Server struct {
	conn    *Conn
	sess    session.Session
	version string

	initialized bool
	shutdown    bool
	// published holds the modules whose last published list was non-empty.
	published map[moduleid.ID]bool
}

// NewServer creates a server for sess over r and w.
func NewServer(sess session.Session, r io.Reader, w io.Writer, version string) *Server {
	return &Server{
		conn:      NewConn(r, w),
		sess:      sess,
		version:   version,
		published: map[moduleid.ID]bool{},
	}
}

// Serve handles messages until exit, the end of input, or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Language server started.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := s.conn.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("Client closed the connection.")
				return nil
			}
			if errors.Is(err, errMalformed) {
				logger.Warn("Dropping malformed message.", "error", err)
				continue
			}
			return err
		}

		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			if err := s.conn.ReplyError(nil, CodeParseError, err.Error()); err != nil {
				return err
			}
			continue
		}
		if msg.Method == "exit" {
			if !s.shutdown {
				return ErrExitWithoutShutdown
			}
			logger.Info("Language server exiting.")
			return nil
		}
		if err := s.handle(ctx, &msg); err != nil {
			return err
		}
	}
}

// handle dispatches one message. Only transport failures are returned.
func (s *Server) handle(ctx context.Context, msg *Message) error {
	logger := ctxlog.FromContext(ctx).With("method", msg.Method)
	logger.Debug("Message received.")

	if s.shutdown && !msg.IsNotification() {
		return s.conn.ReplyError(msg.ID, CodeInvalidRequest, "server is shutting down")
	}
	if !s.initialized && msg.Method != "initialize" {
		if msg.IsNotification() {
			return nil
		}
		return s.conn.ReplyError(msg.ID, CodeServerNotInitialized, "server not initialized")
	}

	switch msg.Method {
	case "initialize":
		s.initialized = true
		return s.conn.Reply(msg.ID, InitializeResult{
			Capabilities: ServerCapabilities{
				TextDocumentSync:           TextDocumentSyncFull,
				DocumentFormattingProvider: true,
			},
			ServerInfo: ServerInfo{Name: sourceName, Version: s.version},
		})
	case "initialized":
		return nil
	case "shutdown":
		s.shutdown = true
		return s.conn.Reply(msg.ID, nil)

	case "textDocument/didOpen":
		var p DidOpenTextDocumentParams
		return s.edit(ctx, msg, &p, func() error {
			id, err := moduleid.Parse(p.TextDocument.URI)
			if err != nil {
				return err
			}
			_, err = s.sess.Open(ctx, id, p.TextDocument.Text)
			return err
		})
	case "textDocument/didChange":
		var p DidChangeTextDocumentParams
		return s.edit(ctx, msg, &p, func() error {
			if len(p.ContentChanges) == 0 {
				return nil
			}
			id, err := moduleid.Parse(p.TextDocument.URI)
			if err != nil {
				return err
			}
			_, err = s.sess.Change(ctx, id, p.ContentChanges[len(p.ContentChanges)-1].Text)
			return err
		})
	case "textDocument/didClose":
		var p DidCloseTextDocumentParams
		return s.edit(ctx, msg, &p, func() error {
			id, err := moduleid.Parse(p.TextDocument.URI)
			if err != nil {
				return err
			}
			_, err = s.sess.CloseDocument(ctx, id)
			return err
		})

	case "textDocument/formatting":
		var p DocumentFormattingParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return s.conn.ReplyError(msg.ID, CodeInvalidParams, err.Error())
		}
		id, err := moduleid.Parse(p.TextDocument.URI)
		if err != nil {
			return s.conn.ReplyError(msg.ID, CodeInvalidParams, err.Error())
		}
		edits, err := s.format(ctx, id)
		if err != nil {
			return s.conn.ReplyError(msg.ID, CodeInternalError, err.Error())
		}
		return s.conn.Reply(msg.ID, edits)
	}

	if msg.IsNotification() {
		logger.Debug("Ignoring notification.")
		return nil
	}
	return s.conn.ReplyError(msg.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
}

// edit decodes params into p, applies the change and publishes diagnostics.
// Errors from the change are logged, since notifications cannot be answered,
// and whatever the graph holds afterwards is still published.
func (s *Server) edit(ctx context.Context, msg *Message, p any, apply func() error) error {
	logger := ctxlog.FromContext(ctx)
	if err := json.Unmarshal(msg.Params, p); err != nil {
		logger.Warn("Invalid notification params.", "method", msg.Method, "error", err)
		return nil
	}
	if err := apply(); err != nil {
		if scheduler.IsStored(err) {
			logger.Debug("Analysis stopped at a stored error.", "method", msg.Method, "error", err)
		} else {
			logger.Error("Failed to apply document change.", "method", msg.Method, "error", err)
		}
	}
	return s.publish(ctx)
}

func (s *Server) publish(ctx context.Context) error {
	all := s.sess.Diagnostics(ctx)
	ids := make([]moduleid.ID, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	moduleid.Sort(ids)

	for _, id := range ids {
		diags := all[id]
		if len(diags) == 0 && !s.published[id] {
			continue
		}
		params := PublishDiagnosticsParams{URI: id.String(), Diagnostics: convert(diags)}
		if err := s.conn.Notify("textDocument/publishDiagnostics", params); err != nil {
			return err
		}
		s.published[id] = len(diags) > 0
	}
	return nil
}

func convert(diags []diag.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		var rng Range
		if d.Span != nil {
			li := diag.NewLineIndex(d.Source())
			start := li.UTF16Position(int(d.Span.Start))
			end := li.UTF16Position(int(d.Span.End))
			rng = Range{
				Start: Position{Line: start.Line, Character: start.Column},
				End:   Position{Line: end.Line, Character: end.Column},
			}
		}
		out = append(out, Diagnostic{
			Range:    rng,
			Severity: SeverityError,
			Code:     d.Header,
			Source:   sourceName,
			Message:  d.Message,
		})
	}
	return out
}

// format returns a single edit replacing the whole document, or nil when the
// document does not parse or is already formatted.
func (s *Server) format(ctx context.Context, id moduleid.ID) ([]TextEdit, error) {
	st, ok := s.sess.Graph().Stage(ctx, id)
	if !ok {
		return nil, fmt.Errorf("document not open: %s", id)
	}
	syn, ok := node.SyntaxOf(st)
	if !ok {
		return nil, nil
	}
	formatted := pprint.Format(syn)
	if formatted == syn.Text {
		return []TextEdit{}, nil
	}
	end := diag.NewLineIndex(syn.Text).UTF16Position(len(syn.Text))
	return []TextEdit{{
		Range:   Range{End: Position{Line: end.Line, Character: end.Column}},
		NewText: formatted,
	}}, nil
}
