// Package localsession provides an in-process implementation of
// session.Session and session.SessionFactory.
package localsession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/adroit-lang/adroit/internal/ctxlog"
	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/fetch"
	"github.com/adroit-lang/adroit/internal/graph"
	"github.com/adroit-lang/adroit/internal/inmemorystore"
	"github.com/adroit-lang/adroit/internal/inmemorytopology"
	"github.com/adroit-lang/adroit/internal/localexecutor"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/scheduler"
	"github.com/adroit-lang/adroit/internal/session"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("session closed")

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct{}

var _ session.SessionFactory = (*SessionFactory)(nil)

// NewSession wires an in-memory graph, an overlay resolver and a scheduler.
func (f *SessionFactory) NewSession(ctx context.Context, opts session.Options) (session.Session, error) {
	logger := ctxlog.FromContext(ctx)
	if opts.Stdlib.IsZero() {
		return nil, fmt.Errorf("session needs a standard library root")
	}
	base := opts.Resolver
	if base == nil {
		base = fetch.FS{}
	}

	g := graph.New(opts.Stdlib,
		graph.WithNodeStore(inmemorystore.New()),
		graph.WithTopologyStore(inmemorytopology.New()),
	)
	overlay := fetch.NewOverlay(base)
	sched := scheduler.New(g, overlay,
		localexecutor.New(opts.FetchWorkers),
		localexecutor.New(opts.CheckWorkers),
		scheduler.WithPolicy(opts.Policy),
	)
	logger.Debug("Session created.", "stdlib", opts.Stdlib, "policy", opts.Policy)

	return &Session{graph: g, overlay: overlay, sched: sched}, nil
}

// Session implements session.Session.
type Session struct {
	mu      sync.Mutex
	closed  bool
	graph   *graph.Manager
	overlay *fetch.Overlay
	sched   scheduler.Scheduler
}

var _ session.Session = (*Session)(nil)

// Graph implements session.Session.
func (s *Session) Graph() graph.Graph { return s.graph }

// do runs mutate and drains, holding the session lock.
func (s *Session) do(ctx context.Context, mutate func() error) (*scheduler.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := mutate(); err != nil {
		return nil, err
	}
	return s.sched.Drain(ctx)
}

// AddRoot implements session.Session.
func (s *Session) AddRoot(ctx context.Context, id moduleid.ID) (*scheduler.Report, error) {
	return s.do(ctx, func() error {
		s.graph.MakeRoot(ctx, id)
		return nil
	})
}

// Open implements session.Session.
func (s *Session) Open(ctx context.Context, id moduleid.ID, text string) (*scheduler.Report, error) {
	return s.do(ctx, func() error {
		ctxlog.FromContext(ctx).Debug("Document opened.", "uri", id)
		s.overlay.Set(id, text)
		s.graph.MakeRoot(ctx, id)
		return s.graph.SetText(ctx, id, text)
	})
}

// Change implements session.Session. Changing a document that was never
// opened opens it.
func (s *Session) Change(ctx context.Context, id moduleid.ID, text string) (*scheduler.Report, error) {
	return s.do(ctx, func() error {
		s.overlay.Set(id, text)
		if _, ok := s.graph.Stage(ctx, id); !ok {
			s.graph.MakeRoot(ctx, id)
		}
		return s.graph.SetText(ctx, id, text)
	})
}

// CloseDocument implements session.Session. If the resolver cannot read the
// module, the last editor text stays in the graph.
func (s *Session) CloseDocument(ctx context.Context, id moduleid.ID) (*scheduler.Report, error) {
	return s.do(ctx, func() error {
		s.overlay.Delete(id)
		text, err := s.overlay.Fetch(ctx, id)
		if err != nil {
			ctxlog.FromContext(ctx).Debug("Closed document has no file behind it.", "uri", id, "error", err)
			return nil
		}
		return s.graph.SetText(ctx, id, text)
	})
}

// Reload implements session.Session.
func (s *Session) Reload(ctx context.Context, id moduleid.ID) (*scheduler.Report, error) {
	return s.do(ctx, func() error {
		st, ok := s.graph.Stage(ctx, id)
		if !ok {
			return nil
		}
		text, err := s.overlay.Fetch(ctx, id)
		if err != nil {
			if st.Kind() == node.KindPending || st.Kind() == node.KindUnavailable {
				return s.graph.SetFetchError(ctx, id, err)
			}
			// A loaded module keeps its last text when the file goes away.
			return nil
		}
		return s.graph.SetText(ctx, id, text)
	})
}

// Diagnostics implements session.Session.
func (s *Session) Diagnostics(ctx context.Context) map[moduleid.ID][]diag.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[moduleid.ID][]diag.Diagnostic{}
	for _, n := range s.graph.Nodes(ctx) {
		out[n.ID] = []diag.Diagnostic{}
	}
	for _, d := range diag.Collect(ctx, s.graph) {
		out[d.ID] = append(out[d.ID], d)
	}
	return out
}

// Close implements session.Session.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	ctxlog.FromContext(ctx).Debug("Session closed.")
	return nil
}
