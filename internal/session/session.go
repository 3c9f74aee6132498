// Package session defines the interfaces for a long-lived analysis session:
// a module graph owned by an editor or a file watcher that is kept current
// by resupplying text as it changes and re-draining after every change.
package session

import (
	"context"

	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/fetch"
	"github.com/adroit-lang/adroit/internal/graph"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/scheduler"
)

// Options configures a new session.
type Options struct {
	// Stdlib is the root non-relative imports resolve under.
	Stdlib moduleid.ID
	// Resolver reads module text that no editor holds open. Defaults to
	// fetch.FS.
	Resolver     fetch.Resolver
	FetchWorkers int
	CheckWorkers int
	Policy       scheduler.Policy
}

// SessionFactory creates sessions. Implementations may differ in where the
// graph is stored and how rounds are executed.
type SessionFactory interface {
	NewSession(ctx context.Context, opts Options) (Session, error)
}

// Session is a module graph kept at its fixpoint. Every mutating method
// drains the graph before returning; calls are serialized.
type Session interface {
	// AddRoot registers a module to analyze, reading its text through the
	// resolver.
	AddRoot(ctx context.Context, id moduleid.ID) (*scheduler.Report, error)

	// Open makes text the authoritative content of id until CloseDocument,
	// and registers id as a root.
	Open(ctx context.Context, id moduleid.ID, text string) (*scheduler.Report, error)

	// Change replaces the text of an open document.
	Change(ctx context.Context, id moduleid.ID, text string) (*scheduler.Report, error)

	// CloseDocument drops the editor's copy of id and falls back to the
	// resolver's text.
	CloseDocument(ctx context.Context, id moduleid.ID) (*scheduler.Report, error)

	// Reload re-reads id through the resolver, e.g. after it changed on
	// disk. Modules the graph does not know are ignored.
	Reload(ctx context.Context, id moduleid.ID) (*scheduler.Report, error)

	// Diagnostics returns the current diagnostics of every known module,
	// with an empty slice for modules that have none.
	Diagnostics(ctx context.Context) map[moduleid.ID][]diag.Diagnostic

	// Graph exposes the underlying graph for read-only consumers.
	Graph() graph.Graph

	// Close releases any resources held by the session.
	Close(ctx context.Context) error
}
