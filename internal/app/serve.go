package app

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/lsp"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/publish"
	"github.com/adroit-lang/adroit/internal/scheduler"
	"github.com/adroit-lang/adroit/internal/watch"
)

// ServeLSP runs a language server over r and w until the client exits. The
// editor sees every diagnostic, so its session always drains tolerantly.
func (a *App) ServeLSP(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx = a.Context(ctx)
	sess, err := a.newSession(ctx, a.resolver, scheduler.Tolerant)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)
	return lsp.NewServer(sess, r, w, Version).Serve(ctx)
}

// publisher dials the configured socket.io server, or returns a no-op
// publisher when none is configured.
func (a *App) publisher(ctx context.Context) (publish.Publisher, error) {
	if a.config.PublishURL == "" {
		return publish.Func(func(context.Context, publish.Snapshot) error { return nil }), nil
	}
	p, err := publish.DialSocketIO(ctx, publish.SocketIOOptions{
		URL:       a.config.PublishURL,
		Namespace: a.config.PublishNamespace,
		Event:     a.config.PublishEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect diagnostics publisher: %w", err)
	}
	a.logger.Info("Publishing diagnostics.", "url", a.config.PublishURL, "event", a.config.PublishEvent)
	return p, nil
}

// Watch analyzes the module at path, then re-analyzes whenever one of the
// loaded files changes, printing and publishing the diagnostics after every
// pass. It returns when ctx is done. Like the language server it drains
// tolerantly whatever the configured driver mode.
func (a *App) Watch(ctx context.Context, path string, debounce time.Duration) error {
	ctx = a.Context(ctx)
	sess, _, err := a.analyze(ctx, path, scheduler.Tolerant)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	pub, err := a.publisher(ctx)
	if err != nil {
		return err
	}
	defer pub.Close()

	root := sess.Graph().Roots(ctx)[0]
	revision := 0
	emit := func(ctx context.Context, changed []moduleid.ID, diags map[moduleid.ID][]diag.Diagnostic) error {
		revision++
		flat := flatten(diags)
		a.logger.Info("Diagnostics updated.", "revision", revision, "changed", len(changed), "diagnostics", len(flat))
		if err := a.render(flat); err != nil {
			return err
		}
		if err := pub.Publish(ctx, publish.NewSnapshot(root, revision, changed, diags)); err != nil {
			a.logger.Warn("Failed to publish diagnostics.", "error", err)
		}
		return nil
	}

	if err := emit(ctx, []moduleid.ID{root}, sess.Diagnostics(ctx)); err != nil {
		return err
	}
	w, err := watch.New(sess, emit, watch.Options{Debounce: debounce})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// flatten orders diagnostics by module.
func flatten(diags map[moduleid.ID][]diag.Diagnostic) []diag.Diagnostic {
	ids := slices.Collect(maps.Keys(diags))
	moduleid.Sort(ids)
	var flat []diag.Diagnostic
	for _, id := range ids {
		flat = append(flat, diags[id]...)
	}
	return flat
}
