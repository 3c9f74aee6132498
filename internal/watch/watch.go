// Package watch keeps a session current while source files change on disk.
//
// The watcher subscribes to the directory of every module the session knows
// about. Write, create, remove and rename events for module files are
// collected until the debounce window passes without new events; then each
// changed module is reloaded, the session re-drains, and the handler receives
// the new diagnostics. Directories of modules discovered by a reload are
// added as they appear.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/adroit-lang/adroit/internal/ctxlog"
	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/scheduler"
	"github.com/adroit-lang/adroit/internal/session"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// Handler receives the modules that changed and the diagnostics of every
// module after the session re-drained. Returning an error stops Run.
type Handler func(ctx context.Context, changed []moduleid.ID, diags map[moduleid.ID][]diag.Diagnostic) error

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
}

// Watcher reloads modules of a session when their files change.
type Watcher struct {
	sess     session.Session
	handler  Handler
	debounce time.Duration

	fsw     *fsnotify.Watcher
	watched map[string]bool
}

// New creates a watcher. Nothing is watched until Run.
func New(sess session.Session, handler Handler, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		sess:     sess,
		handler:  handler,
		debounce: opts.Debounce,
		fsw:      fsw,
		watched:  map[string]bool{},
	}, nil
}

// Run watches until ctx is done or the handler fails. It closes the
// underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	logger := ctxlog.FromContext(ctx)

	w.sync(ctx)
	logger.Info("Watching for changes.", "directories", len(w.watched))

	pending := map[moduleid.ID]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != moduleid.Ext {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			id, err := moduleid.ResolveRoot(event.Name)
			if err != nil {
				continue
			}
			logger.Debug("File changed.", "path", event.Name, "op", event.Op.String())
			pending[id] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)

		case <-timer.C:
			changed := make([]moduleid.ID, 0, len(pending))
			for id := range pending {
				changed = append(changed, id)
			}
			clear(pending)
			moduleid.Sort(changed)

			if err := w.reload(ctx, changed); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) reload(ctx context.Context, changed []moduleid.ID) error {
	logger := ctxlog.FromContext(ctx)
	for _, id := range changed {
		_, err := w.sess.Reload(ctx, id)
		if err == nil {
			continue
		}
		if !scheduler.IsStored(err) {
			return fmt.Errorf("failed to reload %s: %w", id.Path(), err)
		}
		logger.Debug("Analysis stopped at a stored error.", "path", id.Path(), "error", err)
	}
	w.sync(ctx)
	logger.Info("Modules reloaded.", "count", len(changed))
	return w.handler(ctx, changed, w.sess.Diagnostics(ctx))
}

// sync adds the directory of every known module to the watch list.
// Directories that do not exist yet are retried on the next sync.
func (w *Watcher) sync(ctx context.Context) {
	for _, n := range w.sess.Graph().Nodes(ctx) {
		dir := filepath.Dir(n.ID.Path())
		if w.watched[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			ctxlog.FromContext(ctx).Debug("Cannot watch directory.", "dir", dir, "error", err)
			continue
		}
		w.watched[dir] = true
	}
}
