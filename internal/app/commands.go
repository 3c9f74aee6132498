package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/export"
	"github.com/adroit-lang/adroit/internal/fsutil"
	"github.com/adroit-lang/adroit/internal/graph"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/pprint"
	"github.com/adroit-lang/adroit/internal/scheduler"
	"github.com/adroit-lang/adroit/internal/session"
)

// rootID resolves the module a command runs on, falling back to the
// project root.
func (a *App) rootID(path string) (moduleid.ID, error) {
	if path == "" {
		path = a.config.Root
	}
	if path == "" {
		return moduleid.ID{}, errors.New("no module given and no project root configured")
	}
	return moduleid.ResolveRoot(path)
}

// rootIDs is rootID extended to directories: every module file below a
// directory becomes a root.
func (a *App) rootIDs(path string) ([]moduleid.ID, error) {
	id, err := a.rootID(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(id.Path())
	if err != nil || !info.IsDir() {
		// Missing files are reported as diagnostics by the graph.
		return []moduleid.ID{id}, nil
	}

	files, err := fsutil.FindFilesByExtension(id.Path(), moduleid.Ext)
	if err != nil {
		return nil, fmt.Errorf("error listing modules in %s: %w", id.Path(), err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s", moduleid.Ext, id.Path())
	}
	ids := make([]moduleid.ID, len(files))
	for i, f := range files {
		if ids[i], err = moduleid.ResolveRoot(f); err != nil {
			return nil, err
		}
	}
	a.logger.Debug("Discovered modules.", "dir", id.Path(), "count", len(ids))
	return ids, nil
}

func (a *App) render(diags []diag.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	return diag.NewRenderer(a.errW, a.config.Color).Render(diags)
}

// Format prints the reformatted source of a single module. Imports are not
// read.
func (a *App) Format(ctx context.Context, path string) error {
	ctx = a.Context(ctx)
	id, err := a.rootID(path)
	if err != nil {
		return err
	}
	logger := a.logger.With("uri", id)

	g := graph.New(a.config.Stdlib)
	g.MakeRoot(ctx, id)
	text, err := a.resolver.Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := g.SetText(ctx, id, text); err != nil {
		return err
	}

	st, _ := g.Stage(ctx, id)
	if syn, ok := node.SyntaxOf(st); ok {
		logger.Debug("Module parsed, formatting.")
		return pprint.Fprint(a.outW, syn)
	}
	if err := a.render(diag.FromStage(id, st)); err != nil {
		return err
	}
	return ErrDiagnostics
}

// analyze drains a session rooted at path. The returned session is open;
// the caller closes it.
func (a *App) analyze(ctx context.Context, path string, policy scheduler.Policy) (session.Session, *scheduler.Report, error) {
	ids, err := a.rootIDs(path)
	if err != nil {
		return nil, nil, err
	}
	sess, err := a.newSession(ctx, a.resolver, policy)
	if err != nil {
		return nil, nil, err
	}

	report := &scheduler.Report{}
	for _, id := range ids {
		r, err := sess.AddRoot(ctx, id)
		if r != nil {
			report.Fetched += r.Fetched
			report.Analyzed += r.Analyzed
		}
		if err == nil {
			continue
		}
		if !scheduler.IsStored(err) {
			_ = sess.Close(ctx)
			return nil, nil, err
		}
		// Fail-fast stopped at a stored error; its diagnostics are in the
		// graph already.
		a.logger.Debug("Analysis stopped early.", "error", err)
		break
	}
	return sess, report, nil
}

// Check analyzes the module at path and everything it imports, then prints
// every diagnostic. It returns ErrDiagnostics if there were any.
func (a *App) Check(ctx context.Context, path string) error {
	ctx = a.Context(ctx)
	sess, report, err := a.analyze(ctx, path, a.config.Policy)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	diags := diag.Collect(ctx, sess.Graph())
	a.logger.Info("Analysis finished.", "analyzed", report.Analyzed, "fetched", report.Fetched, "diagnostics", len(diags))
	if err := a.render(diags); err != nil {
		return err
	}
	if len(diags) > 0 {
		return ErrDiagnostics
	}
	return nil
}

// Export analyzes the module at path and writes the graph as a document.
// Under the fail-fast policy an incomplete graph is an error and nothing is
// written; otherwise the document is written with its diagnostics and
// ErrDiagnostics is returned afterwards.
func (a *App) Export(ctx context.Context, path string, format export.Format) error {
	ctx = a.Context(ctx)
	sess, _, err := a.analyze(ctx, path, a.config.Policy)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	var opts []export.Option
	if a.config.Policy == scheduler.FailFast {
		opts = append(opts, export.Strict())
	}
	doc, err := export.Build(ctx, sess.Graph(), opts...)
	if err != nil {
		_ = a.render(diag.Collect(ctx, sess.Graph()))
		return fmt.Errorf("error exporting modules: %w", err)
	}
	if err := export.Write(a.outW, doc, format); err != nil {
		return fmt.Errorf("error serializing modules: %w", err)
	}
	if doc.HasDiagnostics {
		if err := a.render(doc.Diagnostics); err != nil {
			return err
		}
		return ErrDiagnostics
	}
	return nil
}
