package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/adroit-lang/adroit/internal/ctxlog"
	"github.com/adroit-lang/adroit/internal/inmemorystore"
	"github.com/adroit-lang/adroit/internal/inmemorytopology"
	"github.com/adroit-lang/adroit/internal/lex"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/nodestore"
	"github.com/adroit-lang/adroit/internal/parse"
	"github.com/adroit-lang/adroit/internal/topologystore"
	"github.com/adroit-lang/adroit/internal/typecheck"
)

// Manager is the reference implementation of Graph. It composes a node store
// and a topology store and owns the transition rules between stages.
type Manager struct {
	stdlib   moduleid.ID
	nodes    nodestore.Store
	topology topologystore.Store

	rootsMu sync.Mutex
	roots   []moduleid.ID
}

// Option configures a Manager.
type Option func(*Manager)

// WithNodeStore replaces the default in-memory node store.
func WithNodeStore(s nodestore.Store) Option {
	return func(m *Manager) { m.nodes = s }
}

// WithTopologyStore replaces the default in-memory topology store.
func WithTopologyStore(s topologystore.Store) Option {
	return func(m *Manager) { m.topology = s }
}

// New creates an empty graph whose non-relative imports resolve under stdlib.
func New(stdlib moduleid.ID, opts ...Option) *Manager {
	m := &Manager{stdlib: stdlib}
	for _, opt := range opts {
		opt(m)
	}
	if m.nodes == nil {
		m.nodes = inmemorystore.New()
	}
	if m.topology == nil {
		m.topology = inmemorytopology.New()
	}
	return m
}

var _ Graph = (*Manager)(nil)

// Stdlib implements Graph.
func (m *Manager) Stdlib() moduleid.ID {
	return m.stdlib
}

// MakeRoot implements Graph.
func (m *Manager) MakeRoot(ctx context.Context, id moduleid.ID) {
	if m.nodes.Ensure(ctx, id) {
		ctxlog.FromContext(ctx).Debug("Registered root module.", "module", id)
	}
	m.rootsMu.Lock()
	defer m.rootsMu.Unlock()
	if !slices.Contains(m.roots, id) {
		m.roots = append(m.roots, id)
	}
}

// Roots implements Graph.
func (m *Manager) Roots(ctx context.Context) []moduleid.ID {
	m.rootsMu.Lock()
	defer m.rootsMu.Unlock()
	return slices.Clone(m.roots)
}

// Pending implements Graph.
func (m *Manager) Pending(ctx context.Context) []moduleid.ID {
	var out []moduleid.ID
	for _, n := range m.nodes.All(ctx) {
		if n.Stage.Kind() == node.KindPending {
			out = append(out, n.ID)
		}
	}
	moduleid.Sort(out)
	return out
}

func sameText(st node.Stage, text string) bool {
	cur, ok := node.Text(st)
	return ok && cur == text
}

// SetText implements Graph.
func (m *Manager) SetText(ctx context.Context, id moduleid.ID, text string) error {
	logger := ctxlog.FromContext(ctx).With("module", id)

	cur, ok := m.nodes.Load(ctx, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	if sameText(cur.Stage, text) {
		logger.Debug("Text unchanged, keeping stage.", "stage", cur.Stage.Kind())
		return nil
	}

	stage, imports := m.load(id, text)
	for _, dep := range imports {
		if m.nodes.Ensure(ctx, dep) {
			logger.Debug("Discovered module.", "import", dep)
		}
	}
	m.topology.SetImports(ctx, id, imports)

	var reloaded, unchanged bool
	n, err := m.nodes.Update(ctx, id, func(cur node.Node) (node.Node, bool) {
		if sameText(cur.Stage, text) {
			unchanged = true
			return cur, false
		}
		_, reloaded = node.Text(cur.Stage)
		cur.Stage = stage
		cur.Version++
		return cur, true
	})
	if err != nil {
		return fmt.Errorf("error storing text of %s: %w", id, err)
	}
	if unchanged {
		return nil
	}

	recordTransition(ctx, n.Stage.Kind().String())
	logger.Debug("Module loaded.", "stage", n.Stage.Kind(), "imports", len(imports), "version", n.Version)
	if reloaded {
		m.invalidate(ctx, id)
	}
	return nil
}

// load runs the lexer and parser over text and resolves the imports of the
// result. Failed modules have no imports.
func (m *Manager) load(id moduleid.ID, text string) (node.Stage, []moduleid.ID) {
	toks, err := lex.Lex(text)
	if err != nil {
		var lexErr *lex.Error
		if !errors.As(err, &lexErr) {
			lexErr = &lex.Error{Kind: lex.InvalidToken}
		}
		return node.Read{Text: text, Err: lexErr}, nil
	}
	tree, err := parse.Parse(toks)
	if err != nil {
		var parseErr *parse.Error
		if !errors.As(err, &parseErr) {
			parseErr = &parse.Error{}
		}
		return node.Lexed{Text: text, Tokens: toks, Err: parseErr}, nil
	}

	names := tree.ImportPaths(text, toks)
	imports := make([]moduleid.ID, len(names))
	for i, name := range names {
		imports[i] = moduleid.ResolveImport(m.stdlib, id, name)
	}
	return node.Parsed{Syntax: &node.Syntax{Text: text, Tokens: toks, Tree: tree}}, imports
}

// invalidate resets every transitive importer of id. Analyzed importers go
// back to Parsed with their existing syntax; every importer holding syntax
// gets a new version so jobs already handed out for it are rejected.
func (m *Manager) invalidate(ctx context.Context, id moduleid.ID) {
	seen := map[moduleid.ID]bool{id: true}
	queue := m.topology.ImportersOf(ctx, id)
	reset := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true

		_, err := m.nodes.Update(ctx, cur, func(n node.Node) (node.Node, bool) {
			switch st := n.Stage.(type) {
			case node.Analyzed:
				n.Stage = node.Parsed{Syntax: st.Syntax}
				reset++
			case node.Parsed:
			default:
				return n, false
			}
			n.Version++
			return n, true
		})
		if err != nil {
			continue
		}
		queue = append(queue, m.topology.ImportersOf(ctx, cur)...)
	}

	recordInvalidations(ctx, reset)
	if reset > 0 {
		ctxlog.FromContext(ctx).Debug("Invalidated importers.", "module", id, "reset", reset)
	}
}

// SetFetchError implements Graph. A module that already holds text keeps it.
func (m *Manager) SetFetchError(ctx context.Context, id moduleid.ID, fetchErr error) error {
	changed := false
	_, err := m.nodes.Update(ctx, id, func(n node.Node) (node.Node, bool) {
		switch n.Stage.(type) {
		case node.Pending, node.Unavailable:
			n.Stage = node.Unavailable{Err: fetchErr}
			n.Version++
			changed = true
			return n, true
		}
		return n, false
	})
	if errors.Is(err, nodestore.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	if err != nil {
		return err
	}
	if changed {
		recordTransition(ctx, node.KindUnavailable.String())
		ctxlog.FromContext(ctx).Debug("Module unavailable.", "module", id, "error", fetchErr)
	}
	return nil
}

// Analysis implements Graph.
func (m *Manager) Analysis(ctx context.Context) []*Job {
	var jobs []*Job
	for _, n := range m.Nodes(ctx) {
		parsed, ok := n.Stage.(node.Parsed)
		if !ok {
			continue
		}
		if job, ready := m.job(ctx, n, parsed); ready {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func (m *Manager) job(ctx context.Context, n node.Node, parsed node.Parsed) (*Job, bool) {
	imports, _ := m.topology.ImportsOf(ctx, n.ID)
	deps := make([]Dep, 0, len(imports))
	for _, dep := range imports {
		st, _ := m.Stage(ctx, dep)
		analyzed, ok := st.(node.Analyzed)
		if !ok {
			return nil, false
		}
		deps = append(deps, Dep{ID: dep, Module: analyzed.Module})
	}
	return &Job{ID: n.ID, Syntax: parsed.Syntax, Deps: deps, version: n.Version}, true
}

// SupplySemantic implements Graph.
func (m *Manager) SupplySemantic(ctx context.Context, job *Job, mod *typecheck.Module, errs []typecheck.Error) error {
	stale := false
	_, err := m.nodes.Update(ctx, job.ID, func(n node.Node) (node.Node, bool) {
		parsed, ok := n.Stage.(node.Parsed)
		if !ok || n.Version != job.version || parsed.Syntax != job.Syntax {
			stale = true
			return n, false
		}
		n.Stage = node.Analyzed{Syntax: job.Syntax, Module: mod, Errors: errs}
		return n, true
	})
	if errors.Is(err, nodestore.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownModule, job.ID)
	}
	if err != nil {
		return err
	}
	if stale {
		recordStaleJob(ctx)
		return fmt.Errorf("%w: %s", ErrStaleJob, job.ID)
	}
	recordTransition(ctx, node.KindAnalyzed.String())
	ctxlog.FromContext(ctx).Debug("Module analyzed.", "module", job.ID, "errors", len(errs))
	return nil
}

// Imports implements Graph.
func (m *Manager) Imports(ctx context.Context, id moduleid.ID) ([]moduleid.ID, error) {
	st, ok := m.Stage(ctx, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	switch st.Kind() {
	case node.KindAnalyzed:
		// Analyzed modules only import analyzed modules, so no cycle is
		// reachable from here.
		imports, _ := m.topology.ImportsOf(ctx, id)
		return imports, nil
	case node.KindParsed:
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrNotParsed, id, st.Kind())
	}

	next := func(cur moduleid.ID) ([]moduleid.ID, bool) {
		st, ok := m.Stage(ctx, cur)
		if !ok || st.Kind() != node.KindParsed {
			return nil, false
		}
		return m.topology.ImportsOf(ctx, cur)
	}
	if cycle := findCycle(id, next); cycle != nil {
		return nil, cycle
	}
	imports, _ := m.topology.ImportsOf(ctx, id)
	return imports, nil
}

// Nodes implements Graph.
func (m *Manager) Nodes(ctx context.Context) []node.Node {
	all := m.nodes.All(ctx)
	slices.SortFunc(all, func(a, b node.Node) int { return a.ID.Compare(b.ID) })
	return all
}

// Stage implements Graph.
func (m *Manager) Stage(ctx context.Context, id moduleid.ID) (node.Stage, bool) {
	n, ok := m.nodes.Load(ctx, id)
	if !ok {
		return nil, false
	}
	return n.Stage, true
}
