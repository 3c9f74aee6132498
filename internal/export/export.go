// Package export serializes a drained module graph for external tools.
//
// The document lists every module that has text, keyed by URI, with its
// tokens, tree, resolved imports and semantic module where those stages
// were reached, plus every diagnostic in the graph. A document with
// diagnostics is still complete: modules that analyzed cleanly are emitted
// in full next to the ones that failed.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/graph"
	"github.com/adroit-lang/adroit/internal/lex"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/parse"
	"github.com/adroit-lang/adroit/internal/typecheck"
)

// ErrIncomplete is returned by a strict Build when some module did not
// analyze cleanly.
var ErrIncomplete = errors.New("graph has diagnostics")

// Module is the exported view of one node.
type Module struct {
	Stage   node.Kind         `json:"stage" yaml:"stage"`
	Source  string            `json:"source" yaml:"source"`
	Tokens  lex.Tokens        `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Tree    *parse.Tree       `json:"tree,omitempty" yaml:"tree,omitempty"`
	Imports []moduleid.ID     `json:"imports" yaml:"imports"`
	Module  *typecheck.Module `json:"module,omitempty" yaml:"module,omitempty"`
	Errors  []typecheck.Error `json:"errors" yaml:"errors"`
}

// Document is the whole export.
type Document struct {
	Root           moduleid.ID       `json:"root" yaml:"root"`
	Modules        map[string]Module `json:"modules" yaml:"modules"`
	Diagnostics    []diag.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	HasDiagnostics bool              `json:"has_diagnostics" yaml:"has_diagnostics"`
}

type options struct {
	strict bool
}

// Option configures Build.
type Option func(*options)

// Strict makes Build fail instead of exporting a graph with diagnostics.
// An import cycle is reported as *graph.CycleError.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

// Build snapshots g into a Document rooted at the first registered root.
func Build(ctx context.Context, g graph.Graph, opts ...Option) (*Document, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	doc := &Document{
		Modules:     map[string]Module{},
		Diagnostics: diag.Collect(ctx, g),
	}
	if roots := g.Roots(ctx); len(roots) > 0 {
		doc.Root = roots[0]
	}
	doc.HasDiagnostics = len(doc.Diagnostics) > 0

	for _, n := range g.Nodes(ctx) {
		m, ok, err := module(ctx, g, n)
		if err != nil && o.strict {
			return nil, err
		}
		if ok {
			doc.Modules[n.ID.String()] = m
		}
	}

	if o.strict && doc.HasDiagnostics {
		return nil, fmt.Errorf("%w: %s", ErrIncomplete, doc.Diagnostics[0])
	}
	return doc, nil
}

func module(ctx context.Context, g graph.Graph, n node.Node) (Module, bool, error) {
	text, ok := node.Text(n.Stage)
	if !ok {
		return Module{}, false, nil
	}
	m := Module{Stage: n.Stage.Kind(), Source: text, Imports: []moduleid.ID{}, Errors: []typecheck.Error{}}

	var err error
	switch st := n.Stage.(type) {
	case node.Lexed:
		m.Tokens = st.Tokens
	case node.Parsed:
		m.Tokens, m.Tree = st.Syntax.Tokens, st.Syntax.Tree
		m.Imports, err = imports(ctx, g, n.ID, st.Syntax)
	case node.Analyzed:
		m.Tokens, m.Tree = st.Syntax.Tokens, st.Syntax.Tree
		m.Module = st.Module
		if len(st.Errors) > 0 {
			m.Errors = st.Errors
		}
		m.Imports, err = imports(ctx, g, n.ID, st.Syntax)
	}
	return m, true, err
}

// imports asks the graph for the import edges and falls back to resolving
// them from syntax when the module sits on a cycle.
func imports(ctx context.Context, g graph.Graph, id moduleid.ID, syn *node.Syntax) ([]moduleid.ID, error) {
	ids, err := g.Imports(ctx, id)
	if err == nil {
		return ids, nil
	}
	names := syn.Tree.ImportPaths(syn.Text, syn.Tokens)
	ids = make([]moduleid.ID, len(names))
	for i, name := range names {
		ids[i] = moduleid.ResolveImport(g.Stdlib(), id, name)
	}
	return ids, err
}

// Format selects the encoding of Write.
type Format uint8

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return JSON, fmt.Errorf("unknown export format %q (want json or yaml)", s)
}

// Write encodes doc to w.
func Write(w io.Writer, doc *Document, f Format) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
}
