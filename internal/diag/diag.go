// Package diag turns the errors stored in a module graph into uniform
// diagnostics and renders them for terminals and editors.
package diag

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/adroit-lang/adroit/internal/fetch"
	"github.com/adroit-lang/adroit/internal/graph"
	"github.com/adroit-lang/adroit/internal/lex"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
)

// Headers name the stage a diagnostic comes from.
const (
	HeaderRead      = "failed to read"
	HeaderTokenize  = "failed to tokenize"
	HeaderParse     = "failed to parse"
	HeaderTypecheck = "failed to typecheck"
	HeaderCycle     = "import cycle"
	HeaderBlocked   = "blocked import"
)

// Diagnostic is one error attached to a module. Span is nil when the error
// has no location in the source, e.g. a file that could not be read.
type Diagnostic struct {
	ID      moduleid.ID `json:"uri" yaml:"uri"`
	Header  string      `json:"header" yaml:"header"`
	Message string      `json:"message" yaml:"message"`
	Span    *lex.Span   `json:"span,omitempty" yaml:"span,omitempty"`

	source string
}

// Source returns the module text the span refers to.
func (d Diagnostic) Source() string { return d.source }

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.ID.Path(), d.Header, d.Message)
}

func spanned(id moduleid.ID, header, message, src string, span lex.Span) Diagnostic {
	if span.Start > uint32(len(src)) {
		return Diagnostic{ID: id, Header: header, Message: message, source: src}
	}
	return Diagnostic{ID: id, Header: header, Message: message, Span: &span, source: src}
}

// FromStage returns the diagnostics stored in one stage.
func FromStage(id moduleid.ID, st node.Stage) []Diagnostic {
	switch st := st.(type) {
	case node.Unavailable:
		msg := "unknown error"
		if st.Err != nil {
			msg = st.Err.Error()
			var fe *fetch.Error
			if errors.As(st.Err, &fe) && fe.Err != nil {
				msg = fe.Err.Error()
			}
		}
		return []Diagnostic{{ID: id, Header: HeaderRead, Message: msg}}
	case node.Read:
		return []Diagnostic{spanned(id, HeaderTokenize, st.Err.Message(), st.Text, st.Err.Span())}
	case node.Lexed:
		span := st.Tokens[st.Err.Token].Span()
		return []Diagnostic{spanned(id, HeaderParse, st.Err.Message(), st.Text, span)}
	case node.Analyzed:
		out := make([]Diagnostic, 0, len(st.Errors))
		for _, e := range st.Errors {
			out = append(out, spanned(id, HeaderTypecheck, e.Message, st.Syntax.Text, e.Span))
		}
		return out
	}
	return nil
}

// Collect returns every diagnostic stored in g, grouped by module in
// identity order. Modules left Parsed are reported as being on an import
// cycle or blocked by a broken import, pointing at the offending import.
func Collect(ctx context.Context, g graph.Graph) []Diagnostic {
	var out []Diagnostic
	for _, n := range g.Nodes(ctx) {
		out = append(out, FromStage(n.ID, n.Stage)...)
	}

	stuck := g.Stuck(ctx)
	if len(stuck) == 0 {
		return out
	}
	for _, s := range stuck {
		st, ok := g.Stage(ctx, s.ID)
		if !ok {
			continue
		}
		syn, ok := node.SyntaxOf(st)
		if !ok {
			continue
		}
		switch s.Reason {
		case graph.OnCycle:
			msg := (&graph.CycleError{Path: s.Cycle}).Error()
			out = append(out, atImport(g.Stdlib(), s.ID, syn, s.Cycle[1], HeaderCycle, msg))
		case graph.Blocked:
			msg := fmt.Sprintf("cannot analyze until %s is fixed", s.BlockedBy.Path())
			out = append(out, atImport(g.Stdlib(), s.ID, syn, s.BlockedBy, HeaderBlocked, msg))
		}
	}
	slices.SortStableFunc(out, func(a, b Diagnostic) int { return a.ID.Compare(b.ID) })
	return out
}

// atImport points a diagnostic at the first import of id that resolves to
// target.
func atImport(stdlib, id moduleid.ID, syn *node.Syntax, target moduleid.ID, header, msg string) Diagnostic {
	for i, name := range syn.Tree.ImportPaths(syn.Text, syn.Tokens) {
		if moduleid.ResolveImport(stdlib, id, name) == target {
			span := syn.Tokens[syn.Tree.Imports[i].Path].Span()
			return spanned(id, header, msg, syn.Text, span)
		}
	}
	return Diagnostic{ID: id, Header: header, Message: msg, source: syn.Text}
}
