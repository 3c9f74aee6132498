// Package node defines the per-module analysis state stored in the graph.
//
// A Node holds exactly one Stage. Stages form a closed set: every concrete
// stage type is declared in this package and consumers match on them with a
// type switch. Stage values are immutable once stored; a transition replaces
// the value.
package node

import (
	"github.com/adroit-lang/adroit/internal/lex"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/parse"
	"github.com/adroit-lang/adroit/internal/typecheck"
)

// Syntax is the lexed and parsed form of one version of a module's text.
// It is produced once per supplied text and shared by pointer.
type Syntax struct {
	Text   string
	Tokens lex.Tokens
	Tree   *parse.Tree
}

// Stage is the analysis state of a node.
type Stage interface {
	Kind() Kind
	stage()
}

// Kind names a stage without its payload.
type Kind uint8

const (
	KindPending Kind = iota
	KindUnavailable
	KindRead
	KindLexed
	KindParsed
	KindAnalyzed
)

var kindNames = [...]string{
	KindPending:     "pending",
	KindUnavailable: "unavailable",
	KindRead:        "read",
	KindLexed:       "lexed",
	KindParsed:      "parsed",
	KindAnalyzed:    "analyzed",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// MarshalText encodes the stage kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Pending is the initial stage: the identity is known but no text has been
// supplied.
type Pending struct{}

// Unavailable records that the resolver could not produce text.
type Unavailable struct {
	Err error
}

// Read holds text that failed to lex.
type Read struct {
	Text string
	Err  *lex.Error
}

// Lexed holds tokens that failed to parse.
type Lexed struct {
	Text   string
	Tokens lex.Tokens
	Err    *parse.Error
}

// Parsed holds a syntax tree whose imports are all known to the graph.
type Parsed struct {
	Syntax *Syntax
}

// Analyzed is the terminal stage after typechecking. Errors may be non-empty.
type Analyzed struct {
	Syntax *Syntax
	Module *typecheck.Module
	Errors []typecheck.Error
}

func (Pending) Kind() Kind     { return KindPending }
func (Unavailable) Kind() Kind { return KindUnavailable }
func (Read) Kind() Kind        { return KindRead }
func (Lexed) Kind() Kind       { return KindLexed }
func (Parsed) Kind() Kind      { return KindParsed }
func (Analyzed) Kind() Kind    { return KindAnalyzed }

func (Pending) stage()     {}
func (Unavailable) stage() {}
func (Read) stage()        {}
func (Lexed) stage()       {}
func (Parsed) stage()      {}
func (Analyzed) stage()    {}

// Node is a snapshot of one module's state. Version increases on every
// resupply of text, so work started against an older version can be
// recognized as stale.
type Node struct {
	ID      moduleid.ID
	Stage   Stage
	Version uint64
}

// Text returns the source text held by a stage, if any.
func Text(s Stage) (string, bool) {
	switch s := s.(type) {
	case Read:
		return s.Text, true
	case Lexed:
		return s.Text, true
	case Parsed:
		return s.Syntax.Text, true
	case Analyzed:
		return s.Syntax.Text, true
	}
	return "", false
}

// SyntaxOf returns the syntax held by a Parsed or Analyzed stage.
func SyntaxOf(s Stage) (*Syntax, bool) {
	switch s := s.(type) {
	case Parsed:
		return s.Syntax, true
	case Analyzed:
		return s.Syntax, true
	}
	return nil, false
}

// Failed reports whether a stage carries at least one error.
func Failed(s Stage) bool {
	switch s := s.(type) {
	case Unavailable, Read, Lexed:
		return true
	case Analyzed:
		return len(s.Errors) > 0
	}
	return false
}
