package graph

import (
	"context"
	"errors"

	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/typecheck"
)

var (
	// ErrUnknownModule is returned for an identity the graph has no node for.
	ErrUnknownModule = errors.New("unknown module")
	// ErrNotParsed is returned by Imports for a module whose imports are not
	// known yet.
	ErrNotParsed = errors.New("module not parsed")
	// ErrStaleJob is returned by SupplySemantic when the job's module changed
	// after the job was handed out.
	ErrStaleJob = errors.New("stale analysis job")
)

// Graph is the module graph as seen by drivers and consumers.
//
// **Drivers** (scheduler, editor session) use Pending, SetText,
// SetFetchError, Analysis and SupplySemantic to reach a fixpoint.
// **Consumers** (exporter, diagnostics) use Nodes, Stage, Imports and Stuck
// to read the result.
type Graph interface {
	// Stdlib returns the root non-relative imports resolve under.
	Stdlib() moduleid.ID

	// MakeRoot registers id as a root, creating a Pending node if needed.
	MakeRoot(ctx context.Context, id moduleid.ID)

	// Roots returns the registered roots in registration order.
	Roots(ctx context.Context) []moduleid.ID

	// Pending returns every module that still needs text, sorted. It does
	// not change the graph: calling it twice without a push in between
	// returns the same list.
	Pending(ctx context.Context) []moduleid.ID

	// SetText supplies the text of a module. It lexes and parses the text,
	// creates nodes for newly discovered imports and records import edges.
	// Supplying the text a module already holds is a no-op. Supplying new
	// text to an already loaded module invalidates every module that
	// transitively imports it.
	SetText(ctx context.Context, id moduleid.ID, text string) error

	// SetFetchError records that the text of a module could not be read.
	SetFetchError(ctx context.Context, id moduleid.ID, err error) error

	// Analysis returns a job for every Parsed module whose imports are all
	// Analyzed, sorted by identity. Jobs from one call are independent of
	// each other.
	Analysis(ctx context.Context) []*Job

	// SupplySemantic stores the typechecking result of a job.
	SupplySemantic(ctx context.Context, job *Job, mod *typecheck.Module, errs []typecheck.Error) error

	// Imports returns the import identities of a module in import order.
	Imports(ctx context.Context, id moduleid.ID) ([]moduleid.ID, error)

	// Nodes returns a snapshot of every node, sorted by identity.
	Nodes(ctx context.Context) []node.Node

	// Stage returns the current stage of a module.
	Stage(ctx context.Context, id moduleid.ID) (node.Stage, bool)

	// Stuck classifies every module left Parsed once no more analysis is
	// available.
	Stuck(ctx context.Context) []Stuck
}

// Dep is an analyzed import handed to the typechecker.
type Dep struct {
	ID     moduleid.ID
	Module *typecheck.Module
}

// Job is one unit of typechecking work.
type Job struct {
	ID     moduleid.ID
	Syntax *node.Syntax
	// Deps are in import order, one per import declaration.
	Deps []Dep

	version uint64
}

// Modules returns the semantic modules of the job's imports in import order.
func (j *Job) Modules() []*typecheck.Module {
	mods := make([]*typecheck.Module, len(j.Deps))
	for i, d := range j.Deps {
		mods[i] = d.Module
	}
	return mods
}
