// Package topologystore defines the interface for storing the import edges
// of the module graph.
//
// # Why Topology Store Exists
//
// Edges are read on every worklist query (is every import analyzed?) and on
// every cycle check, but written only when a module's text is parsed. The
// topology store keeps them apart from the per-module stages in nodestore so
// read-heavy edge queries can share a read lock.
//
// Edges are stored as identities, never as references to nodes. Forward edges
// keep import order, since analysis passes dependencies to the typechecker in
// that order. Reverse edges (importers) are kept to find what to invalidate
// when a module's text changes.
package topologystore

import (
	"context"

	"github.com/adroit-lang/adroit/internal/moduleid"
)

// Store manages the import relation.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use.
type Store interface {
	// SetImports replaces the imports of from, in import order. Duplicates
	// are kept. Reverse edges are updated to match.
	SetImports(ctx context.Context, from moduleid.ID, to []moduleid.ID)

	// ImportsOf returns the imports of id in import order. ok is false if
	// SetImports was never called for id.
	ImportsOf(ctx context.Context, id moduleid.ID) (imports []moduleid.ID, ok bool)

	// ImportersOf returns the distinct modules that import id, sorted.
	ImportersOf(ctx context.Context, id moduleid.ID) []moduleid.ID
}
