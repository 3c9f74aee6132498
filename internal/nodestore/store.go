// Package nodestore defines the interface for storing the per-module analysis
// state of the module graph.
//
// # Why Node Store Exists
//
// The node store isolates the **mutable stage** of each module (pending, read,
// lexed, parsed, analyzed) from the **import edges** managed by topologystore.
// Stage writes are frequent and per-module; edge reads happen on every
// worklist query. Keeping them apart lets each use the locking strategy that
// fits its access pattern.
//
// # Lifecycle
//
// The node store is:
//  1. **Created** once per graph (one CLI run or one editor session)
//  2. **Grown** as roots are registered and imports are discovered; nodes are
//     never removed
//  3. **Mutated** through Update as stages advance or text is resupplied
//  4. **Discarded** with the graph
package nodestore

import (
	"context"
	"errors"

	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
)

// ErrNotFound is returned by Update for an identity that was never ensured.
var ErrNotFound = errors.New("node not found")

// UpdateFunc computes the next state of a node from its current one. It runs
// while the node is locked and must not call back into the store. Returning
// false leaves the node unchanged.
type UpdateFunc func(cur node.Node) (next node.Node, write bool)

// Store manages the stage of every module in the graph.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. Updates to one node must be
// atomic with respect to each other; updates to different nodes must not
// block each other.
type Store interface {
	// Ensure creates a Pending node for id unless one exists. It reports
	// whether a node was created.
	Ensure(ctx context.Context, id moduleid.ID) bool

	// Load returns a snapshot of the node for id.
	Load(ctx context.Context, id moduleid.ID) (node.Node, bool)

	// Update applies fn to the node for id under its lock and returns the
	// resulting snapshot.
	Update(ctx context.Context, id moduleid.ID, fn UpdateFunc) (node.Node, error)

	// All returns snapshots of every node, in no particular order.
	All(ctx context.Context) []node.Node

	// Len returns the number of nodes.
	Len(ctx context.Context) int
}
