package inmemorystore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/nodestore"
)

// entry guards one node. Each node has its own mutex, so stage writes to
// different modules never contend.
type entry struct {
	mu sync.Mutex
	n  node.Node
}

// Store is an in-memory implementation of nodestore.Store. Entries live in a
// sync.Map keyed by identity: the key space only grows, and reads dominate
// once modules are discovered.
type Store struct {
	entries sync.Map // Key: moduleid.ID, Value: *entry
	size    atomic.Int64
}

// New creates a new, empty in-memory node store.
func New() *Store {
	return &Store{}
}

var _ nodestore.Store = (*Store)(nil)

// Ensure creates a Pending node for id unless one exists.
func (s *Store) Ensure(ctx context.Context, id moduleid.ID) bool {
	if _, ok := s.entries.Load(id); ok {
		return false
	}
	_, loaded := s.entries.LoadOrStore(id, &entry{n: node.Node{ID: id, Stage: node.Pending{}}})
	if !loaded {
		s.size.Add(1)
	}
	return !loaded
}

// Load returns a snapshot of the node for id.
func (s *Store) Load(ctx context.Context, id moduleid.ID) (node.Node, bool) {
	v, ok := s.entries.Load(id)
	if !ok {
		return node.Node{}, false
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.n, true
}

// Update applies fn to the node for id under its lock.
func (s *Store) Update(ctx context.Context, id moduleid.ID, fn nodestore.UpdateFunc) (node.Node, error) {
	v, ok := s.entries.Load(id)
	if !ok {
		return node.Node{}, nodestore.ErrNotFound
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if next, write := fn(e.n); write {
		next.ID = id
		e.n = next
	}
	return e.n, nil
}

// All returns snapshots of every node.
func (s *Store) All(ctx context.Context) []node.Node {
	out := make([]node.Node, 0, s.size.Load())
	s.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		out = append(out, e.n)
		e.mu.Unlock()
		return true
	})
	return out
}

// Len returns the number of nodes.
func (s *Store) Len(ctx context.Context) int {
	return int(s.size.Load())
}
