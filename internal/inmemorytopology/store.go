package inmemorytopology

import (
	"context"
	"slices"
	"sync"

	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/topologystore"
)

// Store implements topologystore.Store using maps guarded by an RWMutex.
type Store struct {
	mu        sync.RWMutex
	imports   map[moduleid.ID][]moduleid.ID
	importers map[moduleid.ID]map[moduleid.ID]int // Key: importee, Value: importer -> edge count
}

// New creates a new, empty in-memory topology store.
func New() *Store {
	return &Store{
		imports:   make(map[moduleid.ID][]moduleid.ID),
		importers: make(map[moduleid.ID]map[moduleid.ID]int),
	}
}

var _ topologystore.Store = (*Store)(nil)

// SetImports replaces the imports of from.
func (s *Store) SetImports(ctx context.Context, from moduleid.ID, to []moduleid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, old := range s.imports[from] {
		rev := s.importers[old]
		if rev[from]--; rev[from] <= 0 {
			delete(rev, from)
		}
	}
	s.imports[from] = slices.Clone(to)
	for _, dep := range to {
		if s.importers[dep] == nil {
			s.importers[dep] = make(map[moduleid.ID]int)
		}
		s.importers[dep][from]++
	}
}

// ImportsOf returns the imports of id in import order.
func (s *Store) ImportsOf(ctx context.Context, id moduleid.ID) ([]moduleid.ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	imports, ok := s.imports[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(imports), true
}

// ImportersOf returns the distinct importers of id, sorted.
func (s *Store) ImportersOf(ctx context.Context, id moduleid.ID) []moduleid.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rev := s.importers[id]
	out := make([]moduleid.ID, 0, len(rev))
	for from := range rev {
		out = append(out, from)
	}
	moduleid.Sort(out)
	return out
}
