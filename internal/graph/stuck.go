package graph

import (
	"context"

	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
)

// StuckReason says why a Parsed module cannot be analyzed.
type StuckReason uint8

const (
	// OnCycle means the module imports itself, directly or through others.
	OnCycle StuckReason = iota
	// Blocked means an import failed, is unavailable, or is itself stuck.
	Blocked
)

func (r StuckReason) String() string {
	if r == OnCycle {
		return "on cycle"
	}
	return "blocked"
}

// Stuck describes one module that stays Parsed.
type Stuck struct {
	ID     moduleid.ID
	Reason StuckReason
	// Cycle is set for OnCycle and starts and ends with ID.
	Cycle []moduleid.ID
	// BlockedBy is set for Blocked: the first import, in import order, that
	// is not Analyzed.
	BlockedBy moduleid.ID
}

// Stuck implements Graph.
func (m *Manager) Stuck(ctx context.Context) []Stuck {
	next := func(id moduleid.ID) ([]moduleid.ID, bool) {
		st, ok := m.Stage(ctx, id)
		if !ok || st.Kind() != node.KindParsed {
			return nil, false
		}
		return m.topology.ImportsOf(ctx, id)
	}

	var out []Stuck
	for _, n := range m.Nodes(ctx) {
		if n.Stage.Kind() != node.KindParsed {
			continue
		}
		if cycle := cycleThrough(n.ID, next); cycle != nil {
			out = append(out, Stuck{ID: n.ID, Reason: OnCycle, Cycle: cycle})
			continue
		}
		s := Stuck{ID: n.ID, Reason: Blocked}
		imports, _ := m.topology.ImportsOf(ctx, n.ID)
		for _, dep := range imports {
			if st, ok := m.Stage(ctx, dep); !ok || st.Kind() != node.KindAnalyzed {
				s.BlockedBy = dep
				break
			}
		}
		out = append(out, s)
	}
	return out
}
