package graph

import (
	"fmt"
	"strings"

	"github.com/adroit-lang/adroit/internal/moduleid"
)

// CycleError reports an import cycle. Path starts and ends with the same
// module.
type CycleError struct {
	Path []moduleid.ID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.String()
	}
	return "import cycle: " + strings.Join(parts, " -> ")
}

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// findCycle walks edges depth-first from start, in the order next returns
// them, and returns the first cycle it closes. next returning ok=false marks
// a module that cannot be on a cycle and is not entered.
func findCycle(start moduleid.ID, next func(moduleid.ID) ([]moduleid.ID, bool)) *CycleError {
	states := make(map[moduleid.ID]visitState)
	var stack []moduleid.ID

	var visit func(id moduleid.ID) *CycleError
	visit = func(id moduleid.ID) *CycleError {
		switch states[id] {
		case stateVisiting:
			for i, s := range stack {
				if s == id {
					path := append([]moduleid.ID(nil), stack[i:]...)
					return &CycleError{Path: append(path, id)}
				}
			}
			panic(fmt.Sprintf("graph: %s marked visiting but not on stack", id))
		case stateDone:
			return nil
		}
		edges, ok := next(id)
		if !ok {
			states[id] = stateDone
			return nil
		}
		states[id] = stateVisiting
		stack = append(stack, id)
		for _, to := range edges {
			if err := visit(to); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		states[id] = stateDone
		return nil
	}
	return visit(start)
}

// cycleThrough returns the shortest cycle that passes through id, found
// breadth-first in import order, or nil.
func cycleThrough(id moduleid.ID, next func(moduleid.ID) ([]moduleid.ID, bool)) []moduleid.ID {
	parent := map[moduleid.ID]moduleid.ID{}
	seen := map[moduleid.ID]bool{}
	queue := []moduleid.ID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		edges, ok := next(cur)
		if !ok {
			continue
		}
		for _, to := range edges {
			if to == id {
				path := []moduleid.ID{id}
				for at := cur; at != id; at = parent[at] {
					path = append(path, at)
				}
				// path holds id followed by the walk back from cur; flip
				// the tail so it reads in import direction.
				tail := path[1:]
				for i, j := 0, len(tail)-1; i < j; i, j = i+1, j-1 {
					tail[i], tail[j] = tail[j], tail[i]
				}
				return append(path, id)
			}
			if !seen[to] {
				seen[to] = true
				parent[to] = cur
				queue = append(queue, to)
			}
		}
	}
	return nil
}
