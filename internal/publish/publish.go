// Package publish pushes diagnostics snapshots to external listeners, such
// as a browser dashboard connected over socket.io while `adroit watch` runs.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/moduleid"
)

// Snapshot is the state of a session after one drain.
type Snapshot struct {
	Root     string                       `json:"root"`
	Revision int                          `json:"revision"`
	Changed  []string                     `json:"changed"`
	Modules  map[string][]diag.Diagnostic `json:"modules"`
	Errors   int                          `json:"errors"`
}

// NewSnapshot builds a snapshot keyed by module URI.
func NewSnapshot(root moduleid.ID, revision int, changed []moduleid.ID, diags map[moduleid.ID][]diag.Diagnostic) Snapshot {
	s := Snapshot{
		Root:     root.String(),
		Revision: revision,
		Changed:  make([]string, len(changed)),
		Modules:  make(map[string][]diag.Diagnostic, len(diags)),
	}
	for i, id := range changed {
		s.Changed[i] = id.String()
	}
	for id, ds := range diags {
		s.Modules[id.String()] = ds
		s.Errors += len(ds)
	}
	return s
}

// payload converts the snapshot to plain maps and slices for transports
// that serialize arbitrary values themselves.
func (s Snapshot) payload() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return out, nil
}

// Publisher delivers snapshots.
type Publisher interface {
	Publish(ctx context.Context, s Snapshot) error
	Close() error
}

// Func adapts a function to Publisher.
type Func func(ctx context.Context, s Snapshot) error

// Publish implements Publisher.
func (f Func) Publish(ctx context.Context, s Snapshot) error { return f(ctx, s) }

// Close implements Publisher.
func (f Func) Close() error { return nil }
