// Package fetch maps module identities to source text.
//
// A Resolver is the only place the toolchain touches the file system for
// module text. FS reads files; Overlay layers editor buffers over another
// resolver so unsaved text wins over what is on disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/adroit-lang/adroit/internal/moduleid"
)

// ErrNotFound is wrapped by Error when no text exists for an identity.
var ErrNotFound = errors.New("module not found")

// Error reports a failure to produce the text of a module.
type Error struct {
	ID  moduleid.ID
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.ID.Path(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Resolver produces the text of a module. Implementations must be safe for
// concurrent use; the scheduler fetches a whole round in parallel.
type Resolver interface {
	Fetch(ctx context.Context, id moduleid.ID) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, id moduleid.ID) (string, error)

// Fetch calls f.
func (f ResolverFunc) Fetch(ctx context.Context, id moduleid.ID) (string, error) {
	return f(ctx, id)
}

// FS reads module text from the local file system.
type FS struct{}

// Fetch reads the file at id's path.
func (FS) Fetch(ctx context.Context, id moduleid.ID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(id.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", &Error{ID: id, Err: ErrNotFound}
	}
	if err != nil {
		return "", &Error{ID: id, Err: err}
	}
	return string(data), nil
}

// Overlay serves text set with Set and falls back to Base for everything
// else.
type Overlay struct {
	Base Resolver

	mu    sync.RWMutex
	texts map[moduleid.ID]string
}

// NewOverlay creates an overlay over base.
func NewOverlay(base Resolver) *Overlay {
	return &Overlay{Base: base, texts: make(map[moduleid.ID]string)}
}

// Set records the text of id, shadowing Base.
func (o *Overlay) Set(id moduleid.ID, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.texts[id] = text
}

// Delete removes the overlay text of id so Base is consulted again.
func (o *Overlay) Delete(id moduleid.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.texts, id)
}

// Get returns the overlay text of id, if any.
func (o *Overlay) Get(id moduleid.ID) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	text, ok := o.texts[id]
	return text, ok
}

// Fetch implements Resolver.
func (o *Overlay) Fetch(ctx context.Context, id moduleid.ID) (string, error) {
	if text, ok := o.Get(id); ok {
		return text, nil
	}
	if o.Base == nil {
		return "", &Error{ID: id, Err: ErrNotFound}
	}
	return o.Base.Fetch(ctx, id)
}

// Map serves text from a fixed map keyed by path. It backs tests and the
// in-memory project used by `adroit fmt`.
type Map map[string]string

// Fetch implements Resolver.
func (m Map) Fetch(ctx context.Context, id moduleid.ID) (string, error) {
	text, ok := m[id.Path()]
	if !ok {
		return "", &Error{ID: id, Err: ErrNotFound}
	}
	return text, nil
}
