package moduleid

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveRoot makes path absolute and clean. It does not check that the file
// exists.
func ResolveRoot(path string) (ID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ID{}, fmt.Errorf("error resolving %s: %w", path, err)
	}
	return ID{path: filepath.Clean(abs)}, nil
}

// FromDir returns the identity of a directory, used for the standard-library
// root.
func FromDir(dir string) (ID, error) {
	return ResolveRoot(dir)
}

// IsRelative reports whether an import name is resolved against the importing
// module rather than the standard-library root.
func IsRelative(name string) bool {
	return strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../")
}

// ResolveImport resolves an import name found in module from. Relative names
// are joined to the directory of from, every other name to stdlib. Names
// without an extension get Ext.
func ResolveImport(stdlib, from ID, name string) ID {
	base := stdlib.path
	if IsRelative(name) {
		base = filepath.Dir(from.path)
	}
	p := filepath.Join(base, filepath.FromSlash(name))
	if filepath.Ext(p) == "" {
		p += Ext
	}
	return ID{path: p}
}
