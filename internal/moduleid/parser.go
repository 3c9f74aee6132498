package moduleid

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Parse converts a `file://` URI, as sent by editors, back into an identity.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return ID{}, fmt.Errorf("module uri cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ID{}, fmt.Errorf("invalid module uri %q: %w", raw, err)
	}
	if u.Scheme != "file" {
		return ID{}, fmt.Errorf("unsupported module uri scheme %q", u.Scheme)
	}
	if u.Path == "" || !filepath.IsAbs(filepath.FromSlash(u.Path)) {
		return ID{}, fmt.Errorf("module uri %q must hold an absolute path", raw)
	}
	return ID{path: filepath.Clean(filepath.FromSlash(u.Path))}, nil
}
