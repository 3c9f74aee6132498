package moduleid

import (
	"net/url"
	"path/filepath"
	"slices"
	"strings"
)

// String renders the identity as a file URI, e.g. `file:///home/me/main.adroit`.
func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(id.path)}
	return u.String()
}

// Compare orders identities by path. It is the total order used everywhere a
// deterministic iteration order is needed.
func (id ID) Compare(other ID) int {
	return strings.Compare(id.path, other.path)
}

// MarshalText implements encoding.TextMarshaler so identities can be used as
// JSON object keys.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Sort orders ids in place.
func Sort(ids []ID) {
	slices.SortFunc(ids, ID.Compare)
}
