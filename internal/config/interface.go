package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the project file at path and returns the defaults
	// overlaid with every value the file sets. An empty path returns the
	// defaults unchanged.
	Load(ctx context.Context, path string) (*Model, error)
}
