package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/adroit-lang/adroit/internal/config"
	"github.com/adroit-lang/adroit/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	env      map[string]string
	home     string
	cacheDir string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnv replaces the process environment exposed as `env`.
func WithEnv(env map[string]string) Option {
	return func(l *Loader) { l.env = env }
}

// WithHome overrides the value of `home`.
func WithHome(dir string) Option {
	return func(l *Loader) { l.home = dir }
}

// WithCacheDir overrides the value of `cache_dir` and the cache directory
// used for the default standard library location.
func WithCacheDir(dir string) Option {
	return func(l *Loader) { l.cacheDir = dir }
}

// NewLoader creates a new HCL configuration loader. Without options it reads
// the process environment, home and cache directories.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{env: environ()}
	l.home, _ = os.UserHomeDir()
	l.cacheDir, _ = os.UserCacheDir()
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CacheDir returns the cache directory the loader resolves defaults against.
func (l *Loader) CacheDir() string {
	return l.cacheDir
}

// Load parses and decodes the project file at path on top of the defaults.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := config.Default(l.cacheDir)
	if path == "" {
		logger.Debug("No project file given, using defaults.")
		return model, nil
	}
	logger.Debug("HCL loader started.", "path", path)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, l.evalContext(ctx), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	translate(ctx, &root, filepath.Dir(abs), model)
	logger.Debug("HCL loading complete.", "root", model.Project.Root, "mode", model.Driver.Mode)
	return model, nil
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok && name != "" {
			env[name] = value
		}
	}
	return env
}
