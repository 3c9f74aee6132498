// This file contains the logic for overlaying decoded HCL blocks onto the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"path/filepath"

	"github.com/adroit-lang/adroit/internal/config"
	"github.com/adroit-lang/adroit/internal/ctxlog"
)

// translate copies every attribute the file set onto m. Relative paths are
// resolved against dir, the directory holding the project file.
func translate(ctx context.Context, root *fileRoot, dir string, m *config.Model) {
	logger := ctxlog.FromContext(ctx)

	if p := root.Project; p != nil {
		setPath(&m.Project.Root, p.Root, dir)
		setPath(&m.Project.Stdlib, p.Stdlib, dir)
		logger.Debug("Translated project block.", "root", m.Project.Root, "stdlib", m.Project.Stdlib)
	}
	if d := root.Driver; d != nil {
		set(&m.Driver.Mode, d.Mode)
		set(&m.Driver.FetchWorkers, d.FetchWorkers)
		set(&m.Driver.CheckWorkers, d.CheckWorkers)
		logger.Debug("Translated driver block.", "mode", m.Driver.Mode)
	}
	if l := root.Log; l != nil {
		set(&m.Log.Level, l.Level)
		set(&m.Log.Format, l.Format)
	}
	if t := root.Telemetry; t != nil {
		set(&m.Telemetry.Traces, t.Traces)
		set(&m.Telemetry.Metrics, t.Metrics)
		set(&m.Telemetry.Port, t.Port)
	}
	if p := root.Publish; p != nil {
		set(&m.Publish.URL, p.URL)
		set(&m.Publish.Namespace, p.Namespace)
		set(&m.Publish.Event, p.Event)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setPath(dst *string, src *string, dir string) {
	if src == nil {
		return
	}
	path := *src
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	*dst = path
}
