package config

import "path/filepath"

// DefaultFileName is the project file looked up in the working directory
// when no explicit path is given.
const DefaultFileName = "adroit.hcl"

// Model is the unified, format-agnostic representation of a project file.
type Model struct {
	Project   Project
	Driver    Driver
	Log       Log
	Telemetry Telemetry
	Publish   Publish
}

// Project names the root module and the standard library directory.
type Project struct {
	Root   string
	Stdlib string
}

// Driver configures the scheduler.
type Driver struct {
	Mode         string
	FetchWorkers int
	CheckWorkers int
}

// Log configures the structured logger.
type Log struct {
	Level  string
	Format string
}

// Telemetry selects exporters and the health check port. Port 0 disables
// the health check server.
type Telemetry struct {
	Traces  string
	Metrics string
	Port    int
}

// Publish configures the socket.io diagnostics publisher used by watch.
// An empty URL disables publishing.
type Publish struct {
	URL       string
	Namespace string
	Event     string
}

// Default returns the model used when no project file sets a value.
// cacheDir is the user cache directory; the standard library lives under
// it unless configured otherwise.
func Default(cacheDir string) *Model {
	m := &Model{
		Driver: Driver{
			Mode:         "tolerant",
			FetchWorkers: 8,
			CheckWorkers: 4,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Telemetry: Telemetry{
			Traces:  "none",
			Metrics: "none",
		},
		Publish: Publish{
			Namespace: "/",
			Event:     "diagnostics",
		},
	}
	if cacheDir != "" {
		m.Project.Stdlib = filepath.Join(cacheDir, "adroit", "modules")
	}
	return m
}
