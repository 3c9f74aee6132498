package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adroit-lang/adroit/internal/config"
	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/scheduler"
	"github.com/adroit-lang/adroit/internal/telemetry"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Root is the project's root module, used when a command is given no
	// file. May be empty.
	Root   string
	Stdlib moduleid.ID

	Policy       scheduler.Policy
	FetchWorkers int
	CheckWorkers int

	LogLevel  string
	LogFormat string
	Color     diag.ColorMode

	Traces          string
	Metrics         string
	HealthcheckPort int

	PublishURL       string
	PublishNamespace string
	PublishEvent     string
}

// NewConfig validates a configuration model, after flags were applied to
// it, and converts it into a Config.
func NewConfig(m *config.Model) (*Config, error) {
	if m.Project.Stdlib == "" {
		return nil, errors.New("stdlib is a required configuration field and cannot be empty")
	}
	stdlib, err := moduleid.FromDir(m.Project.Stdlib)
	if err != nil {
		return nil, fmt.Errorf("invalid stdlib: %w", err)
	}

	policy, err := scheduler.ParsePolicy(m.Driver.Mode)
	if err != nil {
		return nil, fmt.Errorf("invalid driver mode: %w", err)
	}
	if m.Driver.FetchWorkers < 1 || m.Driver.CheckWorkers < 1 {
		return nil, fmt.Errorf("invalid worker count: fetch_workers=%d check_workers=%d, both must be at least 1",
			m.Driver.FetchWorkers, m.Driver.CheckWorkers)
	}

	level := strings.ToLower(m.Log.Level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", m.Log.Level)
	}
	format := strings.ToLower(m.Log.Format)
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", m.Log.Format)
	}

	switch m.Telemetry.Traces {
	case telemetry.ExporterNone, telemetry.ExporterStdout:
	default:
		return nil, fmt.Errorf("invalid traces exporter %q: must be 'none' or 'stdout'", m.Telemetry.Traces)
	}
	switch m.Telemetry.Metrics {
	case telemetry.ExporterNone, telemetry.ExporterStdout, telemetry.ExporterPrometheus:
	default:
		return nil, fmt.Errorf("invalid metrics exporter %q: must be 'none', 'stdout' or 'prometheus'", m.Telemetry.Metrics)
	}
	if m.Telemetry.Port < 0 || m.Telemetry.Port > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", m.Telemetry.Port)
	}

	return &Config{
		Root:             m.Project.Root,
		Stdlib:           stdlib,
		Policy:           policy,
		FetchWorkers:     m.Driver.FetchWorkers,
		CheckWorkers:     m.Driver.CheckWorkers,
		LogLevel:         level,
		LogFormat:        format,
		Traces:           m.Telemetry.Traces,
		Metrics:          m.Telemetry.Metrics,
		HealthcheckPort:  m.Telemetry.Port,
		PublishURL:       m.Publish.URL,
		PublishNamespace: m.Publish.Namespace,
		PublishEvent:     m.Publish.Event,
	}, nil
}
