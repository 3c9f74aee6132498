package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/adroit-lang/adroit/internal/ctxlog"
	"github.com/adroit-lang/adroit/internal/fetch"
	"github.com/adroit-lang/adroit/internal/localsession"
	"github.com/adroit-lang/adroit/internal/scheduler"
	"github.com/adroit-lang/adroit/internal/session"
	"github.com/adroit-lang/adroit/internal/telemetry"
)

// Version is reported by the language server and telemetry. Release builds
// set it with -ldflags.
var Version = "dev"

// ErrDiagnostics is returned by commands that completed but found at least
// one diagnostic.
var ErrDiagnostics = errors.New("diagnostics reported")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	config *Config
	runID  string

	resolver   fetch.Resolver
	sessions   session.SessionFactory
	telemetry  *telemetry.Provider
	httpServer *http.Server
}

// Option configures an App.
type Option func(*App)

// WithResolver replaces the filesystem resolver used to read modules.
func WithResolver(r fetch.Resolver) Option {
	return func(a *App) { a.resolver = r }
}

// WithSessionFactory replaces the in-process session factory.
func WithSessionFactory(f session.SessionFactory) Option {
	return func(a *App) { a.sessions = f }
}

// NewApp is the constructor for the main application. Command output goes to
// outW; logs, diagnostics and telemetry output go to errW.
func NewApp(ctx context.Context, outW, errW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW).With("run_id", runID)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:     outW,
		errW:     errW,
		logger:   logger,
		config:   cfg,
		runID:    runID,
		resolver: fetch.FS{},
		sessions: &localsession.SessionFactory{},
	}
	for _, opt := range opts {
		opt(a)
	}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "adroit",
		ServiceVersion: Version,
		Traces:         cfg.Traces,
		Metrics:        cfg.Metrics,
		Writer:         errW,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.telemetry = tp
	logger.Debug("Telemetry initialized.", "traces", cfg.Traces, "metrics", cfg.Metrics)

	if err := a.startHealthcheckServer(); err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	return a, nil
}

// Context returns ctx carrying the app's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// RunID identifies this run in logs.
func (a *App) RunID() string {
	return a.runID
}

// Close stops the health check server and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	a.logger.Debug("Closing application.")
	return errors.Join(a.closeHealthcheckServer(ctx), a.telemetry.Shutdown(ctx))
}

func (a *App) newSession(ctx context.Context, resolver fetch.Resolver, policy scheduler.Policy) (session.Session, error) {
	return a.sessions.NewSession(ctx, session.Options{
		Stdlib:       a.config.Stdlib,
		Resolver:     resolver,
		FetchWorkers: a.config.FetchWorkers,
		CheckWorkers: a.config.CheckWorkers,
		Policy:       policy,
	})
}
