package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adroit-lang/adroit/internal/app"
	"github.com/adroit-lang/adroit/internal/config"
	"github.com/adroit-lang/adroit/internal/ctxlog"
	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/hcl_adapter"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	stdlib     string
	logLevel   string
	logFormat  string
	color      string
	failFast   bool
	workers    int
}

// NewRootCommand builds the command tree. Commands hold no global state, so
// a fresh tree can be built per invocation.
func NewRootCommand(s Streams) *cobra.Command {
	f := &globalFlags{}
	root := &cobra.Command{
		Use:   "adroit",
		Short: "Toolchain for the adroit array language",
		Long: `adroit reads a module and everything it imports, tokenizes, parses and
typechecks them incrementally, and reports every diagnostic.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Path to the project file. Defaults to ./"+config.DefaultFileName+" when present.")
	pf.StringVar(&f.stdlib, "stdlib", "", "Directory holding the standard library modules.")
	pf.StringVar(&f.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&f.color, "color", "auto", "Colour diagnostics. Options: 'auto', 'always', 'never'.")
	pf.BoolVar(&f.failFast, "fail-fast", false, "Stop at the first module that fails to read, parse or typecheck.")
	pf.IntVar(&f.workers, "workers", 0, "Number of concurrent fetch and check workers.")

	root.AddCommand(
		newLexCommand(f, s),
		newFmtCommand(f, s),
		newCheckCommand(f, s),
		newJSONCommand(f, s),
		newLSPCommand(f, s),
		newWatchCommand(f, s),
	)
	return root
}

// maxArgs is cobra.MaximumNArgs reporting a usage error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &ExitError{Code: ExitUsage, Message: err.Error()}
		}
		return nil
	}
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &ExitError{Code: ExitUsage, Message: err.Error()}
		}
		return nil
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// loadModel reads the project file and applies the flags the user set.
func loadModel(ctx context.Context, cmd *cobra.Command, f *globalFlags) (*config.Model, error) {
	path := f.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err == nil {
			path = config.DefaultFileName
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error accessing %s: %w", config.DefaultFileName, err)
		}
	}
	m, err := hcl_adapter.NewLoader().Load(ctx, path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("stdlib") {
		m.Project.Stdlib = f.stdlib
	}
	if flags.Changed("log-level") {
		m.Log.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		m.Log.Format = f.logFormat
	}
	if f.failFast {
		m.Driver.Mode = "fail-fast"
	}
	if flags.Changed("workers") {
		m.Driver.FetchWorkers = f.workers
		m.Driver.CheckWorkers = f.workers
	}
	return m, nil
}

// withApp builds the configuration and the App, runs fn and closes the App.
func withApp(cmd *cobra.Command, f *globalFlags, s Streams, fn func(ctx context.Context, a *app.App) error) (err error) {
	ctx := cmd.Context()
	m, err := loadModel(ctx, cmd, f)
	if err != nil {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	cfg, err := app.NewConfig(m)
	if err != nil {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	cfg.Color, err = diag.ParseColorMode(strings.ToLower(f.color))
	if err != nil {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	a, err := app.NewApp(ctx, s.Out, s.Err, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close(context.WithoutCancel(ctx)))
	}()

	ctx = a.Context(ctx)
	ctxlog.FromContext(ctx).Debug("Command starting.", "command", cmd.Name())
	return fn(ctx, a)
}
