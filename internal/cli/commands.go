package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/adroit-lang/adroit/internal/app"
	"github.com/adroit-lang/adroit/internal/export"
	"github.com/adroit-lang/adroit/internal/watch"
)

func newLexCommand(f *globalFlags, s Streams) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "lex -n N FILE",
		Short: "Lex a source file N times and report throughput",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, s, func(ctx context.Context, a *app.App) error {
				_, err := a.Lex(ctx, args[0], n)
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&n, "iterations", "n", 1, "Number of times to lex.")
	return cmd
}

func newFmtCommand(f *globalFlags, s Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "fmt [FILE]",
		Short: "Print the reformatted source code of a module",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, s, func(ctx context.Context, a *app.App) error {
				return a.Format(ctx, firstArg(args))
			})
		},
	}
}

func newCheckCommand(f *globalFlags, s Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "check [FILE]",
		Short: "Analyze a module and its imports and print every diagnostic",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, s, func(ctx context.Context, a *app.App) error {
				return a.Check(ctx, firstArg(args))
			})
		},
	}
}

func newJSONCommand(f *globalFlags, s Streams) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "json [FILE]",
		Short: "Print the typed IR of a module and its imports",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := export.ParseFormat(format)
			if err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}
			return withApp(cmd, f, s, func(ctx context.Context, a *app.App) error {
				return a.Export(ctx, firstArg(args), ft)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format. Options: 'json' or 'yaml'.")
	return cmd
}

func newLSPCommand(f *globalFlags, s Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start a language server over stdio",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, s, func(ctx context.Context, a *app.App) error {
				return a.ServeLSP(ctx, s.In, s.Out)
			})
		},
	}
}

func newWatchCommand(f *globalFlags, s Streams) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [FILE]",
		Short: "Re-analyze a module whenever its files change",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, s, func(ctx context.Context, a *app.App) error {
				return a.Watch(ctx, firstArg(args), debounce)
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before changed files are reloaded.")
	return cmd
}
