package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/adroit-lang/adroit/internal/app"
)

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Streams are the standard streams a command reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Execute runs the command line args. Diagnostics found by a command map to
// an ExitError with ExitFailure and no message, since they were printed
// already; usage mistakes map to ExitUsage.
func Execute(ctx context.Context, s Streams, args []string) error {
	root := NewRootCommand(s)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr
	case errors.Is(err, app.ErrDiagnostics):
		return &ExitError{Code: ExitFailure}
	case strings.HasPrefix(err.Error(), "unknown command"):
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	default:
		return err
	}
}
