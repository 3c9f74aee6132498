package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adroit-lang/adroit/internal/lex"
)

// LexStats is the outcome of a lexer benchmark.
type LexStats struct {
	Iterations int
	Bytes      int
	Lines      int
	Tokens     int
	Elapsed    time.Duration
}

// Lex tokenizes the file at path n times and prints throughput figures.
func (a *App) Lex(ctx context.Context, path string, n int) (*LexStats, error) {
	logger := a.logger.With("path", path, "iterations", n)
	if n < 1 {
		return nil, fmt.Errorf("iteration count must be at least 1, got %d", n)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	source := string(data)

	toks, err := lex.Lex(source)
	if err != nil {
		return nil, fmt.Errorf("failed to lex: %w", err)
	}
	stats := &LexStats{
		Iterations: n,
		Bytes:      len(source),
		Lines:      countLines(source),
		Tokens:     len(toks),
	}

	logger.Debug("Lexer benchmark starting.")
	start := time.Now()
	for range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, _ = lex.Lex(source)
	}
	stats.Elapsed = time.Since(start)
	logger.Debug("Lexer benchmark finished.", "elapsed", stats.Elapsed)

	stats.write(a)
	return stats, nil
}

func (s *LexStats) write(a *App) {
	n := s.Iterations
	fmt.Fprintf(a.outW, "%d iterations\n", n)
	fmt.Fprintf(a.outW, "%d * %d = %d bytes\n", n, s.Bytes, n*s.Bytes)
	fmt.Fprintf(a.outW, "%d * %d = %d lines\n", n, s.Lines, n*s.Lines)
	fmt.Fprintf(a.outW, "%d * %d = %d tokens\n", n, s.Tokens, n*s.Tokens)
	fmt.Fprintf(a.outW, "%s\n", s.Elapsed)
	fmt.Fprintf(a.outW, "%s per byte\n", per(s.Elapsed, n*s.Bytes))
	fmt.Fprintf(a.outW, "%s per line\n", per(s.Elapsed, n*s.Lines))
	fmt.Fprintf(a.outW, "%s per token\n", per(s.Elapsed, n*s.Tokens))
	seconds := s.Elapsed.Seconds()
	fmt.Fprintf(a.outW, "%g bytes per second\n", rate(n*s.Bytes, seconds))
	fmt.Fprintf(a.outW, "%g lines per second\n", rate(n*s.Lines, seconds))
	fmt.Fprintf(a.outW, "%g tokens per second\n", rate(n*s.Tokens, seconds))
}

// countLines counts lines the way a reader would: a trailing newline does
// not start another line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func per(d time.Duration, count int) time.Duration {
	if count == 0 {
		return 0
	}
	return d / time.Duration(count)
}

func rate(count int, seconds float64) float64 {
	if seconds == 0 {
		return 0
	}
	return float64(count) / seconds
}
