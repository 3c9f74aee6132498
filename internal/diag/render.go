package diag

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorMode controls whether the renderer emits ANSI colours.
type ColorMode uint8

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode accepts "auto", "always" and "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
}

var (
	colorError  = lipgloss.Color("#E74C3C")
	colorMarker = lipgloss.Color("#2CD7C7")
	colorMuted  = lipgloss.Color("#5C7A84")
)

// Renderer writes diagnostics in a compiler-style layout:
//
//	error: failed to typecheck
//	  --> /src/main.adroit:3:9
//	   |
//	 3 |     a + 1.0
//	   |     ^^^^^^^ mismatched types Int and Float
type Renderer struct {
	w      io.Writer
	header lipgloss.Style
	marker lipgloss.Style
	gutter lipgloss.Style
	bold   lipgloss.Style
}

// NewRenderer creates a renderer for w. With ColorAuto, colour is used only
// when w is a terminal.
func NewRenderer(w io.Writer, mode ColorMode) *Renderer {
	r := lipgloss.NewRenderer(w)
	switch {
	case mode == ColorNever, mode == ColorAuto && !isTerminal(w):
		r.SetColorProfile(termenv.Ascii)
	default:
		r.SetColorProfile(termenv.ANSI256)
	}
	return &Renderer{
		w:      w,
		header: r.NewStyle().Bold(true).Foreground(colorError),
		marker: r.NewStyle().Bold(true).Foreground(colorMarker),
		gutter: r.NewStyle().Foreground(colorMuted),
		bold:   r.NewStyle().Bold(true),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes every diagnostic, separated by blank lines.
func (r *Renderer) Render(diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(r.w, "\n"); err != nil {
				return err
			}
		}
		if err := r.RenderOne(d); err != nil {
			return err
		}
	}
	return nil
}

// RenderOne writes a single diagnostic.
func (r *Renderer) RenderOne(d Diagnostic) error {
	var b strings.Builder
	b.WriteString(r.header.Render("error") + r.bold.Render(": "+d.Header) + "\n")

	if d.Span == nil {
		fmt.Fprintf(&b, "  %s %s\n", r.gutter.Render("-->"), d.ID.Path())
		fmt.Fprintf(&b, "  %s %s\n", r.gutter.Render("="), d.Message)
		_, err := io.WriteString(r.w, b.String())
		return err
	}

	li := NewLineIndex(d.source)
	start := li.Position(int(d.Span.Start))
	end := li.Position(int(d.Span.End))
	num := strconv.Itoa(start.Line + 1)
	pad := strings.Repeat(" ", len(num))

	fmt.Fprintf(&b, "%s%s %s:%d:%d\n", pad, r.gutter.Render("-->"), d.ID.Path(), start.Line+1, start.Column+1)
	fmt.Fprintf(&b, "%s %s\n", pad, r.gutter.Render("|"))
	line := li.Line(start.Line)
	fmt.Fprintf(&b, "%s %s %s\n", r.gutter.Render(num), r.gutter.Render("|"), line)

	width := 1
	if end.Line == start.Line && end.Column > start.Column {
		width = end.Column - start.Column
	} else if end.Line > start.Line {
		width = max(1, len(line)-start.Column)
	}
	carets := strings.Repeat(" ", start.Column) + r.marker.Render(strings.Repeat("^", width)+" "+d.Message)
	fmt.Fprintf(&b, "%s %s %s\n", pad, r.gutter.Render("|"), carets)

	_, err := io.WriteString(r.w, b.String())
	return err
}
