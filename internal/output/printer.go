// Package output formats jobctl's terminal output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hireloop/hireloop-web/internal/model"
)

// ColorMode selects when output is colored.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses auto, always or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
}

// Printer writes messages to stdout and diagnostics to stderr.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a Printer. ColorAuto follows fatih/color's terminal detection,
// which honours NO_COLOR.
func NewPrinter(out, errOut io.Writer, mode ColorMode) *Printer {
	useColors := mode == ColorAlways || (mode == ColorAuto && !color.NoColor)
	return &Printer{out: out, err: errOut, useColors: useColors}
}

// Out returns the stdout writer, for tables.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Info prints an informational message.
func (p *Printer) Info(format string, args ...any) {
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...any) {
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
}

// Warning prints a warning to stderr.
func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Print prints a plain line.
func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Header prints a section title.
func (p *Printer) Header(title string) {
	underline := strings.Repeat("-", len(title))
	if p.useColors {
		color.New(color.Bold).Fprintf(p.out, "\n%s\n", title)
		fmt.Fprintln(p.out, underline)
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, underline)
}

// Bold returns text in bold.
func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

// Status renders an application status, colored by outcome.
func (p *Printer) Status(s model.ApplicationStatus) string {
	if !p.useColors {
		return string(s)
	}
	switch s {
	case model.StatusHired, model.StatusShortlisted:
		return color.GreenString(string(s))
	case model.StatusRejected:
		return color.RedString(string(s))
	case model.StatusReviewed:
		return color.YellowString(string(s))
	}
	return string(s)
}

// Unread marks an unread notification.
func (p *Printer) Unread(read bool) string {
	if read {
		return ""
	}
	if p.useColors {
		return color.CyanString("●")
	}
	return "*"
}
