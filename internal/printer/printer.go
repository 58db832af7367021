// Package printer writes human-readable status output for the codeloop CLI.
package printer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hay-kot/criterio"
)

// ANSI color codes
const (
	ColorReset = "\033[0m"
	ColorRed   = "\033[38;2;215;95;107m"
	ColorGreen = "\033[38;2;158;206;106m"
	ColorGray  = "\033[38;2;86;95;137m"
	ColorBold  = "\033[1m"
)

// Symbols
const (
	Check = "✔"
	Cross = "✘"
	Dot   = "•"
)

// Printer handles formatted output with optional colors.
type Printer struct {
	writer io.Writer
	color  bool
}

// New creates a Printer. Colors are emitted only when color is true.
func New(w io.Writer, color bool) *Printer {
	return &Printer{writer: w, color: color}
}

// FatalError prints a formatted error box. The caller decides the exit code.
func (p *Printer) FatalError(err error) {
	if err == nil {
		return
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		p.validationErrors(err, fieldErrs)
		return
	}

	p.box("Error", []string{p.colorize(ColorGray, err.Error())})
}

// validationErrors lists each criterio field error on its own line.
func (p *Printer) validationErrors(wrapped error, fieldErrs criterio.FieldErrors) {
	var lines []string

	// prefix such as "load config: invalid config"
	if idx := strings.Index(wrapped.Error(), fieldErrs.Error()); idx > 0 {
		lines = append(lines, p.colorize(ColorGray, strings.TrimSuffix(wrapped.Error()[:idx], ": ")), "")
	}

	for _, fe := range fieldErrs {
		line := p.colorize(ColorRed, Cross) + " "
		if fe.Field != "" {
			line += p.colorize(ColorGray, fe.Field+": ")
		}
		lines = append(lines, line+fe.Err.Error())
	}

	p.box("Validation Error", lines)
}

func (p *Printer) box(title string, lines []string) {
	var b strings.Builder
	b.WriteString(p.colorize(ColorRed, "╭ "+title) + "\n")
	for _, line := range lines {
		b.WriteString(p.colorize(ColorRed, "│"))
		if line != "" {
			b.WriteString(" " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(p.colorize(ColorRed, "╵") + "\n")
	_, _ = io.WriteString(p.writer, b.String())
}

// Successf prints a success message in green.
func (p *Printer) Successf(format string, args ...any) {
	p.line(ColorGreen, Check, fmt.Sprintf(format, args...))
}

// Errorf prints an error message in red.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(ColorRed, Cross, fmt.Sprintf(format, args...))
}

// Infof prints an info message in gray.
func (p *Printer) Infof(format string, args ...any) {
	p.line(ColorGray, Dot, fmt.Sprintf(format, args...))
}

// Section prints a bold header.
func (p *Printer) Section(title string) {
	_, _ = io.WriteString(p.writer, p.colorize(ColorBold, title)+"\n")
}

// Item prints an indented label/value pair.
func (p *Printer) Item(label string, value any) {
	_, _ = fmt.Fprintf(p.writer, "  %s %v\n", p.colorize(ColorGray, label+":"), value)
}

func (p *Printer) line(color, symbol, msg string) {
	_, _ = io.WriteString(p.writer, p.colorize(color, symbol+" "+msg)+"\n")
}

// colorize applies ANSI color codes to text
func (p *Printer) colorize(color, text string) string {
	if !p.color {
		return text
	}
	return color + text + ColorReset
}
