// Package termprobe inspects the attached terminal: cell dimensions and
// truecolor capability.
package termprobe

import (
	"errors"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/user/termplay/pkg/ports"
)

// ErrNotATerminal is returned when stdout is not attached to a terminal.
var ErrNotATerminal = errors.New("termprobe: stdout is not a terminal")

// Probe reads the terminal's size and capabilities. Implements
// ports.TerminalProbe.
type Probe struct{}

// New creates a terminal probe.
func New() *Probe {
	return &Probe{}
}

// Probe returns the terminal dimensions and whether 24-bit color output is
// advertised.
func (p *Probe) Probe() (ports.TermInfo, error) {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return ports.TermInfo{}, ErrNotATerminal
	}

	cols, rows, err := term.GetSize(int(fd))
	if err != nil {
		return ports.TermInfo{}, err
	}

	return ports.TermInfo{
		Cols:      cols,
		Rows:      rows,
		Truecolor: truecolorSupported(),
	}, nil
}

// truecolorSupported checks the conventional environment signals for 24-bit
// color. Terminals that support it but advertise nothing still mostly render
// truecolor SGR correctly, so this is advisory.
func truecolorSupported() bool {
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return true
	}
	termEnv := os.Getenv("TERM")
	return strings.Contains(termEnv, "truecolor") || strings.Contains(termEnv, "24bit") ||
		strings.HasPrefix(termEnv, "xterm-kitty") || strings.HasPrefix(termEnv, "iterm")
}

// IsTerminal reports whether stdout is attached to a terminal at all.
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
