package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Paint formats and colors a value
type Paint func(format string, a ...interface{}) string

// ColorScheme holds the paints used by the table formatter
type ColorScheme struct {
	Worker   Paint
	Header   Paint
	Duration Paint

	// statuses maps a task status to its paint; unknown statuses are left plain
	statuses map[Status]Paint
	plain    Paint

	// Disabled is true when output is not a terminal or colors were turned off
	Disabled bool
}

// NewColorScheme creates a color scheme for w.
// Colors are disabled for non-TTY writers or when noColor is true.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	plain := color.New().Sprintf

	if noColor || !isTTY(w) {
		return &ColorScheme{
			Worker:   plain,
			Header:   plain,
			Duration: plain,
			plain:    plain,
			Disabled: true,
		}
	}

	return &ColorScheme{
		Worker:   color.New(color.FgCyan, color.Bold).Sprintf,
		Header:   color.New(color.FgWhite, color.Bold).Sprintf,
		Duration: color.New(color.FgBlue).Sprintf,
		statuses: map[Status]Paint{
			StatusSucceeded: color.New(color.FgGreen).Sprintf,
			StatusFailed:    color.New(color.FgRed, color.Bold).Sprintf,
			StatusTimedOut:  color.New(color.FgYellow).Sprintf,
		},
		plain: plain,
	}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ForStatus returns the paint for a task status
func (cs *ColorScheme) ForStatus(s Status) Paint {
	if p, ok := cs.statuses[s]; ok {
		return p
	}
	return cs.plain
}

// Succeeded, Failed and Warning are shorthands for the summary line
func (cs *ColorScheme) Succeeded(format string, a ...interface{}) string {
	return cs.ForStatus(StatusSucceeded)(format, a...)
}

func (cs *ColorScheme) Failed(format string, a ...interface{}) string {
	return cs.ForStatus(StatusFailed)(format, a...)
}

func (cs *ColorScheme) Warning(format string, a ...interface{}) string {
	return cs.ForStatus(StatusTimedOut)(format, a...)
}
