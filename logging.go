package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	colorError   = lipgloss.Color("#EF4444")
	colorSuccess = lipgloss.Color("#10B981")
	colorMuted   = lipgloss.Color("#6B7280")

	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "docgen",
		Level:  lvl,
	}), nil
}

// reportDiagnostics logs every diagnostic and prints a one-line summary.
func reportDiagnostics(logger *log.Logger, w io.Writer, diags []diagnostic) {
	for _, d := range diags {
		logger.Warn(d.String(), "kind", string(d.kind))
	}
	if len(diags) == 0 {
		fmt.Fprintln(w, successStyle.Render("done, no diagnostics"))
		return
	}
	noun := "diagnostics"
	if len(diags) == 1 {
		noun = "diagnostic"
	}
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("done, %d %s", len(diags), noun)))
}
