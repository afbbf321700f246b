package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true)
)

// Console prints styled messages meant for a person reading command output.
// Unlike the structured loggers it is never filtered by level.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Success(msg string) {
	fmt.Fprintln(c.w, successStyle.Render("✓ "+msg))
}

func (c *Console) Info(msg string) {
	fmt.Fprintln(c.w, infoStyle.Render(msg))
}

func (c *Console) Warn(msg string) {
	fmt.Fprintln(c.w, warnStyle.Render("⚠ "+msg))
}

// Error prints msg followed by err when err is non-nil.
func (c *Console) Error(msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	fmt.Fprintln(c.w, errorStyle.Render("✗ "+msg))
}

func (c *Console) Field(key string, value interface{}) {
	fmt.Fprintf(c.w, "%s: %s\n", keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
}

func (c *Console) Path(label, path string) {
	fmt.Fprintf(c.w, "%s: %s\n", keyStyle.Render(label), pathStyle.Render(path))
}
