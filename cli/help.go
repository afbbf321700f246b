package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	helpMaxWidth = 72
	helpMinWidth = 40
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	sectionStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("208"))
	commandStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	argStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	flagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	shortStyle   = lipgloss.NewStyle().Italic(true)
)

var exampleMarkers = []string{"\nExamples:\n", "\nExample:\n"}

func helpWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	switch {
	case err != nil || width < helpMinWidth:
		return helpMinWidth
	case width > helpMaxWidth:
		return helpMaxWidth
	}
	return width
}

// wrapText wraps each line of text at width, keeping existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = helpMaxWidth
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, paragraph := range lines {
		var line strings.Builder
		for _, word := range strings.Fields(paragraph) {
			if line.Len() > 0 && line.Len()+1+len(word) > width {
				out = append(out, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(word)
		}
		out = append(out, line.String())
	}
	return strings.Join(out, "\n")
}

// SetStyledHelp replaces cobra's help output for cmd.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// ApplyStyledHelpRecursive sets styled help on cmd and every subcommand
// already attached to it.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	SetStyledHelp(cmd)
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

// parseDescription splits a Long text at its "Examples:" heading.
func parseDescription(long string) (description, examples string) {
	for _, marker := range exampleMarkers {
		if before, after, ok := strings.Cut(long, marker); ok {
			return strings.TrimSpace(before), strings.TrimSpace(after)
		}
	}
	return long, ""
}

// styleCommandLine colours the binary, subcommand and flags of an example.
func styleCommandLine(line, root string) string {
	parts := strings.Fields(line)
	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, "-"):
			parts[i] = flagStyle.Render(part)
		case i == 0 && part == root:
			parts[i] = commandStyle.Render(part)
		case i == 1:
			parts[i] = argStyle.Render(part)
		}
	}
	return "  " + strings.Join(parts, " ")
}

func renderExamples(w io.Writer, examples, cmdPath string) {
	root, _, _ := strings.Cut(cmdPath, " ")
	for _, line := range strings.Split(examples, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			fmt.Fprintln(w)
		case strings.HasPrefix(line, "#"):
			fmt.Fprintln(w, " "+mutedStyle.Render(line))
		default:
			fmt.Fprintln(w, " "+styleCommandLine(line, root))
		}
	}
}

// renderColumns prints name/description pairs with the names padded to the
// widest one.
func renderColumns(w io.Writer, title string, rows [][2]string, nameStyle lipgloss.Style) {
	if len(rows) == 0 {
		return
	}
	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row[0]))
	}
	fmt.Fprintln(w, "\n "+sectionStyle.Render(title))
	for _, row := range rows {
		fmt.Fprintf(w, " %s  %s\n", nameStyle.Width(width).Render(row[0]), row[1])
	}
}

func styledHelpFunc(cmd *cobra.Command, args []string) {
	w := cmd.OutOrStdout()
	width := helpWidth() - 2

	fmt.Fprintln(w, " "+titleStyle.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := parseDescription(cmd.Long)
	if cmd.Short != "" {
		for _, line := range strings.Split(wrapText(cmd.Short, width), "\n") {
			fmt.Fprintln(w, " "+shortStyle.Render(line))
		}
	}
	if description != "" && description != cmd.Short {
		fmt.Fprintln(w)
		for _, line := range strings.Split(wrapText(description, width), "\n") {
			fmt.Fprintln(w, " "+line)
		}
	}

	fmt.Fprintln(w, "\n "+sectionStyle.Render("USAGE"))
	if cmd.Runnable() {
		fmt.Fprintln(w, " "+cmd.UseLine())
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(w, " "+cmd.CommandPath()+" [command]")
	}

	var commands [][2]string
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			commands = append(commands, [2]string{sub.Name(), sub.Short})
		}
	}
	renderColumns(w, "COMMANDS", commands, commandStyle)

	var flags [][2]string
	visit := func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		usage := f.Usage
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" && f.DefValue != "0" {
			usage += mutedStyle.Render(" (default: " + f.DefValue + ")")
		}
		flags = append(flags, [2]string{formatFlagName(f), usage})
	}
	cmd.LocalFlags().VisitAll(visit)
	renderColumns(w, "FLAGS", flags, flagStyle)

	flags = nil
	cmd.InheritedFlags().VisitAll(visit)
	renderColumns(w, "GLOBAL FLAGS", flags, flagStyle)

	if cmd.Example != "" {
		examples = cmd.Example
	}
	if examples != "" {
		fmt.Fprintln(w, "\n "+sectionStyle.Render("EXAMPLES"))
		renderExamples(w, examples, cmd.CommandPath())
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n Use %q for more information.\n", cmd.CommandPath()+" [command] --help")
	}
}

// formatFlagName returns "-f, --flag" or "    --flag".
func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return "-" + f.Shorthand + ", --" + f.Name
	}
	return "    --" + f.Name
}
