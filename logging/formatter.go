package logging

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

var componentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)

// TextFormatter renders "time [LEVEL] [component] message key=value ...".
type TextFormatter struct {
	Config FormatConfig
}

func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	parts := make([]string, 0, 4+len(entry.Data))

	if !f.Config.DisableTimestamp {
		parts = append(parts, entry.Time.Format("2006-01-02 15:04:05"))
	}
	parts = append(parts, "["+levelLabel(entry.Level)+"]")

	if component, ok := entry.Data["component"]; ok && !f.Config.DisableComponent {
		parts = append(parts, "["+componentStyle.Render(fmt.Sprint(component))+"]")
	}
	if entry.HasCaller() {
		parts = append(parts, fmt.Sprintf("[%s:%d %s]",
			filepath.Base(entry.Caller.File), entry.Caller.Line, filepath.Base(entry.Caller.Function)))
	}

	parts = append(parts, entry.Message)
	parts = append(parts, sortedFields(entry.Data)...)

	return []byte(strings.Join(parts, " ") + "\n"), nil
}

func levelLabel(level logrus.Level) string {
	if level == logrus.WarnLevel {
		return "WARN"
	}
	return strings.ToUpper(level.String())
}

// sortedFields formats every field except component as key=value, by key.
func sortedFields(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		if key != "component" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	fields := make([]string, len(keys))
	for i, key := range keys {
		fields[i] = fmt.Sprintf("%s=%v", key, data[key])
	}
	return fields
}
