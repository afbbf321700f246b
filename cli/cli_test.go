package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/grovetools/projsync/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerHints(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config not found", errors.ConfigNotFound("/work"), "Create a projsync.yml"},
		{"config invalid", errors.ConfigInvalid("bad id"), "Fix projsync.yml"},
		{"provider", errors.ProviderUnavailable("local", fmt.Errorf("boom")), "project paths exist"},
		{"malformed", errors.MalformedResponse("daemon", fmt.Errorf("boom")), "invalid inventory"},
		{"cloud", errors.CloudFetchFailed("https://cloud", fmt.Errorf("boom")), "https://cloud"},
		{"daemon running", errors.DaemonRunning(42), "daemon stop"},
		{"daemon not running", errors.DaemonNotRunning("/tmp/s.sock"), "daemon start"},
		{"not found", errors.ProjectNotFound(9), "projsync files"},
		{"plain", fmt.Errorf("plain failure"), "Error: plain failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &ErrorHandler{Out: &buf}
			got := h.Handle(tt.err)
			assert.Equal(t, tt.err, got)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var buf bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &buf}
	_ = h.Handle(errors.ProjectNotFound(9))
	assert.Contains(t, buf.String(), `"code": "NOT_FOUND"`)

	assert.NoError(t, h.Handle(nil))
}

func TestStandardCommandFlags(t *testing.T) {
	root := NewStandardCommand("projsync", "test root")
	var got CommandOptions
	root.AddCommand(&cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			got = GetOptions(cmd)
			return nil
		},
	})

	root.SetArgs([]string{"probe", "--json", "-v", "--config", "/etc/projsync.yml"})
	require.NoError(t, root.Execute())

	assert.Equal(t, CommandOptions{ConfigFile: "/etc/projsync.yml", Verbose: true, JSONOutput: true}, got)
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("projsync", "Keep projects in sync")
	root.AddCommand(&cobra.Command{Use: "files", Short: "List local files", Run: func(*cobra.Command, []string) {}})
	root.Example = "# list files\nprojsync files --json"
	ApplyStyledHelpRecursive(root)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())

	out := buf.String()
	for _, want := range []string{"PROJSYNC", "Keep projects in sync", "COMMANDS", "files", "List local files", "EXAMPLES", "--json"} {
		assert.Contains(t, out, want)
	}
}

func TestWrapText(t *testing.T) {
	wrapped := wrapText("one two three four five six", 10)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 10)
	}
	assert.Equal(t, "keep\nbreaks", wrapText("keep\nbreaks", 10))
}

func TestParseDescription(t *testing.T) {
	desc, ex := parseDescription("Does things.\nExamples:\n  projsync show 1")
	assert.Equal(t, "Does things.", desc)
	assert.Equal(t, "projsync show 1", ex)
}

func TestVersionCommandJSON(t *testing.T) {
	root := NewStandardCommand("projsync", "root")
	root.AddCommand(NewVersionCommand("projsync"))

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "goVersion")
}
