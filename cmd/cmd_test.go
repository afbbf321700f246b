package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/projsync/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workspace creates a config with one local project (id 1) and a cloud export
// that knows projects 1 and 3, then makes it the working directory.
func workspace(t *testing.T) string {
	t.Helper()
	t.Setenv("PROJSYNC_HOME", t.TempDir())
	t.Setenv("PROJSYNC_LOG_LEVEL", "error")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "proj", "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proj", "readme.md"), []byte("# hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proj", "docs", "guide.md"), []byte("guide"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cloud.json"), []byte(`[
  {"id": 1, "name": "Alpha", "created_at": "2024-01-01T00:00:00Z"},
  {"id": 3, "name": "Gamma", "created_at": "2024-02-01T00:00:00Z"}
]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "projsync.yml"), []byte(`
projects:
  - id: 1
    path: ./proj
cloud:
  source: cloud.json
`), 0644))

	t.Chdir(dir)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeView(t *testing.T, out string) map[string]interface{} {
	t.Helper()
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestSelectShowClear(t *testing.T) {
	workspace(t)

	out, err := run(t, "show", "--json")
	require.NoError(t, err)
	assert.Equal(t, "not_selected", decodeView(t, out)["state"])

	out, err = run(t, "select", "1", "--json")
	require.NoError(t, err)
	v := decodeView(t, out)
	assert.Equal(t, "available", v["state"])
	project := v["project"].(map[string]interface{})
	assert.Equal(t, "Alpha", project["metadata"].(map[string]interface{})["name"])
	local := project["local_files"].(map[string]interface{})
	assert.Contains(t, local, "/readme.md")
	assert.Contains(t, local, "/docs/guide.md")

	// The selection survives into a new invocation.
	out, err = run(t, "show", "--json")
	require.NoError(t, err)
	assert.Equal(t, "available", decodeView(t, out)["state"])

	out, err = run(t, "clear", "--json")
	require.NoError(t, err)
	assert.Equal(t, "not_selected", decodeView(t, out)["state"])

	out, err = run(t, "show", "--json")
	require.NoError(t, err)
	assert.Equal(t, "not_selected", decodeView(t, out)["state"])
}

func TestSelectUnavailable(t *testing.T) {
	workspace(t)

	tests := []struct {
		id       string
		hasCloud bool
		hasLocal bool
	}{
		{id: "3", hasCloud: true},
		{id: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			out, err := run(t, "select", tt.id, "--json")
			require.NoError(t, err)
			v := decodeView(t, out)
			assert.Equal(t, "unavailable", v["state"])
			assert.Equal(t, tt.hasCloud, v["has_cloud"])
			assert.Equal(t, tt.hasLocal, v["has_local"])
			assert.NotContains(t, v, "project")
		})
	}
}

func TestSelectRejectsBadID(t *testing.T) {
	workspace(t)

	for _, arg := range []string{"abc", "0", "-4"} {
		_, err := run(t, "select", "--", arg)
		require.Error(t, err, arg)
		assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err), arg)
	}
}

func TestFiles(t *testing.T) {
	workspace(t)

	out, err := run(t, "files", "--json")
	require.NoError(t, err)
	var summaries []projectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, projectSummary{ID: 1, Files: 2}, summaries[0])

	out, err = run(t, "files", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "/docs/guide.md")
	assert.Contains(t, out, "/readme.md")

	_, err = run(t, "files", "9")
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetCode(err))
}

func TestMissingConfig(t *testing.T) {
	t.Setenv("PROJSYNC_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := run(t, "show")
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
}

func TestDaemonStatusStopped(t *testing.T) {
	workspace(t)

	out, err := run(t, "daemon", "status", "--json")
	assert.Equal(t, errors.ErrCodeDaemonNotRunning, errors.GetCode(err))
	var status daemonStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Running)

	_, err = run(t, "daemon", "stop")
	assert.Equal(t, errors.ErrCodeDaemonNotRunning, errors.GetCode(err))
}

func TestPathsAndConfig(t *testing.T) {
	dir := workspace(t)
	home := os.Getenv("PROJSYNC_HOME")

	out, err := run(t, "paths")
	require.NoError(t, err)
	var p PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, filepath.Join(home, "config"), p.ConfigDir)
	assert.Equal(t, filepath.Join(home, "run", "projsyncd.sock"), p.Socket)

	out, err = run(t, "config", "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "proj"))

	out, err = run(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"projects"`)

	out, err = run(t, "config", "schema", "logging")
	require.NoError(t, err)
	assert.Contains(t, out, `"report_caller"`)

	_, err = run(t, "config", "schema", "nope")
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}
