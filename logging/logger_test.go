package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerIsCachedPerComponent(t *testing.T) {
	a := NewLogger("test-cached")
	b := NewLogger("test-cached")
	if a != b {
		t.Error("expected the same entry for the same component")
	}
	if a.Data["component"] != "test-cached" {
		t.Errorf("expected component field 'test-cached', got %v", a.Data["component"])
	}
	if NewLogger("test-other") == a {
		t.Error("expected a different entry for another component")
	}
}

func TestTextFormatter(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		config  FormatConfig
		level   logrus.Level
		want    []string
		notWant []string
	}{
		{
			name:   "default",
			level:  logrus.InfoLevel,
			want:   []string{"2024-03-01 12:30:00", "[INFO]", "svc", "hello", "files=3", "project=7"},
			config: FormatConfig{},
		},
		{
			name:    "no timestamp or component",
			config:  FormatConfig{DisableTimestamp: true, DisableComponent: true},
			level:   logrus.WarnLevel,
			want:    []string{"[WARN]", "hello"},
			notWant: []string{"2024-03-01", "svc", "component="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &logrus.Entry{
				Logger:  logrus.New(),
				Time:    ts,
				Level:   tt.level,
				Message: "hello",
				Data:    logrus.Fields{"component": "svc", "project": 7, "files": 3},
			}
			out, err := (&TextFormatter{Config: tt.config}).Format(entry)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			line := string(out)
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("expected %q in %q", w, line)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(line, nw) {
					t.Errorf("did not expect %q in %q", nw, line)
				}
			}
			if !strings.HasSuffix(line, "\n") {
				t.Error("expected trailing newline")
			}
			if strings.Index(line, "files=3") > strings.Index(line, "project=7") {
				t.Error("expected fields in sorted order")
			}
		})
	}
}

func TestNewLoggerLevelFromEnv(t *testing.T) {
	t.Setenv("PROJSYNC_LOG_LEVEL", "debug")
	logger := newLogger("env", Config{Level: "error"})
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected env to win, got %v", logger.GetLevel())
	}

	t.Setenv("PROJSYNC_LOG_LEVEL", "")
	logger = newLogger("cfg", Config{Level: "error"})
	if logger.GetLevel() != logrus.ErrorLevel {
		t.Errorf("expected config level, got %v", logger.GetLevel())
	}

	logger = newLogger("bad", Config{Level: "loud"})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info fallback, got %v", logger.GetLevel())
	}
}

func TestNewLoggerJSONPresetToGlobalOutput(t *testing.T) {
	t.Setenv("PROJSYNC_LOG_LEVEL", "")
	var buf bytes.Buffer
	SetGlobalOutput(&buf)
	defer SetGlobalOutput(os.Stderr)

	logger := newLogger("json", Config{Format: FormatConfig{Preset: "json", StructuredToStderr: "always"}})
	logger.WithField("component", "json").Info("structured")

	if !strings.Contains(buf.String(), `"msg":"structured"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestNewLoggerNeverToStderr(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalOutput(&buf)
	defer SetGlobalOutput(os.Stderr)

	logger := newLogger("quiet", Config{Format: FormatConfig{StructuredToStderr: "never"}})
	logger.Error("dropped")

	if buf.Len() != 0 {
		t.Errorf("expected no console output, got %q", buf.String())
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "daemon.log")
	logger := newLogger("daemon", Config{
		File:   FileSinkConfig{Enabled: true, Path: path},
		Format: FormatConfig{StructuredToStderr: "never"},
	})
	logger.WithField("component", "daemon").Info("to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("expected message in log file, got %q", string(data))
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Success("selected")
	c.Field("project", 7)
	c.Path("socket", "/run/projsync.sock")
	c.Error("failed", os.ErrNotExist)

	out := buf.String()
	for _, want := range []string{"selected", "project", "7", "/run/projsync.sock", "failed", os.ErrNotExist.Error()} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	if err != nil {
		t.Fatalf("GenerateSchema() error = %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	props, ok := doc["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected properties in schema, got %v", doc)
	}
	for _, key := range []string{"level", "report_caller", "file", "format"} {
		if _, ok := props[key]; !ok {
			t.Errorf("expected property %q", key)
		}
	}
}
