// Package logging provides per-component logrus loggers configured from the
// "logging" section of projsync.yml and PROJSYNC_LOG_* environment variables.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/projsync/config"
	"github.com/grovetools/projsync/pkg/paths"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger returns the logger for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	var logCfg Config
	if cfg, err := config.LoadDefault(); err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}

	entry := newLogger(component, logCfg).WithField("component", component)
	loggers[component] = entry
	return entry
}

// SetLevel changes the level of every logger created so far.
func SetLevel(level logrus.Level) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, entry := range loggers {
		entry.Logger.SetLevel(level)
	}
}

// newLogger builds a logger from logCfg and the environment.
func newLogger(component string, logCfg Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(resolveLevel(logCfg.Level))
	logger.SetReportCaller(os.Getenv("PROJSYNC_LOG_CALLER") == "true" || logCfg.ReportCaller)
	logger.SetFormatter(formatterFor(logCfg.Format))

	var writers []io.Writer
	if w := openFileSink(component, logCfg.File); w != nil {
		writers = append(writers, w)
	}
	if logToStderr(logCfg.Format.StructuredToStderr, logger.GetLevel()) {
		writers = append(writers, GetGlobalOutput())
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
	return logger
}

// resolveLevel prefers PROJSYNC_LOG_LEVEL over the configured level. Unknown
// names fall back to info.
func resolveLevel(configured string) logrus.Level {
	name := os.Getenv("PROJSYNC_LOG_LEVEL")
	if name == "" {
		name = configured
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func formatterFor(format FormatConfig) logrus.Formatter {
	switch format.Preset {
	case "json":
		return &logrus.JSONFormatter{}
	case "simple":
		return &TextFormatter{Config: FormatConfig{DisableTimestamp: true, DisableComponent: true}}
	default:
		return &TextFormatter{Config: format}
	}
}

// logToStderr decides whether structured logs reach the console. In "auto"
// mode they do when debugging or when stderr is not a terminal.
func logToStderr(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	isDebug := os.Getenv("PROJSYNC_DEBUG") == "1" || level >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return isDebug || !isInteractive
}

func openFileSink(component string, cfg FileSinkConfig) io.Writer {
	if !cfg.Enabled {
		return nil
	}

	path := expandPath(cfg.Path)
	if path == "" {
		dir := paths.StateDir()
		if dir == "" {
			return nil
		}
		path = filepath.Join(dir, "logs", fmt.Sprintf("%s-%s.log", component, time.Now().Format("2006-01-02")))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logrus.Warnf("Failed to create log directory %s: %v", filepath.Dir(path), err)
		return nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logrus.Warnf("Failed to open log file %s: %v", path, err)
		return nil
	}
	return file
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
