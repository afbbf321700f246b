// Package config loads projsync.yml (or .yaml/.toml) configuration.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are searched in order in every directory.
var configNames = []string{
	"projsync.yml",
	"projsync.yaml",
	"projsync.toml",
}

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks a format from a file extension, defaulting to YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads, validates and resolves a single configuration file. Relative
// project paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads configuration starting from the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get working directory")
	}
	return LoadFrom(cwd)
}

// LoadFrom merges the global configuration (XDG config dir) with the nearest
// project configuration found walking up from startDir. Project values win.
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.NewEntry(logrus.StandardLogger()))
}

// LoadFromWithLogger is LoadFrom with an explicit logger.
func LoadFromWithLogger(startDir string, logger *logrus.Entry) (*Config, error) {
	globalPath := findIn(paths.ConfigDir())

	var global *Config
	if globalPath != "" {
		logger.WithField("path", globalPath).Debug("Loading global config")
		cfg, err := parseFile(globalPath)
		if err != nil {
			return nil, err
		}
		global = cfg
	}

	projectPath := findUp(startDir)
	if projectPath == globalPath {
		projectPath = ""
	}

	var project *Config
	if projectPath != "" {
		logger.WithField("path", projectPath).Debug("Loading project config")
		cfg, err := parseFile(projectPath)
		if err != nil {
			return nil, err
		}
		project = cfg
	}

	var cfg *Config
	switch {
	case global == nil && project == nil:
		return nil, errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
	case global == nil:
		cfg = project
	case project == nil:
		cfg = global
	default:
		cfg = mergeConfigs(global, project)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromBytes parses configuration data without resolving relative paths.
func LoadFromBytes(data []byte, format Format) (*Config, error) {
	cfg, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches from startDir up to the filesystem root, then the
// XDG config directory.
func FindConfigFile(startDir string) (string, error) {
	if path := findUp(startDir); path != "" {
		return path, nil
	}
	if path := findIn(paths.ConfigDir()); path != "" {
		return path, nil
	}
	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

func findUp(startDir string) string {
	dir := startDir
	for {
		if path := findIn(dir); path != "" {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func findIn(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg, err := parse(data, FormatFor(path))
	if err != nil {
		if pe, ok := err.(*errors.ProjsyncError); ok {
			return nil, pe.WithDetail("path", path)
		}
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

func parse(data []byte, format Format) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	var (
		cfg Config
		doc map[string]interface{}
		err error
	)
	switch format {
	case FormatTOML:
		if err = toml.Unmarshal(expanded, &cfg); err == nil {
			err = toml.Unmarshal(expanded, &doc)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		cfg.Extensions = extensionsOf(doc)
	default:
		if err = yaml.Unmarshal(expanded, &cfg); err == nil {
			err = yaml.Unmarshal(expanded, &doc)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
	}

	if doc == nil {
		doc = map[string]interface{}{}
	}
	if err := validateDocument(doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}
	return &cfg, nil
}

// extensionsOf returns the top-level sections Config has no field for.
func extensionsOf(doc map[string]interface{}) map[string]interface{} {
	var ext map[string]interface{}
	for k, v := range doc {
		switch k {
		case "version", "projects", "ignore", "cloud", "daemon":
			continue
		}
		if ext == nil {
			ext = make(map[string]interface{})
		}
		ext[k] = v
	}
	return ext
}

// resolvePaths makes relative project and index paths absolute against base.
func (c *Config) resolvePaths(base string) {
	for i := range c.Projects {
		c.Projects[i].Path = resolvePath(base, c.Projects[i].Path)
	}
	if c.Daemon.Index != "" {
		c.Daemon.Index = resolvePath(base, c.Daemon.Index)
	}
	if src := c.Cloud.Source; src != "" && !strings.Contains(src, "://") {
		c.Cloud.Source = resolvePath(base, src)
	}
}

func resolvePath(base, p string) string {
	p = expandHome(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}

// mergeConfigs overlays override onto base. Projects with the same id are
// replaced; ignore patterns accumulate.
func mergeConfigs(base, override *Config) *Config {
	out := *base

	out.Projects = append([]ProjectConfig(nil), base.Projects...)
	for _, p := range override.Projects {
		replaced := false
		for i := range out.Projects {
			if out.Projects[i].ID == p.ID {
				out.Projects[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			out.Projects = append(out.Projects, p)
		}
	}

	out.Ignore = append(append([]string(nil), base.Ignore...), override.Ignore...)

	if override.Version != "" {
		out.Version = override.Version
	}
	if override.Cloud.Source != "" {
		out.Cloud.Source = override.Cloud.Source
	}
	if override.Daemon.ScanInterval != "" {
		out.Daemon.ScanInterval = override.Daemon.ScanInterval
	}
	if override.Daemon.DebounceMs != 0 {
		out.Daemon.DebounceMs = override.Daemon.DebounceMs
	}
	if override.Daemon.HashWorkers != 0 {
		out.Daemon.HashWorkers = override.Daemon.HashWorkers
	}
	if override.Daemon.Index != "" {
		out.Daemon.Index = override.Daemon.Index
	}

	if len(base.Extensions) > 0 || len(override.Extensions) > 0 {
		out.Extensions = make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for k, v := range base.Extensions {
			out.Extensions[k] = v
		}
		for k, v := range override.Extensions {
			out.Extensions[k] = v
		}
	}
	return &out
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}
