package config

import (
	"fmt"
	"time"

	"github.com/grovetools/projsync/pkg/inventory"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/mitchellh/mapstructure"
)

// Config represents a projsync.yml configuration.
type Config struct {
	Version  string          `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Projects []ProjectConfig `json:"projects,omitempty" yaml:"projects,omitempty" toml:"projects,omitempty"`
	// Ignore lists extra patterns excluded from inventory scans.
	Ignore []string     `json:"ignore,omitempty" yaml:"ignore,omitempty" toml:"ignore,omitempty"`
	Cloud  CloudConfig  `json:"cloud,omitempty" yaml:"cloud,omitempty" toml:"cloud,omitempty"`
	Daemon DaemonConfig `json:"daemon,omitempty" yaml:"daemon,omitempty" toml:"daemon,omitempty"`

	// Extensions captures any other top-level sections, such as "logging".
	Extensions map[string]interface{} `json:"extensions,omitempty" yaml:",inline" toml:"-"`
}

// ProjectConfig binds a local directory to a cloud project id.
type ProjectConfig struct {
	ID   int64  `json:"id" yaml:"id" toml:"id" jsonschema:"minimum=1,description=Cloud project id"`
	Path string `json:"path" yaml:"path" toml:"path" jsonschema:"minLength=1,description=Local project root"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty" jsonschema:"description=Display name (defaults to the directory name)"`
}

// CloudConfig selects where cloud project metadata comes from.
type CloudConfig struct {
	// Source is an http(s) URL or a .json/.yaml/.toml export file.
	Source string `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty" jsonschema:"description=URL or file holding the cloud project list"`
}

// DaemonConfig tunes the background inventory daemon.
type DaemonConfig struct {
	ScanInterval string `json:"scan_interval,omitempty" yaml:"scan_interval,omitempty" toml:"scan_interval,omitempty" jsonschema:"description=Full rescan interval (Go duration)"`
	DebounceMs   int    `json:"debounce_ms,omitempty" yaml:"debounce_ms,omitempty" toml:"debounce_ms,omitempty" jsonschema:"minimum=0"`
	HashWorkers  int    `json:"hash_workers,omitempty" yaml:"hash_workers,omitempty" toml:"hash_workers,omitempty" jsonschema:"minimum=0"`
	// Index is the path of the persistent hash index database.
	Index string `json:"index,omitempty" yaml:"index,omitempty" toml:"index,omitempty"`
}

const (
	defaultVersion      = "1.0"
	defaultScanInterval = "30s"
	defaultDebounceMs   = 200
	defaultHashWorkers  = 4
)

// SetDefaults fills in unset values.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = defaultVersion
	}
	if c.Daemon.ScanInterval == "" {
		c.Daemon.ScanInterval = defaultScanInterval
	}
	if c.Daemon.DebounceMs == 0 {
		c.Daemon.DebounceMs = defaultDebounceMs
	}
	if c.Daemon.HashWorkers == 0 {
		c.Daemon.HashWorkers = defaultHashWorkers
	}
}

// Interval returns the parsed daemon rescan interval.
func (d DaemonConfig) Interval() time.Duration {
	v, err := time.ParseDuration(d.ScanInterval)
	if err != nil {
		v, _ = time.ParseDuration(defaultScanInterval)
	}
	return v
}

// Debounce returns the filesystem event debounce window.
func (d DaemonConfig) Debounce() time.Duration {
	return time.Duration(d.DebounceMs) * time.Millisecond
}

// InventoryProjects converts the configured projects for the scanner.
func (c *Config) InventoryProjects() []inventory.Project {
	projects := make([]inventory.Project, 0, len(c.Projects))
	for _, p := range c.Projects {
		projects = append(projects, inventory.Project{
			ID:   models.ProjectID(p.ID),
			Root: p.Path,
			Name: p.Name,
		})
	}
	return projects
}

// UnmarshalExtension decodes a custom top-level section into target.
// A missing key leaves target untouched.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}
	return nil
}
