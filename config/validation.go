package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/grovetools/projsync/errors"
	"github.com/moby/patternmatcher"
)

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	seen := make(map[int64]string, len(c.Projects))
	for i, p := range c.Projects {
		if p.ID <= 0 {
			return errors.ConfigInvalid(fmt.Sprintf("projects[%d]: id must be positive", i)).
				WithDetail("id", p.ID)
		}
		if strings.TrimSpace(p.Path) == "" {
			return errors.ConfigInvalid(fmt.Sprintf("projects[%d]: path is required", i)).
				WithDetail("id", p.ID)
		}
		if prev, dup := seen[p.ID]; dup {
			return errors.ConfigInvalid(fmt.Sprintf("project id %d is bound to both %s and %s", p.ID, prev, p.Path)).
				WithDetail("id", p.ID)
		}
		seen[p.ID] = p.Path
	}

	if _, err := patternmatcher.New(c.Ignore); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid ignore pattern")
	}

	if err := validateDaemon(&c.Daemon); err != nil {
		return err
	}
	return nil
}

func validateDaemon(d *DaemonConfig) error {
	if d.ScanInterval != "" {
		v, err := time.ParseDuration(d.ScanInterval)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "daemon.scan_interval is not a duration").
				WithDetail("scan_interval", d.ScanInterval)
		}
		if v <= 0 {
			return errors.ConfigInvalid("daemon.scan_interval must be positive").
				WithDetail("scan_interval", d.ScanInterval)
		}
	}
	if d.DebounceMs < 0 {
		return errors.ConfigInvalid("daemon.debounce_ms cannot be negative")
	}
	if d.HashWorkers < 0 {
		return errors.ConfigInvalid("daemon.hash_workers cannot be negative")
	}
	return nil
}
