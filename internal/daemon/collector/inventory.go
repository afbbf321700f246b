package collector

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/projsync/internal/daemon/store"
	"github.com/grovetools/projsync/pkg/inventory"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/sirupsen/logrus"
)

// ScanObserver is told about every scan the collector runs.
type ScanObserver func(kind string, duration time.Duration, err error)

// InventoryCollector keeps the inventory current. It rescans everything on an
// interval and rescans single projects shortly after filesystem events.
type InventoryCollector struct {
	scanner  *inventory.Scanner
	projects []inventory.Project
	interval time.Duration
	debounce time.Duration
	logger   *logrus.Entry
	observe  ScanObserver
}

// InventoryOption configures an InventoryCollector.
type InventoryOption func(*InventoryCollector)

// WithInterval sets the full rescan interval. Zero keeps the default.
func WithInterval(d time.Duration) InventoryOption {
	return func(c *InventoryCollector) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithDebounce sets how long the collector waits for filesystem events to
// settle before rescanning. Zero keeps the default.
func WithDebounce(d time.Duration) InventoryOption {
	return func(c *InventoryCollector) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithLogger sets the collector logger.
func WithLogger(logger *logrus.Entry) InventoryOption {
	return func(c *InventoryCollector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithScanObserver registers fn to be called after every scan.
func WithScanObserver(fn ScanObserver) InventoryOption {
	return func(c *InventoryCollector) { c.observe = fn }
}

// NewInventoryCollector creates a collector for projects. Defaults: a full
// rescan every 30 seconds and a 200ms debounce.
func NewInventoryCollector(scanner *inventory.Scanner, projects []inventory.Project, opts ...InventoryOption) *InventoryCollector {
	c := &InventoryCollector{
		scanner:  scanner,
		interval: 30 * time.Second,
		debounce: 200 * time.Millisecond,
		logger:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, p := range projects {
		if abs, err := filepath.Abs(p.Root); err == nil {
			p.Root = abs
		}
		c.projects = append(c.projects, p)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the collector's name.
func (c *InventoryCollector) Name() string { return "inventory" }

// Run starts the scan loop.
func (c *InventoryCollector) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.WithError(err).Warn("Filesystem watch unavailable, relying on interval scans")
	} else {
		defer watcher.Close()
		for _, p := range c.projects {
			c.watchTree(watcher, p, p.Root)
		}
		events, watchErrs = watcher.Events, watcher.Errors
	}

	c.fullScan(ctx, updates)

	dirty := make(map[models.ProjectID]inventory.Project)
	var debounce *time.Timer
	var settled <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case <-ticker.C:
			c.fullScan(ctx, updates)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			p, rel, ok := c.projectFor(ev.Name)
			if !ok || c.scanner.Ignored(rel) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					c.watchTree(watcher, p, ev.Name)
				}
			}
			dirty[p.ID] = p
			if debounce == nil {
				debounce = time.NewTimer(c.debounce)
			} else {
				debounce.Reset(c.debounce)
			}
			settled = debounce.C

		case <-settled:
			settled = nil
			for id, p := range dirty {
				c.projectScan(ctx, p, updates)
				delete(dirty, id)
			}

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			c.logger.WithError(err).Warn("Filesystem watch error")
		}
	}
}

func (c *InventoryCollector) fullScan(ctx context.Context, updates chan<- store.Update) {
	start := time.Now()
	files, err := c.scanner.ScanAll(ctx, c.projects)
	c.record("full", start, err)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.WithError(err).Warn("Inventory scan failed")
		}
		return
	}

	c.emit(ctx, updates, store.Update{
		Type:    store.UpdateInventory,
		Source:  c.Name(),
		Scanned: files.FileCount(),
		Payload: files,
	})
}

func (c *InventoryCollector) projectScan(ctx context.Context, p inventory.Project, updates chan<- store.Update) {
	u := store.Update{Type: store.UpdateProject, Source: c.Name(), ProjectID: p.ID}

	if info, err := os.Stat(p.Root); err != nil || !info.IsDir() {
		// Root removed: the project no longer has local files.
		c.emit(ctx, updates, u)
		return
	}

	start := time.Now()
	files, err := c.scanner.ScanProject(ctx, p)
	c.record("project", start, err)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.WithError(err).WithField("project", p.ID).Warn("Project scan failed")
		}
		return
	}

	u.Scanned = len(files)
	u.Payload = files
	c.emit(ctx, updates, u)
}

func (c *InventoryCollector) emit(ctx context.Context, updates chan<- store.Update, u store.Update) {
	select {
	case updates <- u:
	case <-ctx.Done():
	}
}

func (c *InventoryCollector) record(kind string, start time.Time, err error) {
	d := time.Since(start)
	if d > 2*time.Second {
		c.logger.WithField("duration", d).WithField("kind", kind).Warn("Slow inventory scan detected")
	}
	if c.observe != nil {
		c.observe(kind, d, err)
	}
}

// projectFor maps an absolute path to the project containing it, preferring
// the deepest root, and returns the path relative to that root.
func (c *InventoryCollector) projectFor(path string) (inventory.Project, string, bool) {
	var best inventory.Project
	var bestRel string
	found := false
	for _, p := range c.projects {
		rel, err := filepath.Rel(p.Root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if !found || len(p.Root) > len(best.Root) {
			best, bestRel, found = p, filepath.ToSlash(rel), true
		}
	}
	return best, bestRel, found
}

// watchTree adds dir and its non-ignored subdirectories to the watcher.
// fsnotify watches are not recursive.
func (c *InventoryCollector) watchTree(w *fsnotify.Watcher, p inventory.Project, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(p.Root, path); err == nil && rel != "." && c.scanner.Ignored(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			c.logger.WithError(err).WithField("dir", path).Debug("Failed to watch directory")
		}
		return nil
	})
}
