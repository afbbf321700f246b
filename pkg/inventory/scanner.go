// Package inventory builds local file inventories for configured projects.
package inventory

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"time"

	"github.com/grovetools/projsync/pkg/models"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
)

// DefaultIgnore is always excluded from scans.
var DefaultIgnore = []string{".git", ".projsync"}

// Project is a local directory bound to a cloud project id.
type Project struct {
	ID   models.ProjectID
	Root string
	Name string
}

// HashCache remembers content hashes keyed by file identity so unchanged
// files are not re-read.
type HashCache interface {
	Lookup(path string, size int64, modTime time.Time) (string, bool)
	Store(path string, size int64, modTime time.Time, hash string) error
}

// Scanner walks project roots and hashes their files.
type Scanner struct {
	matcher *patternmatcher.PatternMatcher
	workers int
	cache   HashCache
	logger  *logrus.Entry
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers bounds the number of files hashed concurrently.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithHashCache sets the cache consulted before hashing a file.
func WithHashCache(c HashCache) Option {
	return func(s *Scanner) { s.cache = c }
}

// WithLogger sets the scanner logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner compiles the ignore patterns (dockerignore syntax) on top of
// DefaultIgnore.
func NewScanner(ignore []string, opts ...Option) (*Scanner, error) {
	patterns := append(append([]string{}, DefaultIgnore...), ignore...)
	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}

	s := &Scanner{
		matcher: pm,
		workers: runtime.NumCPU(),
		logger:  logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ignored reports whether rel, a slash-separated path relative to a project
// root, is excluded by the ignore patterns.
func (s *Scanner) Ignored(rel string) bool {
	ok, err := s.matcher.MatchesOrParentMatches(rel)
	return err == nil && ok
}

type pending struct {
	rel  string
	abs  string
	info fs.FileInfo
}

// ScanProject returns the inventory of one project. Record paths are
// slash-separated, rooted at the project directory, and start with "/".
func (s *Scanner) ScanProject(ctx context.Context, p Project) (models.FileMapping, error) {
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return nil, err
	}

	var files []pending
	err = filepath.WalkDir(root, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if abs == root {
			return nil
		}

		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		ignored, err := s.matcher.MatchesOrParentMatches(rel)
		if err != nil {
			return err
		}
		if ignored {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, pending{rel: rel, abs: abs, info: info})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	records := make([]models.LocalFileRecord, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			hash, err := s.hash(f)
			if err != nil {
				return err
			}
			records[i] = models.LocalFileRecord{
				Path:        "/" + f.rel,
				Name:        path.Base(f.rel),
				UpdatedAt:   f.info.ModTime().UTC(),
				ContentHash: hash,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mapping := make(models.FileMapping, len(records))
	for _, r := range records {
		mapping[r.Path] = r
	}

	s.logger.WithFields(logrus.Fields{
		"project": p.ID,
		"root":    root,
		"files":   len(mapping),
	}).Debug("Scanned project")
	return mapping, nil
}

// ScanAll scans every project whose root exists. Projects without a local
// directory are left out of the result.
func (s *Scanner) ScanAll(ctx context.Context, projects []Project) (models.ProjectFileMapping, error) {
	result := make(models.ProjectFileMapping, len(projects))
	for _, p := range projects {
		if _, dup := result[p.ID]; dup {
			return nil, fmt.Errorf("project %d configured more than once", p.ID)
		}
		info, err := os.Stat(p.Root)
		if err != nil || !info.IsDir() {
			s.logger.WithField("project", p.ID).WithField("root", p.Root).Debug("Project root missing, skipping")
			continue
		}
		files, err := s.ScanProject(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("project %d: %w", p.ID, err)
		}
		result[p.ID] = files
	}
	return result, nil
}

func (s *Scanner) hash(f pending) (string, error) {
	if s.cache != nil {
		if h, ok := s.cache.Lookup(f.abs, f.info.Size(), f.info.ModTime()); ok {
			return h, nil
		}
	}

	h, err := HashFile(f.abs)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Store(f.abs, f.info.Size(), f.info.ModTime(), h); err != nil {
			s.logger.WithError(err).WithField("path", f.abs).Debug("Failed to cache hash")
		}
	}
	return h, nil
}

// HashFile returns the hex XXH3-64 digest of the file's content.
func HashFile(name string) (string, error) {
	file, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", name, err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
