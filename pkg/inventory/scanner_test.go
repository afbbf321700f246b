package inventory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/projsync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestScanProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	writeFile(t, root, "docs/b.md", "# b")
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main")
	writeFile(t, root, "build/out.bin", "binary")
	writeFile(t, root, "notes.tmp", "scratch")

	s, err := NewScanner([]string{"build", "*.tmp"})
	require.NoError(t, err)

	files, err := s.ScanProject(context.Background(), Project{ID: 1, Root: root})
	require.NoError(t, err)

	assert.Equal(t, []string{"/a.txt", "/docs/b.md"}, files.Paths())
	require.NoError(t, files.Validate())

	a := files["/a.txt"]
	assert.Equal(t, "a.txt", a.Name)
	assert.Len(t, a.ContentHash, 16)
	assert.Equal(t, "b.md", files["/docs/b.md"].Name)
}

func TestIgnored(t *testing.T) {
	s, err := NewScanner([]string{"node_modules"})
	require.NoError(t, err)

	assert.True(t, s.Ignored(".git"))
	assert.True(t, s.Ignored("node_modules/x/y.js"))
	assert.False(t, s.Ignored("src/main.go"))
}

func TestHashFileIsContentAddressed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "one", "same")
	writeFile(t, root, "two", "same")
	writeFile(t, root, "three", "different")

	h1, err := HashFile(filepath.Join(root, "one"))
	require.NoError(t, err)
	h2, err := HashFile(filepath.Join(root, "two"))
	require.NoError(t, err)
	h3, err := HashFile(filepath.Join(root, "three"))
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestScanAllSkipsMissingRoots(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")

	s, err := NewScanner(nil, WithWorkers(2))
	require.NoError(t, err)

	got, err := s.ScanAll(context.Background(), []Project{
		{ID: 1, Root: root},
		{ID: 2, Root: filepath.Join(root, "does-not-exist")},
	})
	require.NoError(t, err)

	assert.Equal(t, []models.ProjectID{1}, got.ProjectIDs())
	assert.Contains(t, got[1], "/a.txt")
}

func TestScanAllRejectsDuplicateIDs(t *testing.T) {
	root := t.TempDir()
	s, err := NewScanner(nil)
	require.NoError(t, err)

	_, err = s.ScanAll(context.Background(), []Project{{ID: 1, Root: root}, {ID: 1, Root: root}})
	assert.Error(t, err)
}

func TestInvalidIgnorePattern(t *testing.T) {
	_, err := NewScanner([]string{"[unterminated"})
	assert.Error(t, err)
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	s, err := NewScanner(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ScanProject(ctx, Project{ID: 1, Root: root})
	assert.ErrorIs(t, err, context.Canceled)
}

type memCache struct {
	mu     sync.Mutex
	hashes map[string]string
	hits   int
}

func (c *memCache) Lookup(path string, size int64, modTime time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hashes[path]
	if ok {
		c.hits++
	}
	return h, ok
}

func (c *memCache) Store(path string, size int64, modTime time.Time, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[path] = hash
	return nil
}

func TestScanUsesHashCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")

	cache := &memCache{hashes: map[string]string{}}
	s, err := NewScanner(nil, WithHashCache(cache))
	require.NoError(t, err)

	first, err := s.ScanProject(context.Background(), Project{ID: 1, Root: root})
	require.NoError(t, err)
	second, err := s.ScanProject(context.Background(), Project{ID: 1, Root: root})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)
}
