package collector

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/projsync/internal/daemon/store"
	"github.com/grovetools/projsync/pkg/inventory"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startCollector(t *testing.T, c *InventoryCollector) (*store.Store, context.CancelFunc) {
	t.Helper()
	st := store.New()
	updates := make(chan store.Update, 16)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = c.Run(ctx, st, updates)
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-updates:
				st.ApplyUpdate(u)
			}
		}
	}()

	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return st, cancel
}

func TestInitialScan(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0644))

	scanner, err := inventory.NewScanner(nil)
	require.NoError(t, err)

	var mu sync.Mutex
	kinds := map[string]int{}
	c := NewInventoryCollector(scanner, []inventory.Project{{ID: 1, Root: root}},
		WithScanObserver(func(kind string, d time.Duration, err error) {
			mu.Lock()
			kinds[kind]++
			mu.Unlock()
		}))
	assert.Equal(t, "inventory", c.Name())

	st, _ := startCollector(t, c)

	require.Eventually(t, func() bool {
		files, ok := st.GetProject(1)
		return ok && len(files) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, kinds["full"], 1)
}

func TestRescanOnFilesystemEvent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0644))

	scanner, err := inventory.NewScanner(nil)
	require.NoError(t, err)
	c := NewInventoryCollector(scanner, []inventory.Project{{ID: 1, Root: root}},
		WithInterval(time.Hour), WithDebounce(20*time.Millisecond))

	st, _ := startCollector(t, c)
	require.Eventually(t, func() bool {
		_, ok := st.GetProject(1)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("world"), 0644))

	require.Eventually(t, func() bool {
		files, _ := st.GetProject(1)
		_, ok := files["/b.txt"]
		return ok
	}, 3*time.Second, 10*time.Millisecond)

	// Files created inside a directory that appeared after start are seen too.
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "c.txt"), []byte("!"), 0644))
	require.Eventually(t, func() bool {
		files, _ := st.GetProject(1)
		_, ok := files["/sub/c.txt"]
		return ok
	}, 3*time.Second, 10*time.Millisecond)
}

func TestProjectFor(t *testing.T) {
	scanner, err := inventory.NewScanner(nil)
	require.NoError(t, err)
	c := NewInventoryCollector(scanner, []inventory.Project{
		{ID: 1, Root: "/work"},
		{ID: 2, Root: "/work/nested"},
	})

	tests := []struct {
		path   string
		wantID models.ProjectID
		rel    string
		found  bool
	}{
		{"/work/a.txt", 1, "a.txt", true},
		{"/work/nested/b.txt", 2, "b.txt", true},
		{"/workshop/c.txt", 0, "", false},
		{"/elsewhere", 0, "", false},
	}
	for _, tt := range tests {
		p, rel, ok := c.projectFor(tt.path)
		assert.Equal(t, tt.found, ok, tt.path)
		if tt.found {
			assert.Equal(t, tt.wantID, p.ID, tt.path)
			assert.Equal(t, tt.rel, rel, tt.path)
		}
	}
}
