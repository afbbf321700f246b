package localfiles

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/pkg/inventory"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveUnix runs handler on a fresh unix socket and returns its path.
func serveUnix(t *testing.T, handler http.Handler) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "projsync")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	sock := filepath.Join(dir, "d.sock")
	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(handler)
	srv.Listener.Close()
	srv.Listener = ln
	srv.Start()
	t.Cleanup(srv.Close)
	return sock
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func TestRemoteFetchAll(t *testing.T) {
	raw, err := json.Marshal(mappingA)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/files", jsonHandler(http.StatusOK, string(raw)))
	p := NewRemoteProvider(serveUnix(t, mux))
	defer p.Close()

	got, err := p.FetchAllLocalFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mappingA, got)
}

func TestRemoteRejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{"1":`},
		{name: "missing hash", body: `{"1":{"/a.txt":{"path":"/a.txt","name":"a.txt","updated_at":"2024-02-02T10:00:00Z"}}}`},
		{name: "empty name", body: `{"1":{"/a.txt":{"path":"/a.txt","name":"","updated_at":"2024-02-02T10:00:00Z","content_hash":"ff"}}}`},
		{name: "non numeric project id", body: `{"abc":{}}`},
		{name: "array", body: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/files", jsonHandler(http.StatusOK, tt.body))
			p := NewRemoteProvider(serveUnix(t, mux))

			_, err := p.FetchAllLocalFiles(context.Background())
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeMalformedResponse, errors.GetCode(err))
		})
	}
}

func TestRemoteServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files", jsonHandler(http.StatusInternalServerError, "boom"))
	p := NewRemoteProvider(serveUnix(t, mux))

	_, err := p.FetchAllLocalFiles(context.Background())
	assert.Equal(t, errors.ErrCodeProviderUnavailable, errors.GetCode(err))
}

func TestRemoteFetchAllMissingRouteIsUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files", jsonHandler(http.StatusNotFound, `{"error":"no route"}`))
	p := NewRemoteProvider(serveUnix(t, mux))

	_, err := p.FetchAllLocalFiles(context.Background())
	assert.Equal(t, errors.ErrCodeProviderUnavailable, errors.GetCode(err))

	b := NewBridge(p)
	err = b.Refresh(context.Background())
	assert.Equal(t, errors.ErrCodeProviderUnavailable, errors.GetCode(err))
}

func TestRemoteNoDaemon(t *testing.T) {
	p := NewRemoteProvider(filepath.Join(t.TempDir(), "missing.sock"))

	_, err := p.FetchAllLocalFiles(context.Background())
	assert.Equal(t, errors.ErrCodeProviderUnavailable, errors.GetCode(err))
	assert.False(t, p.IsRunning())
}

func TestRemoteFetchProjectFiles(t *testing.T) {
	raw, err := json.Marshal(mappingA[1])
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/files/1", jsonHandler(http.StatusOK, string(raw)))
	mux.HandleFunc("/api/files/2", jsonHandler(http.StatusNotFound, "{}"))
	p := NewRemoteProvider(serveUnix(t, mux))

	files, ok, err := p.FetchProjectFiles(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, mappingA[1], files)

	_, ok, err = p.FetchProjectFiles(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoteChanges(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", jsonHandler(http.StatusOK, "ok"))
	mux.HandleFunc("/api/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, ": connected\n\n")
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, `data: {"type":"inventory","project_id":7}`+"\n\n")
		flusher.Flush()
		<-r.Context().Done()
	})
	p := NewRemoteProvider(serveUnix(t, mux))
	assert.True(t, p.IsRunning())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := p.Changes(ctx)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, ChangeEvent{Type: "inventory", ProjectID: 7}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestNewProviderFallsBackToLocal(t *testing.T) {
	local := &scriptedProvider{results: []outcome{{data: mappingA}}}

	p := NewProvider(filepath.Join(t.TempDir(), "missing.sock"), local)
	assert.Same(t, local, p)

	sock := serveUnix(t, http.NewServeMux())
	assert.IsType(t, &RemoteProvider{}, NewProvider(sock, local))
}

func TestValidatePayload(t *testing.T) {
	raw, err := json.Marshal(models.ProjectFileMapping{1: {"/a.txt": fileA}, 2: {}})
	require.NoError(t, err)
	assert.NoError(t, ValidatePayload(raw))

	assert.Error(t, ValidatePayload([]byte(`{"1":{"/a.txt":{"path":"/a.txt"}}}`)))
}

func TestLocalProviderScans(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0644))

	scanner, err := inventory.NewScanner(nil)
	require.NoError(t, err)
	p := NewLocalProvider(scanner, []inventory.Project{{ID: 1, Root: root}})
	b := NewBridge(p)

	require.NoError(t, b.Refresh(context.Background()))
	assert.Equal(t, "local", p.Name())
	assert.Equal(t, []string{"/a.txt"}, b.Files().Get()[1].Paths())
}
