package localfiles

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/pkg/models"
)

// baseURL is the dummy host used for Unix socket HTTP requests.
// The actual connection goes through the Unix socket, not this URL.
const baseURL = "http://unix"

// RemoteProvider reads the inventory from the daemon's HTTP API over a Unix
// socket and can stream its change notifications.
type RemoteProvider struct {
	httpClient *http.Client
	socketPath string
}

// NewRemoteProvider creates a RemoteProvider connected to the daemon socket.
func NewRemoteProvider(socketPath string) *RemoteProvider {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &RemoteProvider{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		socketPath: socketPath,
	}
}

// Name returns "daemon".
func (p *RemoteProvider) Name() string { return "daemon" }

// FetchAllLocalFiles fetches and validates the daemon's full inventory.
func (p *RemoteProvider) FetchAllLocalFiles(ctx context.Context) (models.ProjectFileMapping, error) {
	raw, err := p.get(ctx, "/api/files")
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeNotFound {
			// A daemon without the inventory route is not a usable provider.
			return nil, errors.ProviderUnavailable(p.Name(), err)
		}
		return nil, err
	}
	if err := ValidatePayload(raw); err != nil {
		return nil, errors.MalformedResponse(p.Name(), err)
	}

	var files models.ProjectFileMapping
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, errors.MalformedResponse(p.Name(), err)
	}
	return files, nil
}

// FetchProjectFiles fetches one project's files. The boolean is false when
// the daemon has no local files for id.
func (p *RemoteProvider) FetchProjectFiles(ctx context.Context, id models.ProjectID) (models.FileMapping, bool, error) {
	raw, err := p.get(ctx, fmt.Sprintf("/api/files/%d", id))
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var files models.FileMapping
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, false, errors.MalformedResponse(p.Name(), err)
	}
	if err := files.Validate(); err != nil {
		return nil, false, errors.MalformedResponse(p.Name(), err)
	}
	return files, true, nil
}

func (p *RemoteProvider) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.ProviderUnavailable(p.Name(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "not found").WithDetail("path", path)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.ProviderUnavailable(p.Name(), fmt.Errorf("daemon returned status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ProviderUnavailable(p.Name(), err)
	}
	return raw, nil
}

// IsRunning returns true if the daemon is available and responding.
func (p *RemoteProvider) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Changes subscribes to the daemon's Server-Sent Events stream. The channel
// is closed when ctx is cancelled or the connection is lost.
func (p *RemoteProvider) Changes(ctx context.Context) (<-chan ChangeEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}

	// Streaming needs a client without a timeout.
	streamTransport := &http.Transport{
		DialContext: func(dialCtx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(dialCtx, "unix", p.socketPath)
		},
	}
	streamClient := &http.Client{Transport: streamTransport}

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	ch := make(chan ChangeEvent, 10)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		defer streamTransport.CloseIdleConnections()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			var ev ChangeEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Close releases idle connections.
func (p *RemoteProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

var (
	_ Provider = (*RemoteProvider)(nil)
	_ Notifier = (*RemoteProvider)(nil)
)
