package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/grovetools/projsync/version"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileFetcher reads an exported project list from disk. The format follows the
// file extension: .yml/.yaml, .toml or .json.
type FileFetcher struct {
	Path string
}

// NewFileFetcher creates a FileFetcher for path.
func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{Path: path}
}

// Source implements Fetcher.
func (f *FileFetcher) Source() string { return f.Path }

// tomlExport wraps the list because TOML documents cannot be bare arrays.
type tomlExport struct {
	Projects []models.CloudProjectRecord `toml:"projects"`
}

// FetchProjects implements Fetcher.
func (f *FileFetcher) FetchProjects(ctx context.Context) ([]models.CloudProjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.CloudFetchFailed(f.Path, err)
	}

	var records []models.CloudProjectRecord
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &records)
	case ".toml":
		var doc tomlExport
		err = toml.Unmarshal(data, &doc)
		records = doc.Projects
	case ".json":
		err = json.Unmarshal(data, &records)
	default:
		return nil, errors.CloudFetchFailed(f.Path, fmt.Errorf("unsupported file extension %q", filepath.Ext(f.Path)))
	}
	if err != nil {
		return nil, errors.CloudFetchFailed(f.Path, fmt.Errorf("parse project list: %w", err))
	}
	return records, nil
}

// HTTPFetcher GETs a JSON array of project records.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with a bounded client timeout.
func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{
		URL:    url,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Source implements Fetcher.
func (f *HTTPFetcher) Source() string { return f.URL }

// FetchProjects implements Fetcher.
func (f *HTTPFetcher) FetchProjects(ctx context.Context) ([]models.CloudProjectRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, errors.CloudFetchFailed(f.URL, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.GetInfo().UserAgent())

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.CloudFetchFailed(f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.CloudFetchFailed(f.URL, fmt.Errorf("server returned status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	var records []models.CloudProjectRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, errors.CloudFetchFailed(f.URL, fmt.Errorf("failed to decode projects: %w", err))
	}
	return records, nil
}

// NewFetcher picks a fetcher for source: http(s) URLs use HTTPFetcher,
// anything else is treated as a file path.
func NewFetcher(source string) Fetcher {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewHTTPFetcher(source)
	}
	return NewFileFetcher(source)
}

var (
	_ Fetcher = (*FileFetcher)(nil)
	_ Fetcher = (*HTTPFetcher)(nil)
)
