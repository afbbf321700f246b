package localfiles

import (
	"context"

	"github.com/grovetools/projsync/pkg/inventory"
	"github.com/grovetools/projsync/pkg/models"
)

// LocalProvider scans the configured projects in-process.
// Used when the daemon is not running.
type LocalProvider struct {
	scanner  *inventory.Scanner
	projects []inventory.Project
}

// NewLocalProvider creates a LocalProvider for projects.
func NewLocalProvider(scanner *inventory.Scanner, projects []inventory.Project) *LocalProvider {
	return &LocalProvider{scanner: scanner, projects: projects}
}

// Name returns "local".
func (p *LocalProvider) Name() string { return "local" }

// FetchAllLocalFiles scans every configured project.
func (p *LocalProvider) FetchAllLocalFiles(ctx context.Context) (models.ProjectFileMapping, error) {
	return p.scanner.ScanAll(ctx, p.projects)
}

var _ Provider = (*LocalProvider)(nil)
