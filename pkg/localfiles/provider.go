// Package localfiles bridges the local data provider into reactive stores.
// It implements a transparent fallback pattern: if the projsync daemon is
// running, inventory comes from it over its socket; if not, the configured
// projects are scanned in-process.
package localfiles

import (
	"context"

	"github.com/grovetools/projsync/pkg/models"
)

// Provider returns the full local file inventory.
type Provider interface {
	// FetchAllLocalFiles returns one FileMapping per project with local files.
	FetchAllLocalFiles(ctx context.Context) (models.ProjectFileMapping, error)

	// Name identifies the provider in logs and error details.
	Name() string
}

// ChangeEvent signals that the provider's inventory changed.
type ChangeEvent struct {
	Type      string           `json:"type"`
	ProjectID models.ProjectID `json:"project_id,omitempty"`
}

// Notifier is implemented by providers that can push change notifications.
type Notifier interface {
	// Changes streams change events until ctx is cancelled or the connection
	// is lost, then closes the channel.
	Changes(ctx context.Context) (<-chan ChangeEvent, error)
}
