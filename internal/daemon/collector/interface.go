// Package collector holds the daemon's background producers of store updates.
package collector

import (
	"context"

	"github.com/grovetools/projsync/internal/daemon/store"
)

// Collector produces inventory updates until ctx is done. Implementations may
// read st to decide what to rescan but only write through updates.
type Collector interface {
	Name() string
	Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error
}
