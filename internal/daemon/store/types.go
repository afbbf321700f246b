// Package store provides the in-memory inventory store for the projsync daemon.
package store

import (
	"time"

	"github.com/grovetools/projsync/pkg/models"
)

// State represents the complete world view of the daemon.
type State struct {
	Files      models.ProjectFileMapping `json:"files"`
	ScannedAt  time.Time                 `json:"scanned_at"`
	Generation uint64                    `json:"generation"`
}

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	// UpdateInventory replaces the whole inventory. Payload is a ProjectFileMapping.
	UpdateInventory UpdateType = "inventory"
	// UpdateProject replaces one project's files. Payload is a FileMapping, or
	// nil when the project no longer has a local directory.
	UpdateProject UpdateType = "project"
)

// Update represents a change to the state.
type Update struct {
	Type      UpdateType
	Source    string // Which collector sent this update
	ProjectID models.ProjectID
	Scanned   int // Number of files scanned
	Payload   interface{}
}
