package store

import (
	"reflect"
	"sync"
	"time"

	"github.com/grovetools/projsync/pkg/models"
)

// Store is the in-memory inventory store for the daemon.
// It is thread-safe and supports pub/sub for real-time updates.
type Store struct {
	mu          sync.RWMutex
	state       State
	subscribers map[chan Update]struct{}
}

// New creates a new Store instance.
func New() *Store {
	return &Store{
		state:       State{Files: make(models.ProjectFileMapping)},
		subscribers: make(map[chan Update]struct{}),
	}
}

// Get returns a snapshot of the current state. The snapshot's mapping is
// never mutated by the store, so callers may read it without locking.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// GetFiles returns the full inventory.
func (s *Store) GetFiles() models.ProjectFileMapping {
	return s.Get().Files
}

// GetProject returns one project's files.
func (s *Store) GetProject(id models.ProjectID) (models.FileMapping, bool) {
	files, ok := s.Get().Files[id]
	return files, ok
}

// ApplyUpdate modifies the state and notifies subscribers. Updates that
// leave the inventory unchanged are dropped. Reports whether the state changed.
func (s *Store) ApplyUpdate(u Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next models.ProjectFileMapping
	switch u.Type {
	case UpdateInventory:
		files, ok := u.Payload.(models.ProjectFileMapping)
		if !ok {
			return false
		}
		next = files.Clone()
		if next == nil {
			next = make(models.ProjectFileMapping)
		}
	case UpdateProject:
		// Copy on write: earlier snapshots keep their view.
		next = make(models.ProjectFileMapping, len(s.state.Files)+1)
		for id, files := range s.state.Files {
			next[id] = files
		}
		if files, ok := u.Payload.(models.FileMapping); ok && files != nil {
			next[u.ProjectID] = files.Clone()
		} else {
			delete(next, u.ProjectID)
		}
	default:
		return false
	}

	s.state.ScannedAt = time.Now()
	if reflect.DeepEqual(next, s.state.Files) {
		return false
	}
	s.state.Files = next
	s.state.Generation++

	// Broadcast to subscribers
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Non-blocking send to prevent slow clients from stalling the daemon
		}
	}
	return true
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}
