// Package selection tracks which project is currently active.
package selection

import (
	"github.com/grovetools/projsync/pkg/models"
	"github.com/grovetools/projsync/pkg/reactive"
)

// Selection is either a project id or none.
type Selection struct {
	ID     models.ProjectID
	Active bool
}

// None is the empty selection.
var None = Selection{}

// Of returns a selection of id.
func Of(id models.ProjectID) Selection {
	return Selection{ID: id, Active: true}
}

// Store holds the current selection. Ids are not checked against known
// projects; an unknown id simply resolves to an unavailable view.
type Store struct {
	sel *reactive.Store[Selection]
}

// NewStore creates a Store with nothing selected.
func NewStore() *Store {
	return &Store{sel: reactive.New(None)}
}

// Select makes id the active project.
func (s *Store) Select(id models.ProjectID) {
	s.sel.Set(Of(id))
}

// Clear removes the active selection.
func (s *Store) Clear() {
	s.sel.Set(None)
}

// Current returns the active id, if any.
func (s *Store) Current() (models.ProjectID, bool) {
	cur := s.sel.Get()
	return cur.ID, cur.Active
}

// Selected exposes the selection for subscription.
func (s *Store) Selected() reactive.Readable[Selection] {
	return s.sel
}
