// Package projectview derives the currently selected project from the cloud
// records, the local inventory and the selection.
package projectview

import (
	"github.com/grovetools/projsync/pkg/models"
	"github.com/grovetools/projsync/pkg/reactive"
	"github.com/grovetools/projsync/pkg/selection"
)

// State says whether a project could be resolved.
type State int

const (
	// NotSelected means no project is selected.
	NotSelected State = iota
	// Unavailable means a project is selected but the cloud record, the local
	// files, or both are missing.
	Unavailable
	// Available means both sides were found.
	Available
)

func (s State) String() string {
	switch s {
	case NotSelected:
		return "not_selected"
	case Unavailable:
		return "unavailable"
	case Available:
		return "available"
	}
	return "unknown"
}

// Result is the derived value. Project is non-nil only when State is Available.
type Result struct {
	State    State
	Selected models.ProjectID
	Project  *models.WholeProject
	HasCloud bool
	HasLocal bool
}

// OK reports whether a whole project was resolved.
func (r Result) OK() bool {
	return r.State == Available
}

// Resolve merges the inputs for the selected project. It is pure: no I/O, no
// writes, same inputs give the same result.
func Resolve(records []models.CloudProjectRecord, files models.ProjectFileMapping, sel selection.Selection) Result {
	if !sel.Active {
		return Result{State: NotSelected}
	}

	res := Result{State: Unavailable, Selected: sel.ID}

	metadata, hasCloud := models.FindCloudRecord(records, sel.ID)
	localFiles, hasLocal := files[sel.ID]
	res.HasCloud = hasCloud
	res.HasLocal = hasLocal

	if !hasCloud || !hasLocal {
		return res
	}

	res.State = Available
	res.Project = &models.WholeProject{Metadata: metadata, LocalFiles: localFiles}
	return res
}

// View is the live Current Project View.
type View struct {
	derived *reactive.Derived[Result]
}

// New wires a View to its three inputs.
func New(
	records reactive.Readable[[]models.CloudProjectRecord],
	files reactive.Readable[models.ProjectFileMapping],
	sel reactive.Readable[selection.Selection],
) *View {
	return &View{derived: reactive.Derive3(records, files, sel, Resolve)}
}

// Get returns the latest result.
func (v *View) Get() Result {
	return v.derived.Get()
}

// Subscribe registers fn and calls it immediately with the latest result.
func (v *View) Subscribe(fn func(Result)) reactive.Unsubscriber {
	return v.derived.Subscribe(fn)
}

// Close detaches the view from its inputs.
func (v *View) Close() {
	v.derived.Close()
}

var _ reactive.Readable[Result] = (*View)(nil)
