// Package session wires the stores and the current project view into one
// explicitly constructed context object.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/grovetools/projsync/pkg/cloud"
	"github.com/grovetools/projsync/pkg/localfiles"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/grovetools/projsync/pkg/projectview"
	"github.com/grovetools/projsync/pkg/selection"
	"github.com/grovetools/projsync/state"
	"github.com/sirupsen/logrus"
)

// Session owns one instance of every store plus the view derived from them.
type Session struct {
	logger    *logrus.Entry
	cloud     *cloud.Store
	bridge    *localfiles.Bridge
	selection *selection.Store
	view      *projectview.View
	state     *state.File

	closeOnce sync.Once
}

type options struct {
	logger    *logrus.Entry
	statePath string
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the logger shared by the session's components.
func WithLogger(logger *logrus.Entry) Option {
	return func(o *options) { o.logger = logger }
}

// WithStateFile restores the selection from path on New and persists every
// later change to it.
func WithStateFile(path string) Option {
	return func(o *options) { o.statePath = path }
}

// New builds a session over provider. The stores start empty; call SyncCloud
// and RefreshFiles to populate them.
func New(provider localfiles.Provider, opts ...Option) (*Session, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Session{
		logger:    o.logger,
		cloud:     cloud.NewStore(o.logger.WithField("store", "cloud")),
		bridge:    localfiles.NewBridge(provider, localfiles.WithLogger(o.logger.WithField("store", "localfiles"))),
		selection: selection.NewStore(),
	}

	if o.statePath != "" {
		s.state = state.Open(o.statePath)
		id, ok, err := s.state.SelectedProject()
		if err != nil {
			return nil, fmt.Errorf("restore selection: %w", err)
		}
		if ok {
			s.selection.Select(id)
			s.logger.WithField("project", id).Debug("Restored selection")
		}
	}

	s.view = projectview.New(s.cloud.Records(), s.bridge.Files(), s.selection.Selected())
	return s, nil
}

// Cloud returns the cloud metadata store.
func (s *Session) Cloud() *cloud.Store { return s.cloud }

// Bridge returns the local file provider bridge.
func (s *Session) Bridge() *localfiles.Bridge { return s.bridge }

// Selection returns the selection store.
func (s *Session) Selection() *selection.Store { return s.selection }

// View returns the current project view.
func (s *Session) View() *projectview.View { return s.view }

// SyncCloud replaces the cloud records with what f returns.
func (s *Session) SyncCloud(ctx context.Context, f cloud.Fetcher) error {
	return s.cloud.Sync(ctx, f)
}

// RefreshFiles refreshes the local inventory.
func (s *Session) RefreshFiles(ctx context.Context) error {
	return s.bridge.Refresh(ctx)
}

// Select makes id the active project. The in-memory selection always
// changes; the returned error only reports a failure to persist it.
func (s *Session) Select(id models.ProjectID) error {
	s.selection.Select(id)
	if s.state == nil {
		return nil
	}
	return s.state.SetSelectedProject(id)
}

// Clear removes the active selection.
func (s *Session) Clear() error {
	s.selection.Clear()
	if s.state == nil {
		return nil
	}
	return s.state.ClearSelectedProject()
}

// Current returns the view's latest result.
func (s *Session) Current() projectview.Result {
	return s.view.Get()
}

// Watch reloads the inventory on every provider change notification until
// ctx is cancelled. Providers that cannot push changes return immediately.
func (s *Session) Watch(ctx context.Context) error {
	n, ok := s.bridge.Provider().(localfiles.Notifier)
	if !ok {
		s.logger.WithField("provider", s.bridge.Provider().Name()).Debug("Provider does not push changes")
		return nil
	}
	return s.bridge.Watch(ctx, n)
}

// Close detaches the view and releases the provider.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.view.Close()
		if c, ok := s.bridge.Provider().(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
