// Package cloud holds the cloud-side project metadata and the fetchers that
// read it from a remote or exported source.
package cloud

import (
	"context"

	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/grovetools/projsync/pkg/reactive"
	"github.com/sirupsen/logrus"
)

// Fetcher returns the full current set of cloud project records.
type Fetcher interface {
	// FetchProjects returns every project record. Implementations return a
	// fresh slice the caller may keep.
	FetchProjects(ctx context.Context) ([]models.CloudProjectRecord, error)

	// Source names where records come from, for logs and error details.
	Source() string
}

// Store holds the cloud project records. The sequence is only ever replaced
// as a whole.
type Store struct {
	records *reactive.Store[[]models.CloudProjectRecord]
	logger  *logrus.Entry
}

// NewStore creates an empty Store.
func NewStore(logger *logrus.Entry) *Store {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{
		records: reactive.New[[]models.CloudProjectRecord](nil),
		logger:  logger,
	}
}

// Records exposes the current sequence for subscription.
func (s *Store) Records() reactive.Readable[[]models.CloudProjectRecord] {
	return s.records
}

// Get returns the current sequence. Callers must not modify it.
func (s *Store) Get() []models.CloudProjectRecord {
	return s.records.Get()
}

// ReplaceAll swaps in a copy of records in one step. A sequence that repeats a
// project id is rejected and the previous sequence is kept.
func (s *Store) ReplaceAll(records []models.CloudProjectRecord) error {
	if id, dup := models.DuplicateCloudID(records); dup {
		return errors.DuplicateProject(int64(id))
	}

	owned := make([]models.CloudProjectRecord, len(records))
	copy(owned, records)
	s.records.Set(owned)

	s.logger.WithField("projects", len(owned)).Debug("Replaced cloud project metadata")
	return nil
}

// Sync fetches records from f and replaces the current sequence. On any
// failure the previous sequence stays in place.
func (s *Store) Sync(ctx context.Context, f Fetcher) error {
	records, err := f.FetchProjects(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("source", f.Source()).Warn("Cloud metadata fetch failed, keeping previous records")
		if errors.HasCode(err) {
			return err
		}
		return errors.CloudFetchFailed(f.Source(), err)
	}
	return s.ReplaceAll(records)
}
