package models

import (
	"fmt"
	"sort"
	"time"
)

// ProjectID identifies a project in both the cloud and the local inventory.
type ProjectID int64

// LocalFileRecord describes one file on local disk belonging to a project.
type LocalFileRecord struct {
	Path        string    `json:"path" yaml:"path" toml:"path" jsonschema:"minLength=1"`
	Name        string    `json:"name" yaml:"name" toml:"name" jsonschema:"minLength=1"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at" toml:"updated_at"`
	ContentHash string    `json:"content_hash" yaml:"content_hash" toml:"content_hash" jsonschema:"minLength=1"`
}

// FileMapping maps a file path to its record. Keys equal the record's Path.
type FileMapping map[string]LocalFileRecord

// ProjectFileMapping is the full local inventory, one entry per project with local files.
type ProjectFileMapping map[ProjectID]FileMapping

// CloudProjectRecord is the cloud-held metadata for one project.
// Records are replaced wholesale on every fetch and never mutated in place.
type CloudProjectRecord struct {
	ID          ProjectID   `json:"id" yaml:"id" toml:"id"`
	Name        string      `json:"name" yaml:"name" toml:"name"`
	Description *string     `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at" yaml:"created_at" toml:"created_at"`
	CloudFiles  FileMapping `json:"cloud_files,omitempty" yaml:"cloud_files,omitempty" toml:"cloud_files,omitempty"`
}

// WholeProject is the merged view of one project. It only exists as a computed value.
type WholeProject struct {
	Metadata   CloudProjectRecord `json:"metadata"`
	LocalFiles FileMapping        `json:"local_files"`
}

// Validate checks that the record is usable as an inventory entry.
func (r LocalFileRecord) Validate() error {
	switch {
	case r.Path == "":
		return fmt.Errorf("file record has empty path")
	case r.Name == "":
		return fmt.Errorf("file record %q has empty name", r.Path)
	case r.ContentHash == "":
		return fmt.Errorf("file record %q has empty content hash", r.Path)
	}
	return nil
}

// Validate checks every record and that each key matches its record's path.
func (m FileMapping) Validate() error {
	for key, rec := range m {
		if err := rec.Validate(); err != nil {
			return err
		}
		if key != rec.Path {
			return fmt.Errorf("file mapping key %q does not match record path %q", key, rec.Path)
		}
	}
	return nil
}

// Paths returns the mapping's keys in sorted order.
func (m FileMapping) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a shallow copy of the mapping. Records are values, so the copy
// shares nothing mutable with the original.
func (m FileMapping) Clone() FileMapping {
	if m == nil {
		return nil
	}
	out := make(FileMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Validate checks every project's file mapping.
func (m ProjectFileMapping) Validate() error {
	for id, files := range m {
		if err := files.Validate(); err != nil {
			return fmt.Errorf("project %d: %w", id, err)
		}
	}
	return nil
}

// ProjectIDs returns the mapping's project ids in ascending order.
func (m ProjectFileMapping) ProjectIDs() []ProjectID {
	ids := make([]ProjectID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FileCount returns the total number of files across all projects.
func (m ProjectFileMapping) FileCount() int {
	n := 0
	for _, files := range m {
		n += len(files)
	}
	return n
}

// Clone deep-copies the mapping so the caller can hand it to a store without
// sharing maps with the producer.
func (m ProjectFileMapping) Clone() ProjectFileMapping {
	if m == nil {
		return nil
	}
	out := make(ProjectFileMapping, len(m))
	for id, files := range m {
		out[id] = files.Clone()
	}
	return out
}

// FindCloudRecord returns the record with the given id, if any.
func FindCloudRecord(records []CloudProjectRecord, id ProjectID) (CloudProjectRecord, bool) {
	for _, rec := range records {
		if rec.ID == id {
			return rec, true
		}
	}
	return CloudProjectRecord{}, false
}

// DuplicateCloudID returns the first id that appears more than once.
func DuplicateCloudID(records []CloudProjectRecord) (ProjectID, bool) {
	seen := make(map[ProjectID]struct{}, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			return rec.ID, true
		}
		seen[rec.ID] = struct{}{}
	}
	return 0, false
}
