// Package state persists small pieces of per-directory projsync state, such
// as the last selected project, in .projsync/state.yml.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/projsync/pkg/models"
	"gopkg.in/yaml.v3"
)

// SelectedProjectKey holds the id of the last selected project.
const SelectedProjectKey = "selection.project_id"

// State is the state file's content as generic key-value pairs.
type State map[string]interface{}

// File is a state file at a fixed path.
type File struct {
	Path string
}

// DefaultPath returns .projsync/state.yml in the current working directory,
// so each checkout keeps its own state.
func DefaultPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current directory: %w", err)
	}
	return filepath.Join(cwd, ".projsync", "state.yml"), nil
}

// Open returns the state file at path. The file is created on first Save.
func Open(path string) *File {
	return &File{Path: path}
}

// Load reads the state. Returns an empty state if the file doesn't exist.
func (f *File) Load() (State, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(State), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if st == nil {
		st = make(State)
	}
	return st, nil
}

// Save writes st, creating the parent directory if needed.
func (f *File) Save(st State) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Get retrieves a value by key.
func (f *File) Get(key string) (interface{}, bool, error) {
	st, err := f.Load()
	if err != nil {
		return nil, false, err
	}
	val, ok := st[key]
	return val, ok, nil
}

// GetString returns "" if the key doesn't exist or is not a string.
func (f *File) GetString(key string) (string, error) {
	val, ok, err := f.Get(key)
	if err != nil || !ok {
		return "", err
	}
	str, _ := val.(string)
	return str, nil
}

// Set stores a value.
func (f *File) Set(key string, value interface{}) error {
	st, err := f.Load()
	if err != nil {
		return err
	}
	st[key] = value
	return f.Save(st)
}

// Delete removes a key.
func (f *File) Delete(key string) error {
	st, err := f.Load()
	if err != nil {
		return err
	}
	delete(st, key)
	return f.Save(st)
}

// SelectedProject returns the persisted selection, if any.
func (f *File) SelectedProject() (models.ProjectID, bool, error) {
	val, ok, err := f.Get(SelectedProjectKey)
	if err != nil || !ok {
		return 0, false, err
	}
	switch v := val.(type) {
	case int:
		return models.ProjectID(v), true, nil
	case int64:
		return models.ProjectID(v), true, nil
	case uint64:
		return models.ProjectID(v), true, nil
	}
	return 0, false, fmt.Errorf("state key %s: expected integer, got %T", SelectedProjectKey, val)
}

// SetSelectedProject persists id as the selection.
func (f *File) SetSelectedProject(id models.ProjectID) error {
	return f.Set(SelectedProjectKey, int64(id))
}

// ClearSelectedProject removes the persisted selection.
func (f *File) ClearSelectedProject() error {
	return f.Delete(SelectedProjectKey)
}
