package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileRecord(path string) LocalFileRecord {
	return LocalFileRecord{
		Path:        path,
		Name:        path[1:],
		UpdatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ContentHash: "9f86d081884c7d65",
	}
}

func TestFileMappingValidate(t *testing.T) {
	t.Run("valid mapping", func(t *testing.T) {
		m := FileMapping{"/a.txt": fileRecord("/a.txt")}
		assert.NoError(t, m.Validate())
	})

	t.Run("key mismatch", func(t *testing.T) {
		m := FileMapping{"/b.txt": fileRecord("/a.txt")}
		assert.ErrorContains(t, m.Validate(), "does not match")
	})

	t.Run("empty hash", func(t *testing.T) {
		rec := fileRecord("/a.txt")
		rec.ContentHash = ""
		m := FileMapping{"/a.txt": rec}
		assert.ErrorContains(t, m.Validate(), "empty content hash")
	})

	t.Run("project mapping names the project", func(t *testing.T) {
		rec := fileRecord("/a.txt")
		rec.Name = ""
		m := ProjectFileMapping{12: {"/a.txt": rec}}
		assert.ErrorContains(t, m.Validate(), "project 12")
	})
}

func TestProjectFileMappingJSONKeys(t *testing.T) {
	m := ProjectFileMapping{1: {"/a.txt": fileRecord("/a.txt")}}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"1":{"/a.txt"`)

	var decoded ProjectFileMapping
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, m, decoded)
}

func TestProjectFileMappingClone(t *testing.T) {
	m := ProjectFileMapping{1: {"/a.txt": fileRecord("/a.txt")}}
	c := m.Clone()
	c[1]["/b.txt"] = fileRecord("/b.txt")
	c[2] = FileMapping{}

	assert.Len(t, m, 1)
	assert.Len(t, m[1], 1)
	assert.Equal(t, 2, c.FileCount())
	assert.Equal(t, []ProjectID{1, 2}, c.ProjectIDs())
}

func TestCloudRecordLookup(t *testing.T) {
	records := []CloudProjectRecord{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}

	rec, ok := FindCloudRecord(records, 2)
	require.True(t, ok)
	assert.Equal(t, "B", rec.Name)

	_, ok = FindCloudRecord(records, 3)
	assert.False(t, ok)

	_, dup := DuplicateCloudID(records)
	assert.False(t, dup)

	id, dup := DuplicateCloudID(append(records, CloudProjectRecord{ID: 1, Name: "again"}))
	assert.True(t, dup)
	assert.Equal(t, ProjectID(1), id)
}
