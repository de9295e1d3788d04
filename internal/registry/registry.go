// Package registry stores the host's extension registration records.
//
// A registration record identifies an installed extension by an
// (element, type) pair and points at its manifest directory. filepatcher
// looks up its own record after a run so it can remove itself.
//
// Lookups go through Query, a parameter struct matched field by field, so no
// caller ever builds a query string. FileRegistry persists records as YAML;
// MemoryRegistry backs tests.
package registry

import (
	"errors"
	"path/filepath"
	"slices"
	"time"
)

// ErrNotFound indicates no record has the requested id.
var ErrNotFound = errors.New("registration record not found")

// Record is a single registration row.
type Record struct {
	ID          int64     `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Element     string    `yaml:"element" json:"element"`
	Type        string    `yaml:"type" json:"type"`
	Folder      string    `yaml:"folder,omitempty" json:"folder,omitempty"`
	InstalledAt time.Time `yaml:"installed_at" json:"installedAt"`
}

// ManifestDir returns the manifest directory of r under manifestsRoot,
// laid out as <root>/<type>s/<element>.
func (r Record) ManifestDir(manifestsRoot string) string {
	return filepath.Join(manifestsRoot, r.Type+"s", r.Element)
}

// Query selects records by exact field equality. Empty fields match anything.
type Query struct {
	Element string
	Type    string
	Folder  string
}

// Matches reports whether r satisfies q.
func (q Query) Matches(r Record) bool {
	if q.Element != "" && r.Element != q.Element {
		return false
	}
	if q.Type != "" && r.Type != q.Type {
		return false
	}
	if q.Folder != "" && r.Folder != q.Folder {
		return false
	}
	return true
}

// Registry provides select, insert and delete-by-id over registration records.
type Registry interface {
	// Select returns records matching q, ordered by id.
	Select(q Query) ([]Record, error)

	// Insert stores r with a newly assigned id and returns the stored record.
	Insert(r Record) (Record, error)

	// Delete removes the record with the given id.
	// Returns ErrNotFound if no such record exists.
	Delete(id int64) error
}

func selectRecords(records []Record, q Query) []Record {
	var out []Record
	for _, r := range records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Record) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}
