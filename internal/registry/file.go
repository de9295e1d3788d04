package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/filepatcher/internal/clock"
	"github.com/danieljhkim/filepatcher/internal/fsops"
)

// registryFile is the on-disk layout of a FileRegistry.
type registryFile struct {
	NextID  int64    `yaml:"next_id"`
	Records []Record `yaml:"records"`
}

// FileRegistry implements Registry as a YAML file written atomically.
// A missing file is an empty registry.
type FileRegistry struct {
	fs    fsops.FS
	path  string
	clock clock.Clock
}

// NewFileRegistry creates a FileRegistry stored at path.
func NewFileRegistry(fs fsops.FS, path string) *FileRegistry {
	return &FileRegistry{
		fs:    fs,
		path:  path,
		clock: clock.System{},
	}
}

// WithClock sets the clock that stamps inserted records.
func (r *FileRegistry) WithClock(c clock.Clock) *FileRegistry {
	r.clock = c
	return r
}

// Path returns the registry file location.
func (r *FileRegistry) Path() string {
	return r.path
}

// Select returns records matching q.
func (r *FileRegistry) Select(q Query) ([]Record, error) {
	data, err := r.load()
	if err != nil {
		return nil, err
	}
	return selectRecords(data.Records, q), nil
}

// Insert stores rec with a new id.
func (r *FileRegistry) Insert(rec Record) (Record, error) {
	data, err := r.load()
	if err != nil {
		return Record{}, err
	}

	if data.NextID < 1 {
		data.NextID = 1
	}
	rec.ID = data.NextID
	data.NextID++
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = r.clock.Now()
	}
	data.Records = append(data.Records, rec)

	if err := r.save(data); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes the record with id.
func (r *FileRegistry) Delete(id int64) error {
	data, err := r.load()
	if err != nil {
		return err
	}

	idx := -1
	for i, rec := range data.Records {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	data.Records = append(data.Records[:idx], data.Records[idx+1:]...)
	return r.save(data)
}

func (r *FileRegistry) load() (*registryFile, error) {
	raw, err := r.fs.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &registryFile{NextID: 1}, nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var data registryFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registry: %w", err)
	}

	for _, rec := range data.Records {
		if rec.ID >= data.NextID {
			data.NextID = rec.ID + 1
		}
	}
	return &data, nil
}

func (r *FileRegistry) save(data *registryFile) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := r.fs.AtomicWrite(r.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}
