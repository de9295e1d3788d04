package registry

import (
	"fmt"
	"sync"

	"github.com/danieljhkim/filepatcher/internal/clock"
)

// MemoryRegistry is an in-process Registry.
type MemoryRegistry struct {
	mu      sync.Mutex
	records []Record
	nextID  int64
	clock   clock.Clock
}

// NewMemoryRegistry creates a MemoryRegistry holding a copy of records.
func NewMemoryRegistry(records ...Record) *MemoryRegistry {
	m := &MemoryRegistry{nextID: 1, clock: clock.System{}}
	for _, r := range records {
		m.records = append(m.records, r)
		if r.ID >= m.nextID {
			m.nextID = r.ID + 1
		}
	}
	return m
}

// WithClock sets the clock that stamps inserted records.
func (m *MemoryRegistry) WithClock(c clock.Clock) *MemoryRegistry {
	m.clock = c
	return m
}

// Select returns records matching q.
func (m *MemoryRegistry) Select(q Query) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return selectRecords(m.records, q), nil
}

// Insert stores r with a new id.
func (m *MemoryRegistry) Insert(r Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.nextID
	m.nextID++
	if r.InstalledAt.IsZero() {
		r.InstalledAt = m.clock.Now()
	}
	m.records = append(m.records, r)
	return r, nil
}

// Delete removes the record with id.
func (m *MemoryRegistry) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}
