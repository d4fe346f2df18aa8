package store

import (
	"sort"
	"sync"
)

// Memory keeps records in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

func (m *Memory) Save(rec *Record) error {
	if err := assignID(rec); err != nil {
		return err
	}
	m.mu.Lock()
	m.records[rec.ID] = rec.clone()
	m.mu.Unlock()
	return nil
}

func (m *Memory) Load(id string) (*Record, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return rec.clone(), nil
}

func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	delete(m.records, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) ForEach(fn func(rec *Record) bool) error {
	m.mu.RLock()
	records := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec.clone())
	}
	m.mu.RUnlock()

	sortByCreation(records)
	for _, rec := range records {
		if !fn(rec) {
			break
		}
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func sortByCreation(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
