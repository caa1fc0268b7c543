package search

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Index matching terms by case-insensitive substring
type Memory struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemory returns an empty in-memory index
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func (m *Memory) Index(_ context.Context, records ...Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.UniqueID] = r
	}
	return nil
}

func (m *Memory) DeleteIDs(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

func (m *Memory) DeleteGroups(_ context.Context, groupIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := make(map[string]bool, len(groupIDs))
	for _, g := range groupIDs {
		groups[g] = true
	}
	for id, r := range m.records {
		if groups[r.GroupID] {
			delete(m.records, id)
		}
	}
	return nil
}

// Search returns records containing every term, ordered by title
func (m *Memory) Search(_ context.Context, query string, limit int) ([]Record, error) {
	terms := strings.Fields(strings.ToLower(query))

	m.mu.Lock()
	var found []Record
	for _, r := range m.records {
		text := strings.ToLower(r.Title + " " + r.Description)
		match := true
		for _, t := range terms {
			if !strings.Contains(text, t) {
				match = false
				break
			}
		}
		if match {
			found = append(found, r)
		}
	}
	m.mu.Unlock()

	sort.Slice(found, func(i, j int) bool {
		if found[i].Title != found[j].Title {
			return found[i].Title < found[j].Title
		}
		return found[i].UniqueID < found[j].UniqueID
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

// Len returns the number of indexed records
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
