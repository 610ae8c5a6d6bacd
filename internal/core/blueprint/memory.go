package blueprint

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Blueprint
	byName map[string]uuid.UUID
}

// NewMemoryRepository constructs an in-memory repository for blueprints.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:   make(map[uuid.UUID]*Blueprint),
		byName: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) Create(_ context.Context, bp *Blueprint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[bp.Name]; ok {
		return ErrDuplicateName
	}
	now := time.Now().UTC()
	bp.CreatedAt = now
	bp.UpdatedAt = now

	m.byID[bp.ID] = bp.Clone()
	m.byName[bp.Name] = bp.ID
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Blueprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return record.Clone(), nil
}

func (m *memoryRepository) GetByName(_ context.Context, name string) (*Blueprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[name]
	if !ok {
		return nil, nil
	}
	return m.byID[id].Clone(), nil
}

func (m *memoryRepository) List(_ context.Context, filter ListFilter) ([]*Blueprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Blueprint, 0, len(m.byID))
	for _, record := range m.byID {
		if filter.Type != "" && record.BlueprintType != filter.Type {
			continue
		}
		if filter.Category != "" && record.Category != filter.Category {
			continue
		}
		records = append(records, record.Clone())
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].IsSystem != records[j].IsSystem {
			return records[i].IsSystem
		}
		return records[i].DisplayName < records[j].DisplayName
	})
	return records, nil
}

func (m *memoryRepository) Update(_ context.Context, bp *Blueprint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[bp.ID]
	if !ok {
		return nil
	}
	bp.Name = existing.Name
	bp.CreatedAt = existing.CreatedAt
	bp.UpdatedAt = time.Now().UTC()
	m.byID[bp.ID] = bp.Clone()
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record, ok := m.byID[id]; ok {
		delete(m.byName, record.Name)
		delete(m.byID, id)
	}
	return nil
}

func (m *memoryRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byName[name]
	return ok, nil
}
