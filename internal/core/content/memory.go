package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Content
	bySlug map[string]uuid.UUID
}

// NewMemoryRepository constructs an in-memory repository for content.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:   make(map[uuid.UUID]*Content),
		bySlug: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) Create(_ context.Context, c *Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bySlug[c.SlugEn]; ok {
		return ErrDuplicateSlug
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	for _, s := range c.Sections {
		s.ContentID = c.ID
	}

	m.byID[c.ID] = stored(c)
	m.bySlug[c.SlugEn] = c.ID
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return record.Clone(), nil
}

func (m *memoryRepository) GetBySlug(_ context.Context, slug string) (*Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySlug[slug]
	if !ok {
		return nil, nil
	}
	return m.byID[id].Clone(), nil
}

func (m *memoryRepository) List(_ context.Context, filter ListFilter) ([]*Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Content, 0, len(m.byID))
	for _, record := range m.byID {
		if filter.Type != "" && record.Type != filter.Type {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		c := record.Clone()
		c.Sections = nil
		records = append(records, c)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

func (m *memoryRepository) Update(_ context.Context, c *Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[c.ID]
	if !ok {
		return nil
	}
	if owner, taken := m.bySlug[c.SlugEn]; taken && owner != c.ID {
		return ErrDuplicateSlug
	}
	delete(m.bySlug, existing.SlugEn)

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	for _, s := range c.Sections {
		s.ContentID = c.ID
	}
	m.byID[c.ID] = stored(c)
	m.bySlug[c.SlugEn] = c.ID
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record, ok := m.byID[id]; ok {
		delete(m.bySlug, record.SlugEn)
		delete(m.byID, id)
	}
	return nil
}

func (m *memoryRepository) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySlug[slug]
	return ok && id != excludeID, nil
}

func (m *memoryRepository) CountSectionsByBlueprint(_ context.Context, blueprintID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.byID {
		for _, s := range c.Sections {
			if s.BlueprintID == blueprintID {
				n++
			}
		}
	}
	return n, nil
}

// stored copies c the way a database row would hold it: sections sorted by
// order, resolved blueprints dropped, empty payloads as {}.
func stored(c *Content) *Content {
	out := c.Clone()
	if out.Sections == nil {
		out.Sections = []*Section{}
	}
	for _, s := range out.Sections {
		s.Blueprint = nil
		if s.DataEn == nil {
			s.DataEn = map[string]interface{}{}
		}
		if s.DataAr == nil {
			s.DataAr = map[string]interface{}{}
		}
	}
	SortByOrder(out.Sections)
	return out
}
