package storage

import (
	"sort"
	"strings"
	"sync"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
)

// mockStore implements Store with in-memory slices. Begin returns the same
// instance: "transactions" are a no-op, matching the store's last-writer-wins
// semantics. Good enough for service and handler tests.
type mockStore struct {
	mu            sync.RWMutex
	tasks         []models.Task
	relationships []models.Relationship
}

// NewMockStore returns an empty in-memory store.
func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) Begin() (Store, error) { return m, nil }
func (m *mockStore) Commit() error         { return nil }
func (m *mockStore) Rollback() error       { return nil }
func (m *mockStore) Close() error          { return nil }

func (m *mockStore) SaveTask(t models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tasks {
		if existing.ID == t.ID {
			return models.NewValidationError("duplicate_task", map[string]string{"id": t.ID})
		}
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *mockStore) GetTask(id string) (models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Task{}, ErrNotFound
}

func (m *mockStore) UpdateTask(t models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i] = t
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) DeleteTask(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) ListTasks(filter TaskFilter) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if !matchesFilter(t, filter) {
			continue
		}
		matched = append(matched, t)
	}

	sortTasks(matched, filter.SortBy, filter.SortDir)

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []models.Task{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func matchesFilter(t models.Task, filter TaskFilter) bool {
	if len(filter.Statuses) > 0 {
		ok := false
		for _, s := range filter.Statuses {
			if t.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if filter.Category != "" && t.Category != filter.Category {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	if pr := filter.Priority; pr != nil {
		if pr.Min != nil && t.Priority < *pr.Min {
			return false
		}
		if pr.Max != nil && t.Priority > *pr.Max {
			return false
		}
	}
	if vp := filter.Viewport; vp != nil {
		if !inRange(t.Position.X, vp.X) || !inRange(t.Position.Y, vp.Y) {
			return false
		}
	}
	return true
}

func inRange(v float64, r Range) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func sortTasks(tasks []models.Task, field SortField, dir SortDirection) {
	desc := dir == SortDesc
	sort.SliceStable(tasks, func(i, j int) bool {
		var less bool
		switch field {
		case SortByPriority:
			less = tasks[i].Priority < tasks[j].Priority
		case SortByUpdatedAt:
			less = tasks[i].UpdatedAt.Before(tasks[j].UpdatedAt)
		default:
			less = tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}

func (m *mockStore) SaveRelationship(r models.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.relationships {
		if existing.ID == r.ID {
			return models.NewValidationError("duplicate_relationship", map[string]string{"id": r.ID})
		}
	}
	m.relationships = append(m.relationships, r)
	return nil
}

func (m *mockStore) GetRelationship(id string) (models.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.relationships {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Relationship{}, ErrNotFound
}

func (m *mockStore) FindBetween(fromID, toID string, typ *models.RelationshipType) ([]models.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Relationship
	for _, r := range m.relationships {
		if r.FromID != fromID || r.ToID != toID {
			continue
		}
		if typ != nil && r.Type != *typ {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) ListRelationships(query RelationshipQuery) ([]models.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.Relationship, 0, len(m.relationships))
	for _, r := range m.relationships {
		if query.FromID != "" && r.FromID != query.FromID {
			continue
		}
		if query.ToID != "" && r.ToID != query.ToID {
			continue
		}
		if query.Involving != "" && r.FromID != query.Involving && r.ToID != query.Involving {
			continue
		}
		if len(query.Types) > 0 {
			ok := false
			for _, t := range query.Types {
				if r.Type == t {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, r)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []models.Relationship{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *mockStore) UpdateRelationship(r models.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.relationships {
		if m.relationships[i].ID == r.ID {
			m.relationships[i] = r
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) DeleteRelationship(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.relationships {
		if m.relationships[i].ID == id {
			m.relationships = append(m.relationships[:i], m.relationships[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) DeleteByTaskID(taskID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.relationships[:0]
	removed := 0
	for _, r := range m.relationships {
		if r.FromID == taskID || r.ToID == taskID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.relationships = kept
	return removed, nil
}
