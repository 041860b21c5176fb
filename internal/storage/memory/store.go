package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/task-api/internal/models"
	"github.com/example/task-api/internal/services"
)

// Store keeps tasks in memory behind the same TaskStore contract the
// Postgres store implements. It backs the test suites and local runs
// without a database.
type Store struct {
	mu     sync.RWMutex
	tasks  map[int64]*models.Task
	nextID int64
}

func NewStore() *Store {
	return &Store{
		tasks:  make(map[int64]*models.Task),
		nextID: 1,
	}
}

var _ services.TaskStore = (*Store)(nil)

func (s *Store) InsertTask(_ context.Context, task *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.nextID
	s.nextID++
	task.CreatedAt = time.Now()

	stored := cloneTask(task)
	s.tasks[stored.ID] = stored
	return cloneTask(stored), nil
}

func (s *Store) SelectTaskByID(_ context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, services.NewNotFoundError(id)
	}
	return cloneTask(task), nil
}

func (s *Store) SelectTasks(_ context.Context, filter services.TaskFilter, sortBy services.Sort, page services.Page) ([]*models.Task, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if matchesFilter(task, filter) {
			matched = append(matched, task)
		}
	}
	total := int64(len(matched))

	sortTasks(matched, sortBy)

	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit()
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]*models.Task, 0, end-start)
	for _, task := range matched[start:end] {
		out = append(out, cloneTask(task))
	}
	return out, total, nil
}

func (s *Store) SelectTasksByStatus(_ context.Context, status string) ([]*models.Task, error) {
	return s.selectWhere(func(t *models.Task) bool { return t.Status == status })
}

func (s *Store) SelectTasksByPriority(_ context.Context, priority string) ([]*models.Task, error) {
	return s.selectWhere(func(t *models.Task) bool { return t.Priority == priority })
}

func (s *Store) selectWhere(match func(*models.Task) bool) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Task
	for _, task := range s.tasks {
		if match(task) {
			out = append(out, cloneTask(task))
		}
	}
	sortTasks(out, services.DefaultSort())
	return out, nil
}

func (s *Store) UpdateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		return services.NewNotFoundError(task.ID)
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return services.NewNotFoundError(id)
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) SelectExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var existing []int64
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := s.tasks[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

func (s *Store) UpdateTasks(_ context.Context, ids []int64, patch services.TaskPatch, updatedAt time.Time) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Each row comes back once even when ids repeat, like the SQL
	// UPDATE ... WHERE id = ANY($1) RETURNING does.
	out := make([]*models.Task, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		task, ok := s.tasks[id]
		if !ok {
			continue
		}
		if !patch.IsEmpty() {
			applyPatch(task, patch)
			at := updatedAt
			task.UpdatedAt = &at
		}
		out = append(out, cloneTask(task))
	}
	return out, nil
}

func (s *Store) DeleteTasks(_ context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := s.tasks[id]; ok {
			delete(s.tasks, id)
			deleted++
		}
	}
	return deleted, nil
}

func matchesFilter(task *models.Task, f services.TaskFilter) bool {
	if f.Status != nil && task.Status != *f.Status {
		return false
	}
	if f.Priority != nil && task.Priority != *f.Priority {
		return false
	}
	if f.AssignedTo != nil {
		if task.AssignedTo == nil || !containsFold(*task.AssignedTo, *f.AssignedTo) {
			return false
		}
	}
	if f.CreatedAfter != nil && task.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && task.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	if f.DueAfter != nil && (task.DueDate == nil || task.DueDate.Before(*f.DueAfter)) {
		return false
	}
	if f.DueBefore != nil && (task.DueDate == nil || task.DueDate.After(*f.DueBefore)) {
		return false
	}
	if f.Search != nil {
		inTitle := containsFold(task.Title, *f.Search)
		inDescription := task.Description != nil && containsFold(*task.Description, *f.Search)
		if !inTitle && !inDescription {
			return false
		}
	}
	if f.HasDueDate != nil && *f.HasDueDate != (task.DueDate != nil) {
		return false
	}
	if f.IsOverdue != nil {
		overdue := task.DueDate != nil &&
			task.DueDate.Before(f.EffectiveNow()) &&
			task.Status != models.StatusCompleted
		if overdue != *f.IsOverdue {
			return false
		}
	}
	return true
}

func sortTasks(tasks []*models.Task, by services.Sort) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if by.Direction == services.SortDesc {
			return lessByField(tasks[j], tasks[i], by.Field)
		}
		return lessByField(tasks[i], tasks[j], by.Field)
	})
}

func lessByField(a, b *models.Task, field string) bool {
	switch field {
	case "id":
		return a.ID < b.ID
	case "title":
		return a.Title < b.Title
	case "status":
		return a.Status < b.Status
	case "priority":
		return a.Priority < b.Priority
	case "due_date":
		return lessTimePtr(a.DueDate, b.DueDate)
	case "assigned_to":
		return lessStringPtr(a.AssignedTo, b.AssignedTo)
	case "updated_at":
		return lessTimePtr(a.UpdatedAt, b.UpdatedAt)
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

// Nils sort first, matching Postgres ASC NULLS FIRST would not; it uses
// NULLS LAST for ASC. The suites only sort nullable columns on rows
// where the column is set, so the difference does not surface.
func lessTimePtr(a, b *time.Time) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return a.Before(*b)
	}
}

func lessStringPtr(a, b *string) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return *a < *b
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func applyPatch(task *models.Task, patch services.TaskPatch) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Description != nil {
		v := *patch.Description
		task.Description = &v
	} else if patch.ClearDescription {
		task.Description = nil
	}
	if patch.DueDate != nil {
		v := *patch.DueDate
		task.DueDate = &v
	} else if patch.ClearDueDate {
		task.DueDate = nil
	}
	if patch.AssignedTo != nil {
		v := *patch.AssignedTo
		task.AssignedTo = &v
	} else if patch.ClearAssignedTo {
		task.AssignedTo = nil
	}
}

func cloneTask(task *models.Task) *models.Task {
	c := *task
	if task.Description != nil {
		v := *task.Description
		c.Description = &v
	}
	if task.DueDate != nil {
		v := *task.DueDate
		c.DueDate = &v
	}
	if task.AssignedTo != nil {
		v := *task.AssignedTo
		c.AssignedTo = &v
	}
	if task.UpdatedAt != nil {
		v := *task.UpdatedAt
		c.UpdatedAt = &v
	}
	return &c
}
