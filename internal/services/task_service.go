package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/task-api/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
}

func NewTaskService(logger zerolog.Logger) TaskService {
	return &taskServiceImpl{
		logger: logger,
	}
}

// mustStore guards against a caller that forgot to supply a storage
// session. That is a programming error, not a business condition.
func mustStore(store TaskStore) {
	if store == nil {
		panic("services: task store must be set before executing an operation")
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, store TaskStore, params CreateTaskParams) (*models.Task, error) {
	mustStore(store)

	task, err := ValidateNewTask(params, time.Now())
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("rejected task creation")
		return nil, err
	}

	created, err := store.InsertTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", created.ID).
		Msg("created task")
	return created, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, store TaskStore, id int64) (*models.Task, error) {
	mustStore(store)

	task, err := store.SelectTaskByID(ctx, id)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task")
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, store TaskStore, query ListTasksQuery) (*TaskPage, error) {
	mustStore(store)
	if query.Page.Size <= 0 {
		panic("services: list query requires a page built with NewPage")
	}

	sort := query.Sort
	if sort == (Sort{}) {
		sort = DefaultSort()
	}

	tasks, total, err := store.SelectTasks(ctx, query.Filter, sort, query.Page)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Int64("total", total).
		Msg("selected tasks")
	return NewTaskPage(tasks, total, query.Page), nil
}

func (s *taskServiceImpl) ListTasksByStatus(ctx context.Context, store TaskStore, status string) ([]*models.Task, error) {
	mustStore(store)

	if !models.IsValidStatus(status) {
		return nil, NewValidationError("status", "invalid status "+status)
	}
	tasks, err := store.SelectTasksByStatus(ctx, status)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("status", status).
			Msg("failed to select tasks by status")
		return nil, err
	}
	return tasks, nil
}

func (s *taskServiceImpl) ListTasksByPriority(ctx context.Context, store TaskStore, priority string) ([]*models.Task, error) {
	mustStore(store)

	if !models.IsValidPriority(priority) {
		return nil, NewValidationError("priority", "invalid priority "+priority)
	}
	tasks, err := store.SelectTasksByPriority(ctx, priority)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("priority", priority).
			Msg("failed to select tasks by priority")
		return nil, err
	}
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, store TaskStore, id int64, patch TaskPatch) (*models.Task, error) {
	mustStore(store)

	patch, err := ValidatePatch(patch, time.Now())
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int64("task_id", id).
			Msg("rejected task update")
		return nil, err
	}

	task, err := store.SelectTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		s.logger.Debug().
			Int64("task_id", id).
			Msg("empty patch, nothing to update")
		return task, nil
	}

	now := time.Now()
	applyPatch(task, patch)
	task.UpdatedAt = &now

	if err = store.UpdateTask(ctx, task); err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", id).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, store TaskStore, id int64) error {
	mustStore(store)

	if err := store.DeleteTask(ctx, id); err != nil {
		s.logger.Debug().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return err
	}

	s.logger.Info().
		Int64("task_id", id).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) BulkUpdateTasks(ctx context.Context, store TaskStore, ids []int64, patch TaskPatch) ([]*models.Task, error) {
	mustStore(store)

	if len(ids) == 0 {
		return nil, nil
	}
	ids = dedupIDs(ids)

	patch, err := ValidatePatch(patch, time.Now())
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("rejected bulk update")
		return nil, err
	}

	if err = s.checkAllExist(ctx, store, ids); err != nil {
		return nil, err
	}

	tasks, err := store.UpdateTasks(ctx, ids, patch, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to bulk update tasks")
		return nil, err
	}

	s.logger.Info().
		Int("count", len(tasks)).
		Msg("bulk updated tasks")
	return tasks, nil
}

func (s *taskServiceImpl) BulkDeleteTasks(ctx context.Context, store TaskStore, ids []int64) (int64, error) {
	mustStore(store)

	if len(ids) == 0 {
		return 0, nil
	}
	ids = dedupIDs(ids)

	if err := s.checkAllExist(ctx, store, ids); err != nil {
		return 0, err
	}

	deleted, err := store.DeleteTasks(ctx, ids)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to bulk delete tasks")
		return 0, err
	}

	s.logger.Info().
		Int64("count", deleted).
		Msg("bulk deleted tasks")
	return deleted, nil
}

// dedupIDs drops repeated ids, keeping first-occurrence order, so the
// bulk statements address each row exactly once.
func dedupIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// checkAllExist enforces the all-or-nothing precondition of the bulk
// operations: every addressed id must exist before anything is touched.
func (s *taskServiceImpl) checkAllExist(ctx context.Context, store TaskStore, ids []int64) error {
	existing, err := store.SelectExistingIDs(ctx, ids)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to check task existence")
		return err
	}

	found := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		s.logger.Warn().
			Ints64("missing_ids", missing).
			Msg("bulk operation addressed missing tasks")
		return NewNotFoundError(missing...)
	}
	return nil
}

func applyPatch(task *models.Task, patch TaskPatch) {
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
		task.Description = patch.Description
	} else if patch.ClearDescription {
		task.Description = nil
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	} else if patch.ClearDueDate {
		task.DueDate = nil
	}
	if patch.AssignedTo != nil {
		task.AssignedTo = patch.AssignedTo
	} else if patch.ClearAssignedTo {
		task.AssignedTo = nil
	}
}
