package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/task-api/internal/models"
	"github.com/example/task-api/internal/services"
)

// Querier is the slice of pgx both a pool and a transaction satisfy.
// The HTTP layer hands the store a per-request transaction so that the
// count-vs-page snapshot and the bulk statements ride on Postgres
// transaction guarantees.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	db Querier
}

func NewStore(db Querier) *Store {
	return &Store{db: db}
}

var _ services.TaskStore = (*Store)(nil)

func (s *Store) InsertTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.CreatedAt = time.Now()

	const insertTaskQuery = `
INSERT INTO tasks (title,
                   description,
                   status,
                   priority,
                   due_date,
                   assigned_to,
                   created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`
	err := s.db.QueryRow(
		ctx,
		insertTaskQuery,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedTo,
		task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		return nil, wrapStorageError("insert task", err)
	}
	return task, nil
}

func (s *Store) SelectTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	query := fmt.Sprintf("SELECT %s\nFROM tasks\nWHERE id = $1", taskColumns)

	task, err := scanTask(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.NewNotFoundError(id)
		}
		return nil, wrapStorageError("select task", err)
	}
	return task, nil
}

func (s *Store) SelectTasks(ctx context.Context, filter services.TaskFilter, sort services.Sort, page services.Page) ([]*models.Task, int64, error) {
	countQuery, countArgs := buildCountQuery(filter)

	var total int64
	err := s.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, wrapStorageError("count tasks", err)
	}

	query, args := buildSelectQuery(filter, sort, page)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapStorageError("select tasks", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, 0, wrapStorageError("select tasks", err)
	}
	return tasks, total, nil
}

func (s *Store) SelectTasksByStatus(ctx context.Context, status string) ([]*models.Task, error) {
	query := fmt.Sprintf("SELECT %s\nFROM tasks\nWHERE status = $1\nORDER BY created_at DESC", taskColumns)
	return s.selectList(ctx, "select tasks by status", query, status)
}

func (s *Store) SelectTasksByPriority(ctx context.Context, priority string) ([]*models.Task, error) {
	query := fmt.Sprintf("SELECT %s\nFROM tasks\nWHERE priority = $1\nORDER BY created_at DESC", taskColumns)
	return s.selectList(ctx, "select tasks by priority", query, priority)
}

func (s *Store) selectList(ctx context.Context, op, query string, args ...any) ([]*models.Task, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStorageError(op, err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, wrapStorageError(op, err)
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	const updateTaskQuery = `
UPDATE tasks
SET title       = $1,
    description = $2,
    status      = $3,
    priority    = $4,
    due_date    = $5,
    assigned_to = $6,
    updated_at  = $7
WHERE id = $8
`
	tag, err := s.db.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedTo,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return wrapStorageError("update task", err)
	}
	if tag.RowsAffected() == 0 {
		return services.NewNotFoundError(task.ID)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := s.db.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		return wrapStorageError("delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return services.NewNotFoundError(id)
	}
	return nil
}

func (s *Store) SelectExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	const selectIDsQuery = `
SELECT id
FROM tasks
WHERE id = ANY($1)
`
	rows, err := s.db.Query(ctx, selectIDsQuery, ids)
	if err != nil {
		return nil, wrapStorageError("select existing ids", err)
	}
	defer rows.Close()

	var existing []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, wrapStorageError("select existing ids", err)
		}
		existing = append(existing, id)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapStorageError("select existing ids", err)
	}
	return existing, nil
}

// UpdateTasks applies the patch to every id in one UPDATE statement, so
// under the request transaction either every row changes or none does.
// An empty patch degenerates to a plain read of the addressed rows.
func (s *Store) UpdateTasks(ctx context.Context, ids []int64, patch services.TaskPatch, updatedAt time.Time) ([]*models.Task, error) {
	if patch.IsEmpty() {
		query := fmt.Sprintf("SELECT %s\nFROM tasks\nWHERE id = ANY($1)\nORDER BY id", taskColumns)
		return s.selectList(ctx, "select tasks for empty bulk patch", query, ids)
	}

	set, args := buildSetClause(patch, updatedAt)
	args = append(args, ids)
	query := fmt.Sprintf(
		"UPDATE tasks\nSET %s\nWHERE id = ANY($%d)\nRETURNING %s",
		set, len(args), taskColumns,
	)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStorageError("bulk update tasks", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, wrapStorageError("bulk update tasks", err)
	}
	return tasks, nil
}

func (s *Store) DeleteTasks(ctx context.Context, ids []int64) (int64, error) {
	const deleteTasksQuery = `
DELETE FROM tasks
WHERE id = ANY($1)
`
	tag, err := s.db.Exec(ctx, deleteTasksQuery, ids)
	if err != nil {
		return 0, wrapStorageError("bulk delete tasks", err)
	}
	return tag.RowsAffected(), nil
}

// buildSetClause renders only the fields present in the patch. Clear
// flags write NULL.
func buildSetClause(patch services.TaskPatch, updatedAt time.Time) (string, []any) {
	var parts []string
	var args []any

	set := func(column string, v any) {
		args = append(args, v)
		parts = append(parts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	} else if patch.ClearDescription {
		parts = append(parts, "description = NULL")
	}
	if patch.DueDate != nil {
		set("due_date", *patch.DueDate)
	} else if patch.ClearDueDate {
		parts = append(parts, "due_date = NULL")
	}
	if patch.AssignedTo != nil {
		set("assigned_to", *patch.AssignedTo)
	} else if patch.ClearAssignedTo {
		parts = append(parts, "assigned_to = NULL")
	}
	set("updated_at", updatedAt)

	return strings.Join(parts, ",\n    "), args
}

func scanTask(row pgx.Row) (*models.Task, error) {
	task := new(models.Task)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.AssignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func collectTasks(rows pgx.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func wrapStorageError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return services.NewStorageError(fmt.Sprintf("%s (constraint %s)", op, pgErr.ConstraintName), err)
	}
	return services.NewStorageError(op, err)
}
