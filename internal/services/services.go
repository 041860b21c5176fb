package services

import (
	"context"
	"fmt"
	"time"

	"github.com/example/task-api/internal/models"
)

// ValidationError reports a task field that violates its rule.
// The caller can correct the input and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports the ids an operation addressed that do not exist.
// Bulk operations carry every missing id.
type NotFoundError struct {
	IDs []int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tasks not found: %v", e.IDs)
}

func NewNotFoundError(ids ...int64) *NotFoundError {
	return &NotFoundError{IDs: ids}
}

// StorageError wraps a failure of the underlying persistence. It is
// surfaced to the caller as-is, never retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// TaskStore is the storage session a task operation runs against. The
// HTTP layer acquires one per request and injects it into the service;
// within a request all calls share the same session, so the count and
// the page of a listing see one snapshot and bulk statements are atomic.
type TaskStore interface {
	InsertTask(ctx context.Context, task *models.Task) (*models.Task, error)
	SelectTaskByID(ctx context.Context, id int64) (*models.Task, error)
	SelectTasks(ctx context.Context, filter TaskFilter, sort Sort, page Page) ([]*models.Task, int64, error)
	SelectTasksByStatus(ctx context.Context, status string) ([]*models.Task, error)
	SelectTasksByPriority(ctx context.Context, priority string) ([]*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id int64) error

	// SelectExistingIDs returns the subset of ids that exist.
	SelectExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
	// UpdateTasks applies one patch to every id in a single statement.
	UpdateTasks(ctx context.Context, ids []int64, patch TaskPatch, updatedAt time.Time) ([]*models.Task, error)
	// DeleteTasks removes every id in a single statement.
	DeleteTasks(ctx context.Context, ids []int64) (int64, error)
}

type TaskService interface {
	// CreateTask validates the full record, applies status/priority
	// defaults, and persists it. Returns the stored task with its
	// assigned id and creation time.
	CreateTask(ctx context.Context, store TaskStore, params CreateTaskParams) (*models.Task, error)

	// GetTask returns a NotFoundError if the id does not exist.
	GetTask(ctx context.Context, store TaskStore, id int64) (*models.Task, error)

	// ListTasks returns one page of tasks matching the filter, together
	// with the total count computed from the same conditions.
	ListTasks(ctx context.Context, store TaskStore, query ListTasksQuery) (*TaskPage, error)

	ListTasksByStatus(ctx context.Context, store TaskStore, status string) ([]*models.Task, error)
	ListTasksByPriority(ctx context.Context, store TaskStore, priority string) ([]*models.Task, error)

	// UpdateTask applies only the fields present in the patch and stamps
	// the task's update time. An empty patch succeeds without touching
	// the record.
	UpdateTask(ctx context.Context, store TaskStore, id int64, patch TaskPatch) (*models.Task, error)

	// DeleteTask removes the task permanently.
	DeleteTask(ctx context.Context, store TaskStore, id int64) error

	// BulkUpdateTasks applies one patch to every id. If any id does not
	// exist the whole operation fails with a NotFoundError naming the
	// missing ids and no row is modified.
	BulkUpdateTasks(ctx context.Context, store TaskStore, ids []int64, patch TaskPatch) ([]*models.Task, error)

	// BulkDeleteTasks removes every id under the same all-or-nothing
	// existence check and returns the number deleted.
	BulkDeleteTasks(ctx context.Context, store TaskStore, ids []int64) (int64, error)
}

type CreateTaskParams struct {
	Title       string
	Description *string
	// Status defaults to pending when empty.
	Status string
	// Priority defaults to medium when empty.
	Priority   string
	DueDate    *time.Time
	AssignedTo *string
}

// TaskPatch carries only user-supplied fields. A nil pointer means the
// field was omitted; the Clear flags record an explicit null on the
// fields that may be unset.
type TaskPatch struct {
	Title    *string
	Status   *string
	Priority *string

	Description      *string
	ClearDescription bool

	DueDate      *time.Time
	ClearDueDate bool

	AssignedTo      *string
	ClearAssignedTo bool
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Status == nil && p.Priority == nil &&
		p.Description == nil && !p.ClearDescription &&
		p.DueDate == nil && !p.ClearDueDate &&
		p.AssignedTo == nil && !p.ClearAssignedTo
}

type ListTasksQuery struct {
	Filter TaskFilter
	Sort   Sort
	Page   Page
}

// TaskPage is one page of a filtered listing plus its pagination
// metadata. Total counts every row matching the filter, ignoring
// pagination.
type TaskPage struct {
	Tasks       []*models.Task
	Total       int64
	Page        int
	PageSize    int
	TotalPages  int64
	HasNext     bool
	HasPrevious bool
}
