package services

import (
	"fmt"
	"time"

	"github.com/example/task-api/internal/models"
)

// TaskFilter is an immutable set of optional filter axes. Every axis
// that is set narrows the result; the storage layer combines them with
// AND. The zero value matches all rows.
//
// Now is the timestamp the overdue axis compares against. It is
// captured once when the filter is built so the whole request, count
// query included, sees a single moment.
type TaskFilter struct {
	Status        *string
	Priority      *string
	AssignedTo    *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	DueAfter      *time.Time
	DueBefore     *time.Time
	Search        *string
	HasDueDate    *bool
	IsOverdue     *bool
	Now           time.Time
}

// EffectiveNow returns the captured overdue reference time, falling
// back to the wall clock for filters built without one.
func (f TaskFilter) EffectiveNow() time.Time {
	if f.Now.IsZero() {
		return time.Now()
	}
	return f.Now
}

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

type Sort struct {
	Field     string
	Direction string
}

// DefaultSort orders listings by creation time, newest first.
func DefaultSort() Sort {
	return Sort{Field: "created_at", Direction: SortDesc}
}

// NewSort validates the field name against the task columns and the
// direction against asc/desc. Unknown values are rejected rather than
// silently falling back to the default order.
func NewSort(field, direction string) (Sort, error) {
	if _, ok := models.SortableFields[field]; !ok {
		return Sort{}, NewValidationError("sort_by", fmt.Sprintf("unknown sort field %q", field))
	}
	if direction != SortAsc && direction != SortDesc {
		return Sort{}, NewValidationError("sort_order", fmt.Sprintf("sort order must be %q or %q", SortAsc, SortDesc))
	}
	return Sort{Field: field, Direction: direction}, nil
}

const (
	MinPageSize = 1
	MaxPageSize = 100
)

type Page struct {
	Number int
	Size   int
}

// NewPage rejects out-of-range values instead of clamping them.
func NewPage(number, size int) (Page, error) {
	if number < 1 {
		return Page{}, NewValidationError("page", "page must be >= 1")
	}
	if size < MinPageSize || size > MaxPageSize {
		return Page{}, NewValidationError("page_size", fmt.Sprintf("page size must be between %d and %d", MinPageSize, MaxPageSize))
	}
	return Page{Number: number, Size: size}, nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}

// PageCount is ceil(total/size), 0 when total is 0.
func PageCount(total int64, size int) int64 {
	if total <= 0 {
		return 0
	}
	return (total + int64(size) - 1) / int64(size)
}

// NewTaskPage assembles a page of results with its metadata. The rows
// and the total must come from the same filter conditions.
func NewTaskPage(tasks []*models.Task, total int64, page Page) *TaskPage {
	totalPages := PageCount(total, page.Size)
	return &TaskPage{
		Tasks:       tasks,
		Total:       total,
		Page:        page.Number,
		PageSize:    page.Size,
		TotalPages:  totalPages,
		HasNext:     int64(page.Number) < totalPages,
		HasPrevious: page.Number > 1,
	}
}
