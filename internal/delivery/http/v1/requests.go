package v1

import (
	"encoding/json"
	"time"

	"github.com/example/task-api/internal/models"
	"github.com/example/task-api/internal/services"
)

// nullString distinguishes an omitted JSON field from an explicit
// null: Set is true whenever the key was present, Valid only when it
// held a value.
type nullString struct {
	Set   bool
	Valid bool
	Value string
}

func (n *nullString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

type nullTime struct {
	Set   bool
	Valid bool
	Value time.Time
}

func (n *nullTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
}

func (r createTaskRequest) toParams() services.CreateTaskParams {
	return services.CreateTaskParams{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		AssignedTo:  r.AssignedTo,
	}
}

type updateTaskRequest struct {
	Title       nullString `json:"title"`
	Status      nullString `json:"status"`
	Priority    nullString `json:"priority"`
	Description nullString `json:"description"`
	DueDate     nullTime   `json:"due_date"`
	AssignedTo  nullString `json:"assigned_to"`
}

// toPatch translates the request into the core's patch shape. Explicit
// nulls clear the optional fields and are rejected on the mandatory
// ones.
func (r updateTaskRequest) toPatch() (services.TaskPatch, error) {
	var patch services.TaskPatch

	if r.Title.Set {
		if !r.Title.Valid {
			return patch, services.NewValidationError("title", "title cannot be null")
		}
		patch.Title = &r.Title.Value
	}
	if r.Status.Set {
		if !r.Status.Valid {
			return patch, services.NewValidationError("status", "status cannot be null")
		}
		patch.Status = &r.Status.Value
	}
	if r.Priority.Set {
		if !r.Priority.Valid {
			return patch, services.NewValidationError("priority", "priority cannot be null")
		}
		patch.Priority = &r.Priority.Value
	}
	if r.Description.Set {
		if r.Description.Valid {
			patch.Description = &r.Description.Value
		} else {
			patch.ClearDescription = true
		}
	}
	if r.DueDate.Set {
		if r.DueDate.Valid {
			patch.DueDate = &r.DueDate.Value
		} else {
			patch.ClearDueDate = true
		}
	}
	if r.AssignedTo.Set {
		if r.AssignedTo.Valid {
			patch.AssignedTo = &r.AssignedTo.Value
		} else {
			patch.ClearAssignedTo = true
		}
	}
	return patch, nil
}

type bulkUpdateRequest struct {
	TaskIDs    []int64           `json:"task_ids"`
	UpdateData updateTaskRequest `json:"update_data"`
}

type bulkDeleteRequest struct {
	TaskIDs []int64 `json:"task_ids"`
}

type taskResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		AssignedTo:  task.AssignedTo,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func newTaskResponses(tasks []*models.Task) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		out[i] = newTaskResponse(task)
	}
	return out
}

type taskListResponse struct {
	Tasks          []taskResponse `json:"tasks"`
	Total          int64          `json:"total"`
	Page           int            `json:"page"`
	PageSize       int            `json:"page_size"`
	TotalPages     int64          `json:"total_pages"`
	HasNext        bool           `json:"has_next"`
	HasPrevious    bool           `json:"has_previous"`
	FiltersApplied map[string]any `json:"filters_applied"`
}

type bulkOperationResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	AffectedCount int            `json:"affected_count"`
	Tasks         []taskResponse `json:"tasks,omitempty"`
}
