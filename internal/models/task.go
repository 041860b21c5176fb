package models

import "time"

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxAssignedToLength  = 100
)

type Task struct {
	ID          int64
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// SortableFields are the task columns a listing may be ordered by.
var SortableFields = map[string]struct{}{
	"id":          {},
	"title":       {},
	"status":      {},
	"priority":    {},
	"due_date":    {},
	"assigned_to": {},
	"created_at":  {},
	"updated_at":  {},
}
