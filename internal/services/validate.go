package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/task-api/internal/models"
)

// ValidateNewTask checks a full candidate record against the field
// rules and returns a normalized task ready to persist. Status and
// priority default when left empty. The task comes back without an id
// or creation time; the store assigns those.
func ValidateNewTask(params CreateTaskParams, now time.Time) (*models.Task, error) {
	title, err := validateTitle(params.Title)
	if err != nil {
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = models.StatusPending
	}
	if !models.IsValidStatus(status) {
		return nil, NewValidationError("status", fmt.Sprintf("invalid status %q", status))
	}

	priority := params.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return nil, NewValidationError("priority", fmt.Sprintf("invalid priority %q", priority))
	}

	if err = validateDescription(params.Description); err != nil {
		return nil, err
	}
	if err = validateAssignedTo(params.AssignedTo); err != nil {
		return nil, err
	}
	if err = validateDueDate(params.DueDate, now); err != nil {
		return nil, err
	}

	return &models.Task{
		Title:       title,
		Description: params.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     params.DueDate,
		AssignedTo:  params.AssignedTo,
	}, nil
}

// ValidatePatch checks only the fields present in the patch and returns
// a normalized copy. Explicit nulls are only allowed on the optional
// fields; title, status and priority cannot be cleared.
func ValidatePatch(patch TaskPatch, now time.Time) (TaskPatch, error) {
	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return TaskPatch{}, err
		}
		patch.Title = &title
	}
	if patch.Status != nil && !models.IsValidStatus(*patch.Status) {
		return TaskPatch{}, NewValidationError("status", fmt.Sprintf("invalid status %q", *patch.Status))
	}
	if patch.Priority != nil && !models.IsValidPriority(*patch.Priority) {
		return TaskPatch{}, NewValidationError("priority", fmt.Sprintf("invalid priority %q", *patch.Priority))
	}
	if err := validateDescription(patch.Description); err != nil {
		return TaskPatch{}, err
	}
	if err := validateAssignedTo(patch.AssignedTo); err != nil {
		return TaskPatch{}, err
	}
	if err := validateDueDate(patch.DueDate, now); err != nil {
		return TaskPatch{}, err
	}
	return patch, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", NewValidationError("title", "title cannot be empty or whitespace only")
	}
	// Limits count characters, not bytes.
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return "", NewValidationError("title", fmt.Sprintf("title must be at most %d characters", models.MaxTitleLength))
	}
	return title, nil
}

func validateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > models.MaxDescriptionLength {
		return NewValidationError("description", fmt.Sprintf("description must be at most %d characters", models.MaxDescriptionLength))
	}
	return nil
}

func validateAssignedTo(assignedTo *string) error {
	if assignedTo != nil && utf8.RuneCountInString(*assignedTo) > models.MaxAssignedToLength {
		return NewValidationError("assigned_to", fmt.Sprintf("assigned_to must be at most %d characters", models.MaxAssignedToLength))
	}
	return nil
}

// validateDueDate compares naive wall-clock values: a zoned input is
// stripped to its local reading first. Exactly "now" is rejected; the
// due date must be strictly in the future at validation time.
func validateDueDate(dueDate *time.Time, now time.Time) error {
	if dueDate == nil {
		return nil
	}
	if !naiveLocal(*dueDate).After(naiveLocal(now)) {
		return NewValidationError("due_date", "due date must be in the future")
	}
	return nil
}

func naiveLocal(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}
