package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/task-api/internal/models"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestValidateNewTask_TrimsTitle(t *testing.T) {
	task, err := ValidateNewTask(CreateTaskParams{Title: "  Buy milk  "}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
}

func TestValidateNewTask_RejectsEmptyTitle(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := ValidateNewTask(CreateTaskParams{Title: title}, time.Now())

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "title", validationErr.Field)
	}
}

func TestValidateNewTask_RejectsLongFields(t *testing.T) {
	long := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'x'
		}
		return string(b)
	}

	tests := []struct {
		field  string
		params CreateTaskParams
	}{
		{"title", CreateTaskParams{Title: long(models.MaxTitleLength + 1)}},
		{"description", CreateTaskParams{Title: "ok", Description: strPtr(long(models.MaxDescriptionLength + 1))}},
		{"assigned_to", CreateTaskParams{Title: "ok", AssignedTo: strPtr(long(models.MaxAssignedToLength + 1))}},
	}
	for _, tc := range tests {
		_, err := ValidateNewTask(tc.params, time.Now())

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr, tc.field)
		assert.Equal(t, tc.field, validationErr.Field)
	}
}

func TestValidateNewTask_CountsCharactersNotBytes(t *testing.T) {
	// 150 characters, 450 bytes: within the 200-character limit.
	title := strings.Repeat("日", 150)
	task, err := ValidateNewTask(CreateTaskParams{Title: title}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, title, task.Title)

	_, err = ValidateNewTask(CreateTaskParams{
		Title:      "ok",
		AssignedTo: strPtr(strings.Repeat("ü", models.MaxAssignedToLength)),
	}, time.Now())
	assert.NoError(t, err)

	_, err = ValidateNewTask(CreateTaskParams{
		Title: strings.Repeat("日", models.MaxTitleLength+1),
	}, time.Now())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "title", validationErr.Field)
}

func TestValidateNewTask_Defaults(t *testing.T) {
	task, err := ValidateNewTask(CreateTaskParams{Title: "X", Priority: models.PriorityHigh}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, task.Status)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Nil(t, task.UpdatedAt)
}

func TestValidateNewTask_RejectsUnknownEnums(t *testing.T) {
	_, err := ValidateNewTask(CreateTaskParams{Title: "X", Status: "paused"}, time.Now())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "status", validationErr.Field)

	_, err = ValidateNewTask(CreateTaskParams{Title: "X", Priority: "critical"}, time.Now())
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "priority", validationErr.Field)
}

func TestValidateNewTask_DueDateBoundary(t *testing.T) {
	now := time.Now()

	// Exactly "now" fails; strictly later succeeds.
	_, err := ValidateNewTask(CreateTaskParams{Title: "X", DueDate: timePtr(now)}, now)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "due_date", validationErr.Field)

	_, err = ValidateNewTask(CreateTaskParams{Title: "X", DueDate: timePtr(now.Add(-time.Hour))}, now)
	assert.Error(t, err)

	_, err = ValidateNewTask(CreateTaskParams{Title: "X", DueDate: timePtr(now.Add(time.Hour))}, now)
	assert.NoError(t, err)
}

func TestValidateNewTask_DueDateComparedNaive(t *testing.T) {
	now := time.Now()

	// Zoned input is compared by its wall-clock reading, not the
	// instant: a past reading fails and a future reading passes no
	// matter what offset it carries.
	pastWall := time.Date(2020, 1, 1, 12, 0, 0, 0, time.FixedZone("UTC+9", 9*3600))
	_, err := ValidateNewTask(CreateTaskParams{Title: "X", DueDate: timePtr(pastWall)}, now)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "due_date", validationErr.Field)

	futureWall := time.Date(now.Year()+1, 1, 1, 12, 0, 0, 0, time.FixedZone("UTC-11", -11*3600))
	_, err = ValidateNewTask(CreateTaskParams{Title: "X", DueDate: timePtr(futureWall)}, now)
	assert.NoError(t, err)
}

func TestValidatePatch_TrimsAndValidatesTitle(t *testing.T) {
	patch, err := ValidatePatch(TaskPatch{Title: strPtr("  Renamed  ")}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", *patch.Title)

	_, err = ValidatePatch(TaskPatch{Title: strPtr("   ")}, time.Now())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "title", validationErr.Field)
}

func TestValidatePatch_EmptyPatchIsValid(t *testing.T) {
	patch, err := ValidatePatch(TaskPatch{}, time.Now())
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
}

func TestValidatePatch_ClearFlagsSurviveValidation(t *testing.T) {
	patch, err := ValidatePatch(TaskPatch{ClearDueDate: true, ClearDescription: true}, time.Now())
	require.NoError(t, err)
	assert.True(t, patch.ClearDueDate)
	assert.True(t, patch.ClearDescription)
	assert.False(t, patch.IsEmpty())
}

func TestValidatePatch_RejectsPastDueDate(t *testing.T) {
	now := time.Now()
	_, err := ValidatePatch(TaskPatch{DueDate: timePtr(now.Add(-time.Minute))}, now)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "due_date", validationErr.Field)
}
