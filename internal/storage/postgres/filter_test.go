package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/task-api/internal/models"
	"github.com/example/task-api/internal/services"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func mustPage(t *testing.T, number, size int) services.Page {
	t.Helper()
	page, err := services.NewPage(number, size)
	require.NoError(t, err)
	return page
}

func TestBuildWhere_EmptyFilterMatchesAllRows(t *testing.T) {
	where, args := buildWhere(services.TaskFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhere_SingleAxis(t *testing.T) {
	where, args := buildWhere(services.TaskFilter{Status: strPtr(models.StatusPending)})
	assert.Contains(t, where, "status = $1")
	assert.Equal(t, []any{models.StatusPending}, args)
}

func TestBuildWhere_SubstringAxesUseILike(t *testing.T) {
	where, args := buildWhere(services.TaskFilter{AssignedTo: strPtr("john")})
	assert.Contains(t, where, "assigned_to ILIKE $1")
	assert.Equal(t, []any{"%john%"}, args)

	where, args = buildWhere(services.TaskFilter{Search: strPtr("urgent")})
	assert.Contains(t, where, "(title ILIKE $1 OR description ILIKE $2)")
	assert.Equal(t, []any{"%urgent%", "%urgent%"}, args)
}

func TestBuildWhere_CombinesAxesWithAnd(t *testing.T) {
	where, args := buildWhere(services.TaskFilter{
		Status:   strPtr(models.StatusPending),
		Priority: strPtr(models.PriorityHigh),
		Search:   strPtr("report"),
	})

	assert.Equal(t, 2, strings.Count(where, "AND"))
	assert.Contains(t, where, "status = $1")
	assert.Contains(t, where, "priority = $2")
	assert.Contains(t, where, "(title ILIKE $3 OR description ILIKE $4)")
	assert.Len(t, args, 4)
}

func TestBuildWhere_DateRangeBoundsAreIndependent(t *testing.T) {
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildWhere(services.TaskFilter{CreatedAfter: &after})
	assert.Contains(t, where, "created_at >= $1")
	assert.Equal(t, []any{after}, args)

	where, args = buildWhere(services.TaskFilter{CreatedAfter: &after, CreatedBefore: &before})
	assert.Contains(t, where, "created_at >= $1")
	assert.Contains(t, where, "created_at <= $2")
	assert.Equal(t, []any{after, before}, args)
}

func TestBuildWhere_HasDueDateTakesNoArgs(t *testing.T) {
	where, args := buildWhere(services.TaskFilter{HasDueDate: boolPtr(true)})
	assert.Contains(t, where, "due_date IS NOT NULL")
	assert.Empty(t, args)

	where, args = buildWhere(services.TaskFilter{HasDueDate: boolPtr(false)})
	assert.Contains(t, where, "due_date IS NULL")
	assert.Empty(t, args)
}

func TestBuildWhere_OverdueUsesCapturedNow(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	where, args := buildWhere(services.TaskFilter{IsOverdue: boolPtr(true), Now: now})
	assert.Contains(t, where, "due_date IS NOT NULL AND due_date < $1 AND status <> $2")
	assert.Equal(t, []any{now, models.StatusCompleted}, args)

	// The negation, built from the same captured instant.
	where, args = buildWhere(services.TaskFilter{IsOverdue: boolPtr(false), Now: now})
	assert.Contains(t, where, "due_date IS NULL OR due_date >= $1 OR status = $2")
	assert.Equal(t, []any{now, models.StatusCompleted}, args)
}

func TestBuildSelectAndCountShareConditions(t *testing.T) {
	filter := services.TaskFilter{
		Status: strPtr(models.StatusInProgress),
		Search: strPtr("deploy"),
	}

	selectQuery, selectArgs := buildSelectQuery(filter, services.DefaultSort(), mustPage(t, 2, 10))
	countQuery, countArgs := buildCountQuery(filter)

	selectWhere := selectQuery[strings.Index(selectQuery, "WHERE"):strings.Index(selectQuery, "\nORDER BY")]
	countWhere := countQuery[strings.Index(countQuery, "WHERE"):]
	assert.Equal(t, selectWhere, countWhere)

	// The page query only appends limit and offset after the shared args.
	assert.Equal(t, append(countArgs, 10, 10), selectArgs)
}

func TestBuildSelectQuery_OrderLimitOffset(t *testing.T) {
	sort, err := services.NewSort("due_date", services.SortAsc)
	require.NoError(t, err)

	query, args := buildSelectQuery(services.TaskFilter{}, sort, mustPage(t, 3, 20))
	assert.Contains(t, query, "ORDER BY due_date ASC")
	assert.Contains(t, query, "LIMIT $1 OFFSET $2")
	assert.Equal(t, []any{20, 40}, args)
}

func TestBuildCountQuery_EmptyFilter(t *testing.T) {
	query, args := buildCountQuery(services.TaskFilter{})
	assert.Equal(t, "SELECT count(*)\nFROM tasks", query)
	assert.Empty(t, args)
}

func TestOrderClause_PanicsOnUnvettedField(t *testing.T) {
	assert.Panics(t, func() {
		orderClause(services.Sort{Field: "password", Direction: services.SortAsc})
	})
}
