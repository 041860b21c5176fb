package postgres

import (
	"fmt"
	"strings"

	"github.com/example/task-api/internal/models"
	"github.com/example/task-api/internal/services"
)

const taskColumns = `id,
       title,
       description,
       status,
       priority,
       due_date,
       assigned_to,
       created_at,
       updated_at`

// buildWhere renders the filter axes into one conjunctive WHERE clause
// with positional args. An empty filter yields an empty clause matching
// all rows. The same clause feeds both the page query and the count
// query so the two always agree on conditions.
func buildWhere(f services.TaskFilter) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != nil {
		conds = append(conds, "status = "+arg(*f.Status))
	}
	if f.Priority != nil {
		conds = append(conds, "priority = "+arg(*f.Priority))
	}
	if f.AssignedTo != nil {
		conds = append(conds, "assigned_to ILIKE "+arg("%"+*f.AssignedTo+"%"))
	}
	if f.CreatedAfter != nil {
		conds = append(conds, "created_at >= "+arg(*f.CreatedAfter))
	}
	if f.CreatedBefore != nil {
		conds = append(conds, "created_at <= "+arg(*f.CreatedBefore))
	}
	if f.DueAfter != nil {
		conds = append(conds, "due_date >= "+arg(*f.DueAfter))
	}
	if f.DueBefore != nil {
		conds = append(conds, "due_date <= "+arg(*f.DueBefore))
	}
	if f.Search != nil {
		pattern := "%" + *f.Search + "%"
		conds = append(conds, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", arg(pattern), arg(pattern)))
	}
	if f.HasDueDate != nil {
		if *f.HasDueDate {
			conds = append(conds, "due_date IS NOT NULL")
		} else {
			conds = append(conds, "due_date IS NULL")
		}
	}
	if f.IsOverdue != nil {
		// The reference time was captured when the filter was built;
		// both branches reuse it instead of calling now() in SQL.
		now := f.EffectiveNow()
		if *f.IsOverdue {
			conds = append(conds, fmt.Sprintf(
				"(due_date IS NOT NULL AND due_date < %s AND status <> %s)",
				arg(now), arg(models.StatusCompleted)))
		} else {
			conds = append(conds, fmt.Sprintf(
				"(due_date IS NULL OR due_date >= %s OR status = %s)",
				arg(now), arg(models.StatusCompleted)))
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, "\n  AND "), args
}

// buildSelectQuery renders the full page query: conditions, ordering,
// limit and offset.
func buildSelectQuery(f services.TaskFilter, sort services.Sort, page services.Page) (string, []any) {
	where, args := buildWhere(f)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(taskColumns)
	sb.WriteString("\nFROM tasks")
	sb.WriteString(where)
	sb.WriteString("\nORDER BY ")
	sb.WriteString(orderClause(sort))

	args = append(args, page.Limit())
	sb.WriteString(fmt.Sprintf("\nLIMIT $%d", len(args)))
	args = append(args, page.Offset())
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	return sb.String(), args
}

// buildCountQuery renders the count query from the same conditions as
// the page query, without ordering or pagination.
func buildCountQuery(f services.TaskFilter) (string, []any) {
	where, args := buildWhere(f)
	return "SELECT count(*)\nFROM tasks" + where, args
}

// orderClause interpolates the sort column into SQL; the field must
// have passed the sortable-field whitelist already. An unvetted field
// reaching this point is a caller defect.
func orderClause(sort services.Sort) string {
	if _, ok := models.SortableFields[sort.Field]; !ok {
		panic(fmt.Sprintf("postgres: unsortable field %q", sort.Field))
	}
	dir := "ASC"
	if sort.Direction == services.SortDesc {
		dir = "DESC"
	}
	return sort.Field + " " + dir
}
