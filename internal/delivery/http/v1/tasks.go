package v1

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/task-api/internal/models"
	"github.com/example/task-api/internal/services"
)

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abortBadRequest(c, "invalid request body")
		return
	}

	task, err := h.tasks.CreateTask(c, storeFromContext(c), req.toParams())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	query, applied, err := parseListQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.tasks.ListTasks(c, storeFromContext(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskListResponse{
		Tasks:          newTaskResponses(page.Tasks),
		Total:          page.Total,
		Page:           page.Page,
		PageSize:       page.PageSize,
		TotalPages:     page.TotalPages,
		HasNext:        page.HasNext,
		HasPrevious:    page.HasPrevious,
		FiltersApplied: applied,
	})
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, storeFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abortBadRequest(c, "invalid request body")
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.tasks.UpdateTask(c, storeFromContext(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c, storeFromContext(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted successfully"})
}

func (h *handlerImpl) HandleGetTasksByStatus(c *gin.Context) {
	tasks, err := h.tasks.ListTasksByStatus(c, storeFromContext(c), c.Param("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponses(tasks))
}

func (h *handlerImpl) HandleGetTasksByPriority(c *gin.Context) {
	tasks, err := h.tasks.ListTasksByPriority(c, storeFromContext(c), c.Param("priority"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponses(tasks))
}

func (h *handlerImpl) HandleBulkUpdateTasks(c *gin.Context) {
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abortBadRequest(c, "invalid request body")
		return
	}

	patch, err := req.UpdateData.toPatch()
	if err != nil {
		respondError(c, err)
		return
	}

	tasks, err := h.tasks.BulkUpdateTasks(c, storeFromContext(c), req.TaskIDs, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bulkOperationResponse{
		Success:       true,
		Message:       fmt.Sprintf("successfully updated %d tasks", len(tasks)),
		AffectedCount: len(tasks),
		Tasks:         newTaskResponses(tasks),
	})
}

func (h *handlerImpl) HandleBulkDeleteTasks(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abortBadRequest(c, "invalid request body")
		return
	}

	deleted, err := h.tasks.BulkDeleteTasks(c, storeFromContext(c), req.TaskIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bulkOperationResponse{
		Success:       true,
		Message:       fmt.Sprintf("successfully deleted %d tasks", deleted),
		AffectedCount: int(deleted),
	})
}

func taskIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "task id must be an integer")
		return 0, false
	}
	return id, true
}

// parseListQuery turns the raw query string into the typed filter,
// sort and page values the core consumes, plus an echo of the axes the
// client actually supplied. The core never sees raw strings.
func parseListQuery(c *gin.Context) (services.ListTasksQuery, map[string]any, error) {
	var query services.ListTasksQuery
	applied := make(map[string]any)

	pageNumber, err := intQuery(c, "page", 1)
	if err != nil {
		return query, nil, err
	}
	pageSize, err := intQuery(c, "page_size", 10)
	if err != nil {
		return query, nil, err
	}
	query.Page, err = services.NewPage(pageNumber, pageSize)
	if err != nil {
		return query, nil, err
	}

	filter := &query.Filter
	if v, ok := c.GetQuery("status"); ok {
		if !models.IsValidStatus(v) {
			return query, nil, services.NewValidationError("status", fmt.Sprintf("invalid status %q", v))
		}
		filter.Status = &v
		applied["status"] = v
	}
	if v, ok := c.GetQuery("priority"); ok {
		if !models.IsValidPriority(v) {
			return query, nil, services.NewValidationError("priority", fmt.Sprintf("invalid priority %q", v))
		}
		filter.Priority = &v
		applied["priority"] = v
	}
	if v, ok := c.GetQuery("assigned_to"); ok {
		filter.AssignedTo = &v
		applied["assigned_to"] = v
	}
	if v, ok := c.GetQuery("search"); ok {
		filter.Search = &v
		applied["search"] = v
	}

	if filter.CreatedAfter, err = timeQuery(c, "created_after", applied); err != nil {
		return query, nil, err
	}
	if filter.CreatedBefore, err = timeQuery(c, "created_before", applied); err != nil {
		return query, nil, err
	}
	if filter.DueAfter, err = timeQuery(c, "due_after", applied); err != nil {
		return query, nil, err
	}
	if filter.DueBefore, err = timeQuery(c, "due_before", applied); err != nil {
		return query, nil, err
	}

	if filter.HasDueDate, err = boolQuery(c, "has_due_date", applied); err != nil {
		return query, nil, err
	}
	if filter.IsOverdue, err = boolQuery(c, "is_overdue", applied); err != nil {
		return query, nil, err
	}
	if filter.IsOverdue != nil {
		// One captured instant serves the whole request.
		filter.Now = time.Now()
	}

	sortBy, sortSupplied := c.GetQuery("sort_by")
	sortOrder, orderSupplied := c.GetQuery("sort_order")
	if !sortSupplied {
		sortBy = services.DefaultSort().Field
	}
	if !orderSupplied {
		sortOrder = services.DefaultSort().Direction
	}
	query.Sort, err = services.NewSort(sortBy, sortOrder)
	if err != nil {
		return query, nil, err
	}
	if sortSupplied {
		applied["sort_by"] = sortBy
	}
	if orderSupplied {
		applied["sort_order"] = sortOrder
	}

	return query, applied, nil
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	v, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, services.NewValidationError(name, fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

func boolQuery(c *gin.Context, name string, applied map[string]any) (*bool, error) {
	v, ok := c.GetQuery(name)
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, services.NewValidationError(name, fmt.Sprintf("%s must be a boolean", name))
	}
	applied[name] = b
	return &b, nil
}

var timeQueryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func timeQuery(c *gin.Context, name string, applied map[string]any) (*time.Time, error) {
	v, ok := c.GetQuery(name)
	if !ok {
		return nil, nil
	}
	for _, layout := range timeQueryLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			applied[name] = v
			return &t, nil
		}
	}
	return nil, services.NewValidationError(name, fmt.Sprintf("%s must be a timestamp", name))
}
