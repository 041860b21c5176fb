package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/example/task-api/internal/services"
)

type Handler interface {
	HandleRequestIDMiddleware(c *gin.Context)
	HandleTxMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleGetTasksByStatus(c *gin.Context)
	HandleGetTasksByPriority(c *gin.Context)
	HandleBulkUpdateTasks(c *gin.Context)
	HandleBulkDeleteTasks(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	tasks  services.TaskService
	// pgPool backs the per-request transaction middleware. Tests run
	// the handlers against an in-memory store injected by their own
	// middleware and leave it nil.
	pgPool *pgxpool.Pool
}

func New(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		tasks:  taskService,
		pgPool: pgPool,
	}
}
