package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/task-api/internal/services"
	"github.com/example/task-api/internal/storage/postgres"
)

const (
	storeCtxKey     = "task_store"
	requestIDCtxKey = "request_id"

	requestIDHeader = "X-Request-Id"
)

func (h *handlerImpl) HandleRequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set(requestIDCtxKey, requestID)
	c.Header(requestIDHeader, requestID)
	c.Next()
}

// HandleTxMiddleware scopes one storage session to the request: a
// transaction is begun before the handler runs and always released
// afterwards, committed unless the handler failed server-side or
// panicked.
func (h *handlerImpl) HandleTxMiddleware(c *gin.Context) {
	tx, err := h.pgPool.Begin(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	done := false
	defer func() {
		if !done {
			// Reached on panic; the rollback must not depend on the
			// request context still being alive.
			_ = tx.Rollback(context.WithoutCancel(c))
		}
	}()

	c.Set(storeCtxKey, services.TaskStore(postgres.NewStore(tx)))
	c.Next()
	done = true

	if c.Writer.Status() >= http.StatusInternalServerError {
		if err = tx.Rollback(context.WithoutCancel(c)); err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to rollback transaction")
		}
		return
	}

	if err = tx.Commit(context.WithoutCancel(c)); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
	}
}

// storeFromContext fetches the request's storage session. Running a
// task handler without a store-injecting middleware is a programming
// error.
func storeFromContext(c *gin.Context) services.TaskStore {
	value, exists := c.Get(storeCtxKey)
	if !exists {
		panic("v1: no task store in request context")
	}
	store, ok := value.(services.TaskStore)
	if !ok {
		panic("v1: task store context value has wrong type")
	}
	return store
}
