package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/task-api/internal/services"
)

const unprocessableEntity = http.StatusUnprocessableEntity

// respondError maps the core's closed error taxonomy onto status
// codes: validation failures are 422, missing ids 404, storage and
// anything unrecognized 500.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var storageErr *services.StorageError

	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(unprocessableEntity, gin.H{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.As(err, &notFoundErr):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":       notFoundErr.Error(),
			"missing_ids": notFoundErr.IDs,
		})
	case errors.As(err, &storageErr):
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": http.StatusText(http.StatusInternalServerError),
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": http.StatusText(http.StatusInternalServerError),
		})
	}
}

func abortBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
