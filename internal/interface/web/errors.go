package web

import (
	"errors"
	"net/http"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/gin-gonic/gin"
)

func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as a JSON error. Failures that are not the
// caller's fault are also attached to the context for reporting.
func abortWithError(c *gin.Context, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		// nolint:all
		c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
