package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"progress-service/internal/evaluator"
	"progress-service/internal/repository"
	"progress-service/internal/session"
)

// respondError maps the service-layer sentinels onto HTTP statuses. Anything
// unrecognized is a 500; the sentinel wrapping keeps content-vs-session
// not-found distinguishable in the message while sharing the status.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, evaluator.ErrInvalidSubmission), errors.Is(err, session.ErrUnknownQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// userID pulls the authenticated user from the header set by the gateway's
// auth middleware. Empty means the request never passed authentication.
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID is required"})
		return "", false
	}
	return id, true
}
