package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"progress-service/internal/service"
)

type LearnerHandler struct {
	Service *service.ActivityService
}

func NewLearnerHandler(s *service.ActivityService) *LearnerHandler {
	return &LearnerHandler{Service: s}
}

// GetState returns the caller's gamification state with heart regeneration
// applied as of now.
func (h *LearnerHandler) GetState(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	view, err := h.Service.GetState(context.Background(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RecordActivity is the explicit daily check-in; opening the app counts for
// the streak even without solving anything.
func (h *LearnerHandler) RecordActivity(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	res, err := h.Service.RecordDailyActivity(context.Background(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
