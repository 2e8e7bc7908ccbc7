package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"progress-service/internal/models"
	"progress-service/internal/service"
)

type SubmissionHandler struct {
	Service *service.SubmissionService
}

func NewSubmissionHandler(s *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{Service: s}
}

// SubmitAnswer evaluates one answer for an exercise inside a topic.
func (h *SubmissionHandler) SubmitAnswer(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	unitID := c.Param("unitId")
	exerciseID := c.Param("exerciseId")

	var req struct {
		Value            string            `json:"value"`
		Values           []string          `json:"values"`
		Pairs            map[string]string `json:"pairs"`
		TimeSpentSeconds int               `json:"time_spent_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	sub := models.Submission{Value: req.Value, Values: req.Values, Pairs: req.Pairs}
	res, err := h.Service.SubmitExerciseAnswer(context.Background(), uid, unitID, exerciseID, sub, req.TimeSpentSeconds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
