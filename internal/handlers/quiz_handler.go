package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"progress-service/internal/models"
	"progress-service/internal/service"
)

type QuizHandler struct {
	Service *service.QuizService
}

func NewQuizHandler(s *service.QuizService) *QuizHandler {
	return &QuizHandler{Service: s}
}

// StartSession opens a timed attempt on a quiz and returns the question
// views without answer keys.
func (h *QuizHandler) StartSession(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	quizID := c.Param("quizId")

	res, err := h.Service.StartSession(context.Background(), uid, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// RecordAnswer stores one answer on a running session. Answers may be
// changed until the session finishes.
func (h *QuizHandler) RecordAnswer(c *gin.Context) {
	token := c.Param("token")

	var req struct {
		ExerciseID string            `json:"exercise_id" binding:"required"`
		Value      string            `json:"value"`
		Values     []string          `json:"values"`
		Pairs      map[string]string `json:"pairs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	sub := models.Submission{Value: req.Value, Values: req.Values, Pairs: req.Pairs}
	if err := h.Service.RecordAnswer(token, req.ExerciseID, sub); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

// GetSession reports the running session's state and remaining time.
func (h *QuizHandler) GetSession(c *gin.Context) {
	status, err := h.Service.SessionStatus(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SubmitSession finishes the attempt. Answers in the body top up anything
// recorded along the way.
func (h *QuizHandler) SubmitSession(c *gin.Context) {
	token := c.Param("token")

	var req struct {
		Answers map[string]models.Submission `json:"answers"`
	}
	// An empty body is a valid submit of whatever was recorded.
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	score, err := h.Service.SubmitSession(context.Background(), token, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

// AbandonSession discards a running session without scoring it.
func (h *QuizHandler) AbandonSession(c *gin.Context) {
	if err := h.Service.AbandonSession(c.Param("token")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"abandoned": true})
}

// ListAttempts returns the caller's scored attempts, newest first.
func (h *QuizHandler) ListAttempts(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	attempts, err := h.Service.AttemptsByUser(context.Background(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}

// GetAttempt returns one scored attempt with its recorded answers.
func (h *QuizHandler) GetAttempt(c *gin.Context) {
	attempt, err := h.Service.AttemptByID(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}
