package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"progress-service/internal/models"
	"progress-service/internal/progress"
)

// ProgressLister is the read surface for progress listings; satisfied by the
// progress repository.
type ProgressLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.UnitProgress, error)
}

// AnswerLister exposes the per-unit answer history; satisfied by the answer
// repository.
type AnswerLister interface {
	FindByUserUnit(ctx context.Context, userID, unitID string) ([]models.AnswerRecord, error)
}

type ProgressHandler struct {
	Tracker *progress.Tracker
	Lister  ProgressLister
	Answers AnswerLister
}

func NewProgressHandler(tracker *progress.Tracker, lister ProgressLister, answers AnswerLister) *ProgressHandler {
	return &ProgressHandler{Tracker: tracker, Lister: lister, Answers: answers}
}

// GetUnitStatus reports where the caller stands on one unit; units never
// touched report not_started.
func (h *ProgressHandler) GetUnitStatus(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	unitID := c.Param("unitId")

	status, err := h.Tracker.Status(context.Background(), uid, unitID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unit_id": unitID, "status": status})
}

// ListProgress returns every progress record the caller has.
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	records, err := h.Lister.ListByUser(context.Background(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": records})
}

// ListUnitAnswers returns the caller's answer history for one unit, for
// review screens.
func (h *ProgressHandler) ListUnitAnswers(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	answers, err := h.Answers.FindByUserUnit(context.Background(), uid, c.Param("unitId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}
