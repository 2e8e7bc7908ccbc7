package service

import (
	"context"
	"time"

	"progress-service/internal/models"
)

// Narrow store interfaces over the Mongo repositories. Services depend on
// these so the idempotency and end-to-end properties can be tested against
// in-memory fakes.

type LearnerStore interface {
	FindOrCreate(ctx context.Context, userID string, maxHearts int, now time.Time) (*models.LearnerState, error)
	FindByUser(ctx context.Context, userID string) (*models.LearnerState, error)
	SaveVersioned(ctx context.Context, st *models.LearnerState, now time.Time) error
	AddXP(ctx context.Context, userID string, amount int, now time.Time) error
	AwardMilestone(ctx context.Context, userID string, milestone, bonusXP int, now time.Time) (bool, error)
}

type ContentStore interface {
	FindUnit(ctx context.Context, id string) (*models.Unit, error)
	FindExercise(ctx context.Context, id string) (*models.Exercise, error)
	FindExercisesByIDs(ctx context.Context, ids []string) ([]*models.Exercise, error)
	FindQuiz(ctx context.Context, id string) (*models.Quiz, error)
}

type AnswerStore interface {
	Create(ctx context.Context, answer *models.AnswerRecord) error
}

type AttemptStore interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	FindByID(ctx context.Context, id string) (*models.QuizAttempt, error)
	FindByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error)
}
