// Package progress drives the per-(learner, unit) record through
// not_started -> in_progress -> completed. The completed transition is a
// guarded, conditional store update; its outcome is the single source of
// truth for "first completion", so duplicate or racing calls can never
// trigger the bonus twice.
package progress

import (
	"context"
	"time"

	"progress-service/internal/models"
)

// Store is the persistence the tracker relies on. Every mutation is
// conditional: RecordExercise only applies while the unit is unfinished,
// MarkCompleted only applies while status is not completed and reports
// whether this call made the transition.
type Store interface {
	Get(ctx context.Context, userID, unitID string) (*models.UnitProgress, error)
	EnsureStarted(ctx context.Context, userID, unitID string, unitType models.UnitType, totalExercises int, now time.Time) (*models.UnitProgress, error)
	RecordExercise(ctx context.Context, userID, unitID string, timeSpentSeconds int) error
	MarkCompleted(ctx context.Context, userID, unitID string, score float64, passed bool, now time.Time) (bool, error)
}

// Result describes what one call did to the progress record.
type Result struct {
	Status           string
	FirstCompletion  bool
	AlreadyCompleted bool
}

type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// EnsureStarted moves a unit to in_progress on first contact. Idempotent for
// units already in progress or completed.
func (t *Tracker) EnsureStarted(ctx context.Context, userID, unitID string, unitType models.UnitType, totalExercises int, now time.Time) (*models.UnitProgress, error) {
	return t.store.EnsureStarted(ctx, userID, unitID, unitType, totalExercises, now)
}

// RecordExerciseResult counts one answered exercise toward the topic.
// Finishing the exercise set completes the unit regardless of correctness;
// replays against a completed unit change nothing.
func (t *Tracker) RecordExerciseResult(ctx context.Context, userID string, unit *models.Unit, timeSpentSeconds int, now time.Time) (*Result, error) {
	p, err := t.store.EnsureStarted(ctx, userID, unit.ID, models.UnitTopic, len(unit.ExerciseIDs), now)
	if err != nil {
		return nil, err
	}
	if p.Status == models.StatusCompleted {
		return &Result{Status: models.StatusCompleted, AlreadyCompleted: true}, nil
	}

	if err := t.store.RecordExercise(ctx, userID, unit.ID, timeSpentSeconds); err != nil {
		return nil, err
	}
	p, err = t.store.Get(ctx, userID, unit.ID)
	if err != nil {
		return nil, err
	}

	if p.Status != models.StatusCompleted && p.ExercisesCompleted >= p.TotalExercises {
		first, err := t.store.MarkCompleted(ctx, userID, unit.ID, 0, false, now)
		if err != nil {
			return nil, err
		}
		return &Result{Status: models.StatusCompleted, FirstCompletion: first}, nil
	}
	if p.Status == models.StatusCompleted {
		// A concurrent submission finished the unit between our update and
		// read; it owns the completion.
		return &Result{Status: models.StatusCompleted, AlreadyCompleted: true}, nil
	}
	return &Result{Status: p.Status}, nil
}

// CompleteQuiz records a scored attempt against the quiz unit. Only the
// first completion keeps its score on the progress record and earns the
// bonus; later attempts live in the attempt history.
func (t *Tracker) CompleteQuiz(ctx context.Context, userID string, quiz *models.Quiz, score float64, passed bool, now time.Time) (*Result, error) {
	if _, err := t.store.EnsureStarted(ctx, userID, quiz.ID, models.UnitQuiz, len(quiz.ExerciseIDs), now); err != nil {
		return nil, err
	}
	first, err := t.store.MarkCompleted(ctx, userID, quiz.ID, score, passed, now)
	if err != nil {
		return nil, err
	}
	return &Result{
		Status:           models.StatusCompleted,
		FirstCompletion:  first,
		AlreadyCompleted: !first,
	}, nil
}

// Status reports the unit's progress state, not_started when no record
// exists yet.
func (t *Tracker) Status(ctx context.Context, userID, unitID string) (string, error) {
	p, err := t.store.Get(ctx, userID, unitID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return models.StatusNotStarted, nil
	}
	return p.Status, nil
}
