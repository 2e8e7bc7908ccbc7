package models

import "time"

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// UnitProgress tracks one (learner, unit) pair. Status is monotonic:
// not_started -> in_progress -> completed, never backwards. The transition to
// completed happens at most once; the completion bonus is keyed off that
// single transition.
type UnitProgress struct {
	ID                 string     `bson:"_id,omitempty" json:"id"`
	UserID             string     `bson:"user_id" json:"user_id"`
	UnitID             string     `bson:"unit_id" json:"unit_id"`
	UnitType           UnitType   `bson:"unit_type" json:"unit_type"`
	Status             string     `bson:"status" json:"status"`
	ExercisesCompleted int        `bson:"exercises_completed" json:"exercises_completed"`
	TotalExercises     int        `bson:"total_exercises" json:"total_exercises"`
	Score              float64    `bson:"score,omitempty" json:"score,omitempty"`
	Passed             bool       `bson:"passed,omitempty" json:"passed,omitempty"`
	TimeSpentSeconds   int        `bson:"time_spent_seconds" json:"time_spent_seconds"`
	StartedAt          time.Time  `bson:"started_at" json:"started_at"`
	CompletedAt        *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}
