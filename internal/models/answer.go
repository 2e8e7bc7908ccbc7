package models

import "time"

// AnswerRecord is the audit trail for one submitted answer. The engine never
// reads these back for decisions; they feed attempt review screens and the
// time-spent metric on progress records.
type AnswerRecord struct {
	ID               string     `bson:"_id,omitempty" json:"id"`
	UserID           string     `bson:"user_id" json:"user_id"`
	UnitID           string     `bson:"unit_id" json:"unit_id"`
	ExerciseID       string     `bson:"exercise_id" json:"exercise_id"`
	SessionToken     string     `bson:"session_token,omitempty" json:"session_token,omitempty"`
	Submitted        Submission `bson:"submitted" json:"submitted"`
	IsCorrect        bool       `bson:"is_correct" json:"is_correct"`
	XPEarned         int        `bson:"xp_earned" json:"xp_earned"`
	TimeSpentSeconds int        `bson:"time_spent_seconds" json:"time_spent_seconds"`
	AnsweredAt       time.Time  `bson:"answered_at" json:"answered_at"`
}
