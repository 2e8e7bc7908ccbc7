package models

import "time"

const (
	CompletionManual  = "manual"
	CompletionExpired = "expired"
)

// QuizAttempt is one scored quiz session. Re-running a quiz creates a new
// attempt; earlier attempts are never mutated.
type QuizAttempt struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	UserID         string    `bson:"user_id" json:"user_id"`
	QuizID         string    `bson:"quiz_id" json:"quiz_id"`
	SessionToken   string    `bson:"session_token" json:"session_token"`
	Score          float64   `bson:"score" json:"score"`
	Passed         bool      `bson:"passed" json:"passed"`
	CorrectCount   int       `bson:"correct_count" json:"correct_count"`
	TotalQuestions int       `bson:"total_questions" json:"total_questions"`
	XPGranted      int       `bson:"xp_granted" json:"xp_granted"`
	CompletionType string    `bson:"completion_type" json:"completion_type"`
	StartedAt      time.Time `bson:"started_at" json:"started_at"`
	FinishedAt     time.Time `bson:"finished_at" json:"finished_at"`
}
