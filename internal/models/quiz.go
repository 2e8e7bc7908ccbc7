package models

type UnitType string

const (
	UnitTopic UnitType = "topic"
	UnitQuiz  UnitType = "quiz"
)

// Unit is a topic: an ordered set of exercises answered one at a time.
type Unit struct {
	ID          string   `bson:"_id,omitempty" json:"id"`
	Title       string   `bson:"title" json:"title"`
	Description string   `bson:"description" json:"description"`
	ExerciseIDs []string `bson:"exercise_ids" json:"exercise_ids"`
	BonusXP     int      `bson:"bonus_xp,omitempty" json:"bonus_xp,omitempty"`
}

// Quiz is a timed multi-question unit answered inside one attempt session.
type Quiz struct {
	ID              string   `bson:"_id,omitempty" json:"id"`
	Title           string   `bson:"title" json:"title"`
	Description     string   `bson:"description" json:"description"`
	ExerciseIDs     []string `bson:"exercise_ids" json:"exercise_ids"`
	DurationSeconds int      `bson:"duration_seconds" json:"duration_seconds"`
	PassingScore    float64  `bson:"passing_score" json:"passing_score"`
	BonusXP         int      `bson:"bonus_xp,omitempty" json:"bonus_xp,omitempty"`
}
