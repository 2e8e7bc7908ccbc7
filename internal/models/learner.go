package models

import "time"

// LearnerState is the single long-lived gamification record per learner.
// XP only ever grows; hearts stay within [0, max]; Version backs the
// optimistic concurrency check used by the learner repository.
type LearnerState struct {
	ID                string    `bson:"_id,omitempty" json:"id"`
	UserID            string    `bson:"user_id" json:"user_id"`
	XP                int       `bson:"xp" json:"xp"`
	Hearts            int       `bson:"hearts" json:"hearts"`
	LastHeartRegenAt  time.Time `bson:"last_heart_regen_at,omitempty" json:"last_heart_regen_at,omitempty"`
	Streak            int       `bson:"streak" json:"streak"`
	LastActivityAt    time.Time `bson:"last_activity_at,omitempty" json:"last_activity_at,omitempty"`
	MilestonesAwarded []int     `bson:"milestones_awarded,omitempty" json:"milestones_awarded,omitempty"`
	Version           int       `bson:"version" json:"version"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMilestone reports whether the streak milestone bonus was already granted.
func (s *LearnerState) HasMilestone(days int) bool {
	for _, m := range s.MilestonesAwarded {
		if m == days {
			return true
		}
	}
	return false
}
