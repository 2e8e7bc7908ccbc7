// Package rewards computes XP grants. It never persists anything and never
// decides first-completion on its own: the progress state machine's
// transition result is the only trigger for completion bonuses, which keeps
// concurrent submissions from double-awarding.
package rewards

import (
	"progress-service/internal/config"
	"progress-service/internal/models"
	"progress-service/internal/streak"
)

type Ledger struct {
	cfg config.GameConfig
}

func NewLedger(cfg config.GameConfig) *Ledger {
	return &Ledger{cfg: cfg}
}

// ExerciseXP is the grant for one correctly solved exercise.
// Replaying a unit that is already completed yields no XP unless practice XP
// is enabled; at zero hearts the grant is suppressed only when configured.
func (l *Ledger) ExerciseXP(ex *models.Exercise, correct bool, unitAlreadyCompleted bool, heartsRemaining int) int {
	if !correct {
		return 0
	}
	if unitAlreadyCompleted && !l.cfg.PracticeXPEnabled {
		return 0
	}
	if heartsRemaining <= 0 && l.cfg.SuppressXPAtZeroHearts {
		return 0
	}
	if ex.XP > 0 {
		return ex.XP
	}
	return l.cfg.XPPerExercise
}

// CompletionBonus fires only for the first transition to completed, as
// reported by the progress state machine. unitBonus overrides the configured
// default when the content document carries its own amount.
func (l *Ledger) CompletionBonus(unitType models.UnitType, unitBonus int, firstCompletion bool) int {
	if !firstCompletion {
		return 0
	}
	if unitBonus > 0 {
		return unitBonus
	}
	if unitType == models.UnitQuiz {
		return l.cfg.QuizBonusXP
	}
	return l.cfg.TopicBonusXP
}

// PendingMilestones lists milestones crossed by a streak change that have
// not been awarded yet. The caller grants each through a guarded update and
// only counts the ones the guard let through.
func (l *Ledger) PendingMilestones(st *models.LearnerState, prevStreak int) []int {
	var pending []int
	for _, m := range streak.CrossedMilestones(prevStreak, st.Streak, l.cfg.StreakMilestones) {
		if !st.HasMilestone(m) {
			pending = append(pending, m)
		}
	}
	return pending
}

func (l *Ledger) MilestoneBonusXP() int {
	return l.cfg.MilestoneBonusXP
}
