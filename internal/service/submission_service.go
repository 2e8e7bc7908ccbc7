package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"progress-service/internal/config"
	"progress-service/internal/evaluator"
	"progress-service/internal/event"
	"progress-service/internal/hearts"
	"progress-service/internal/models"
	"progress-service/internal/progress"
	"progress-service/internal/repository"
	"progress-service/internal/rewards"
	"progress-service/internal/streak"
)

// How many times a versioned learner-state write is retried when another
// request slips in between read and write.
const saveRetries = 3

// SubmissionService runs the single-exercise flow: evaluate, debit a heart on
// a miss, advance the streak, move the unit's progress, and grant XP. The
// ordering is fixed: the progress transition persists before any bonus XP so
// a storage failure can leave XP ungranted but never double-granted.
type SubmissionService struct {
	Learners  LearnerStore
	Content   ContentStore
	Answers   AnswerStore
	Progress  *progress.Tracker
	Hearts    *hearts.Ledger
	Rewards   *rewards.Ledger
	Publisher *event.EventPublisher
	Game      config.GameConfig
	Now       func() time.Time
}

func NewSubmissionService(
	learners LearnerStore,
	content ContentStore,
	answers AnswerStore,
	tracker *progress.Tracker,
	game config.GameConfig,
	publisher *event.EventPublisher,
) *SubmissionService {
	return &SubmissionService{
		Learners:  learners,
		Content:   content,
		Answers:   answers,
		Progress:  tracker,
		Hearts:    hearts.NewLedger(game),
		Rewards:   rewards.NewLedger(game),
		Publisher: publisher,
		Game:      game,
		Now:       time.Now,
	}
}

type SubmitResult struct {
	Correct               bool   `json:"correct"`
	HeartsRemaining       int    `json:"hearts_remaining"`
	MinutesUntilNextHeart int    `json:"minutes_until_next_heart"`
	XPGranted             int    `json:"xp_granted"`
	UnitStatus            string `json:"unit_status"`
	Streak                int    `json:"streak"`
}

func (s *SubmissionService) SubmitExerciseAnswer(ctx context.Context, userID, unitID, exerciseID string, sub models.Submission, elapsedSeconds int) (*SubmitResult, error) {
	now := s.Now()

	ex, err := s.Content.FindExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if ex.UnitID != "" && ex.UnitID != unitID {
		return nil, fmt.Errorf("exercise %s is not part of unit %s: %w", exerciseID, unitID, repository.ErrNotFound)
	}
	unit, err := s.Content.FindUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}

	// Malformed submissions are rejected here, before any state mutation.
	correct, err := evaluator.Evaluate(ex, sub)
	if err != nil {
		return nil, err
	}

	st, prevStreak, err := s.applyLearnerUpdate(ctx, userID, correct, now)
	if err != nil {
		return nil, err
	}

	progRes, err := s.Progress.RecordExerciseResult(ctx, userID, unit, elapsedSeconds, now)
	if err != nil {
		return nil, err
	}

	exerciseXP := s.Rewards.ExerciseXP(ex, correct, progRes.AlreadyCompleted, st.Hearts)
	bonusXP := s.Rewards.CompletionBonus(models.UnitTopic, unit.BonusXP, progRes.FirstCompletion)
	granted := exerciseXP + bonusXP

	if exerciseXP+bonusXP > 0 {
		if err := s.Learners.AddXP(ctx, userID, exerciseXP+bonusXP, now); err != nil {
			return nil, err
		}
	}
	granted += s.awardMilestones(ctx, st, prevStreak, now)

	record := &models.AnswerRecord{
		UserID:           userID,
		UnitID:           unitID,
		ExerciseID:       exerciseID,
		Submitted:        sub,
		IsCorrect:        correct,
		XPEarned:         granted,
		TimeSpentSeconds: elapsedSeconds,
		AnsweredAt:       now,
	}
	// Audit trail only; the verdict and grants already stand.
	_ = s.Answers.Create(ctx, record)

	if !correct {
		s.Publisher.Publish(event.HeartSpent, map[string]interface{}{
			"user_id": userID, "hearts_remaining": st.Hearts,
		})
	}
	if progRes.FirstCompletion {
		s.Publisher.Publish(event.UnitCompleted, map[string]interface{}{
			"user_id": userID, "unit_id": unitID, "unit_type": models.UnitTopic,
		})
	}
	if granted > 0 {
		s.Publisher.Publish(event.XPGranted, map[string]interface{}{
			"user_id": userID, "amount": granted,
		})
	}

	return &SubmitResult{
		Correct:               correct,
		HeartsRemaining:       st.Hearts,
		MinutesUntilNextHeart: s.Hearts.MinutesUntilNext(st, now),
		XPGranted:             granted,
		UnitStatus:            progRes.Status,
		Streak:                st.Streak,
	}, nil
}

// applyLearnerUpdate runs the heart and streak reducers against a fresh read
// of the learner state and persists the result under the optimistic version
// check, retrying on conflict. Returns the saved state and the streak value
// before this update.
func (s *SubmissionService) applyLearnerUpdate(ctx context.Context, userID string, correct bool, now time.Time) (*models.LearnerState, int, error) {
	var st *models.LearnerState
	var prevStreak int
	var err error
	for i := 0; i < saveRetries; i++ {
		st, err = s.Learners.FindOrCreate(ctx, userID, s.Hearts.MaxHearts(), now)
		if err != nil {
			return nil, 0, err
		}
		s.Hearts.Regenerate(st, now)
		prevStreak = st.Streak
		streak.RecordActivity(st, now, s.Game.Timezone)
		if !correct {
			s.Hearts.Spend(st, now)
		}
		err = s.Learners.SaveVersioned(ctx, st, now)
		if err == nil {
			return st, prevStreak, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, 0, err
		}
	}
	return nil, 0, err
}

// awardMilestones grants any streak milestone crossed by this update. The
// store guard keeps each milestone single-shot; only grants the guard let
// through count toward the returned XP.
func (s *SubmissionService) awardMilestones(ctx context.Context, st *models.LearnerState, prevStreak int, now time.Time) int {
	granted := 0
	for _, m := range s.Rewards.PendingMilestones(st, prevStreak) {
		ok, err := s.Learners.AwardMilestone(ctx, st.UserID, m, s.Rewards.MilestoneBonusXP(), now)
		if err != nil || !ok {
			continue
		}
		granted += s.Rewards.MilestoneBonusXP()
		s.Publisher.Publish(event.StreakMilestone, map[string]interface{}{
			"user_id": st.UserID, "milestone": m,
		})
	}
	return granted
}
