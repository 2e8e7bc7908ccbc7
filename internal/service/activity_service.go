package service

import (
	"context"
	"errors"
	"time"

	"progress-service/internal/config"
	"progress-service/internal/event"
	"progress-service/internal/hearts"
	"progress-service/internal/models"
	"progress-service/internal/repository"
	"progress-service/internal/rewards"
	"progress-service/internal/streak"
)

// ActivityService covers the learner-state surface that is not tied to a
// single answer: explicit daily check-ins and state reads. A check-in counts
// as qualifying activity for the streak even when no exercise was solved.
type ActivityService struct {
	Learners  LearnerStore
	Hearts    *hearts.Ledger
	Rewards   *rewards.Ledger
	Publisher *event.EventPublisher
	Game      config.GameConfig
	Now       func() time.Time
}

func NewActivityService(learners LearnerStore, game config.GameConfig, publisher *event.EventPublisher) *ActivityService {
	return &ActivityService{
		Learners:  learners,
		Hearts:    hearts.NewLedger(game),
		Rewards:   rewards.NewLedger(game),
		Publisher: publisher,
		Game:      game,
		Now:       time.Now,
	}
}

type ActivityResult struct {
	Streak           int  `json:"streak"`
	StreakChanged    bool `json:"streak_changed"`
	MilestoneBonusXP int  `json:"milestone_bonus_xp"`
}

type StateView struct {
	UserID                string    `json:"user_id"`
	XP                    int       `json:"xp"`
	Hearts                int       `json:"hearts"`
	MaxHearts             int       `json:"max_hearts"`
	MinutesUntilNextHeart int       `json:"minutes_until_next_heart"`
	Streak                int       `json:"streak"`
	LastActivityAt        time.Time `json:"last_activity_at,omitempty"`
	MilestonesAwarded     []int     `json:"milestones_awarded,omitempty"`
}

// RecordDailyActivity advances the streak for today and pays out any
// milestone crossed by the advance. Calling it again on the same day is a
// no-op beyond refreshing the activity timestamp.
func (s *ActivityService) RecordDailyActivity(ctx context.Context, userID string) (*ActivityResult, error) {
	now := s.Now()

	var st *models.LearnerState
	var prevStreak int
	var changed bool
	var err error
	for i := 0; i < saveRetries; i++ {
		st, err = s.Learners.FindOrCreate(ctx, userID, s.Hearts.MaxHearts(), now)
		if err != nil {
			return nil, err
		}
		s.Hearts.Regenerate(st, now)
		prevStreak = st.Streak
		changed = streak.RecordActivity(st, now, s.Game.Timezone).Changed
		err = s.Learners.SaveVersioned(ctx, st, now)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	bonus := 0
	for _, m := range s.Rewards.PendingMilestones(st, prevStreak) {
		ok, awardErr := s.Learners.AwardMilestone(ctx, userID, m, s.Rewards.MilestoneBonusXP(), now)
		if awardErr != nil || !ok {
			continue
		}
		bonus += s.Rewards.MilestoneBonusXP()
		s.Publisher.Publish(event.StreakMilestone, map[string]interface{}{
			"user_id": userID, "milestone": m,
		})
	}

	if changed {
		s.Publisher.Publish(event.StreakAdvanced, map[string]interface{}{
			"user_id": userID, "streak": st.Streak,
		})
	}

	return &ActivityResult{
		Streak:           st.Streak,
		StreakChanged:    changed,
		MilestoneBonusXP: bonus,
	}, nil
}

// GetState reads the learner state, applying any heart regeneration owed
// before reporting. The regenerated state is persisted best-effort; a lost
// version race just means the next reader repeats the catch-up.
func (s *ActivityService) GetState(ctx context.Context, userID string) (*StateView, error) {
	now := s.Now()
	st, err := s.Learners.FindOrCreate(ctx, userID, s.Hearts.MaxHearts(), now)
	if err != nil {
		return nil, err
	}
	before := st.Hearts
	s.Hearts.Regenerate(st, now)
	if st.Hearts != before {
		_ = s.Learners.SaveVersioned(ctx, st, now)
	}
	return &StateView{
		UserID:                st.UserID,
		XP:                    st.XP,
		Hearts:                st.Hearts,
		MaxHearts:             s.Hearts.MaxHearts(),
		MinutesUntilNextHeart: s.Hearts.MinutesUntilNext(st, now),
		Streak:                st.Streak,
		LastActivityAt:        st.LastActivityAt,
		MilestonesAwarded:     st.MilestonesAwarded,
	}, nil
}
