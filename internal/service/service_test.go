package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"progress-service/internal/config"
	"progress-service/internal/models"
	"progress-service/internal/repository"
)

// In-memory fakes mirroring the conditional-update semantics of the Mongo
// repositories, so the service flows can be exercised without a database.

type fakeLearnerStore struct {
	mu     sync.Mutex
	states map[string]*models.LearnerState
}

func newFakeLearnerStore() *fakeLearnerStore {
	return &fakeLearnerStore{states: make(map[string]*models.LearnerState)}
}

func (f *fakeLearnerStore) seed(st *models.LearnerState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st.ID == "" {
		st.ID = st.UserID
	}
	f.states[st.UserID] = st
}

func copyState(st *models.LearnerState) *models.LearnerState {
	cp := *st
	cp.MilestonesAwarded = append([]int(nil), st.MilestonesAwarded...)
	return &cp
}

func (f *fakeLearnerStore) FindOrCreate(_ context.Context, userID string, maxHearts int, now time.Time) (*models.LearnerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[userID]
	if !ok {
		st = &models.LearnerState{
			ID:        userID,
			UserID:    userID,
			Hearts:    maxHearts,
			CreatedAt: now,
			UpdatedAt: now,
		}
		f.states[userID] = st
	}
	return copyState(st), nil
}

func (f *fakeLearnerStore) FindByUser(_ context.Context, userID string) (*models.LearnerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyState(st), nil
}

func (f *fakeLearnerStore) SaveVersioned(_ context.Context, st *models.LearnerState, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.states[st.UserID]
	if !ok || cur.Version != st.Version {
		return repository.ErrVersionConflict
	}
	// Only the reducer-owned fields are written; xp and the milestone set
	// flow through their own additive updates.
	cur.Hearts = st.Hearts
	cur.LastHeartRegenAt = st.LastHeartRegenAt
	cur.Streak = st.Streak
	cur.LastActivityAt = st.LastActivityAt
	cur.Version++
	cur.UpdatedAt = now
	st.Version = cur.Version
	st.UpdatedAt = now
	return nil
}

func (f *fakeLearnerStore) AddXP(_ context.Context, userID string, amount int, _ time.Time) error {
	if amount <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[userID]
	if !ok {
		return repository.ErrNotFound
	}
	st.XP += amount
	return nil
}

func (f *fakeLearnerStore) AwardMilestone(_ context.Context, userID string, milestone, bonusXP int, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[userID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if st.HasMilestone(milestone) {
		return false, nil
	}
	st.MilestonesAwarded = append(st.MilestonesAwarded, milestone)
	st.XP += bonusXP
	return true, nil
}

type fakeContentStore struct {
	units     map[string]*models.Unit
	exercises map[string]*models.Exercise
	quizzes   map[string]*models.Quiz
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		units:     make(map[string]*models.Unit),
		exercises: make(map[string]*models.Exercise),
		quizzes:   make(map[string]*models.Quiz),
	}
}

func (f *fakeContentStore) FindUnit(_ context.Context, id string) (*models.Unit, error) {
	u, ok := f.units[id]
	if !ok {
		return nil, fmt.Errorf("unit %s: %w", id, repository.ErrNotFound)
	}
	return u, nil
}

func (f *fakeContentStore) FindExercise(_ context.Context, id string) (*models.Exercise, error) {
	ex, ok := f.exercises[id]
	if !ok {
		return nil, fmt.Errorf("exercise %s: %w", id, repository.ErrNotFound)
	}
	return ex, nil
}

func (f *fakeContentStore) FindExercisesByIDs(ctx context.Context, ids []string) ([]*models.Exercise, error) {
	out := make([]*models.Exercise, 0, len(ids))
	for _, id := range ids {
		ex, err := f.FindExercise(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

func (f *fakeContentStore) FindQuiz(_ context.Context, id string) (*models.Quiz, error) {
	q, ok := f.quizzes[id]
	if !ok {
		return nil, fmt.Errorf("quiz %s: %w", id, repository.ErrNotFound)
	}
	return q, nil
}

type fakeAnswerStore struct {
	mu      sync.Mutex
	records []*models.AnswerRecord
}

func (f *fakeAnswerStore) Create(_ context.Context, answer *models.AnswerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, answer)
	return nil
}

func (f *fakeAnswerStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts []*models.QuizAttempt
}

func (f *fakeAttemptStore) Create(_ context.Context, attempt *models.QuizAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt.ID = fmt.Sprintf("attempt-%d", len(f.attempts)+1)
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeAttemptStore) FindByID(_ context.Context, id string) (*models.QuizAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAttemptStore) FindByUser(_ context.Context, userID string) ([]models.QuizAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QuizAttempt
	for _, a := range f.attempts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) all() []*models.QuizAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.QuizAttempt, len(f.attempts))
	copy(out, f.attempts)
	return out
}

type fakeProgressStore struct {
	mu      sync.Mutex
	records map[string]*models.UnitProgress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{records: make(map[string]*models.UnitProgress)}
}

func progressKey(userID, unitID string) string { return userID + "/" + unitID }

func (f *fakeProgressStore) Get(_ context.Context, userID, unitID string) (*models.UnitProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.records[progressKey(userID, unitID)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgressStore) EnsureStarted(_ context.Context, userID, unitID string, unitType models.UnitType, totalExercises int, now time.Time) (*models.UnitProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := progressKey(userID, unitID)
	p, ok := f.records[key]
	if !ok {
		p = &models.UnitProgress{
			UserID:         userID,
			UnitID:         unitID,
			UnitType:       unitType,
			Status:         models.StatusInProgress,
			TotalExercises: totalExercises,
			StartedAt:      now,
		}
		f.records[key] = p
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgressStore) RecordExercise(_ context.Context, userID, unitID string, timeSpentSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.records[progressKey(userID, unitID)]
	if !ok {
		return nil
	}
	if p.Status != models.StatusCompleted && p.ExercisesCompleted < p.TotalExercises {
		p.ExercisesCompleted++
		p.TimeSpentSeconds += timeSpentSeconds
	}
	return nil
}

func (f *fakeProgressStore) MarkCompleted(_ context.Context, userID, unitID string, score float64, passed bool, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.records[progressKey(userID, unitID)]
	if !ok || p.Status == models.StatusCompleted {
		return false, nil
	}
	p.Status = models.StatusCompleted
	p.Score = score
	p.Passed = passed
	p.CompletedAt = &now
	return true, nil
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		MaxHearts:          50,
		HeartRegenPolicy:   config.RegenPolicyCooldown,
		HeartRegenCooldown: 30 * time.Minute,
		XPPerExercise:      10,
		TopicBonusXP:       50,
		QuizBonusXP:        50,
		QuizPassingScore:   70,
		StreakMilestones:   []int{7, 30, 100},
		MilestoneBonusXP:   50,
		Timezone:           time.UTC,
	}
}
