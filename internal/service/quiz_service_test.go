package service

import (
	"context"
	"testing"
	"time"

	"progress-service/internal/config"
	"progress-service/internal/models"
	"progress-service/internal/progress"
	"progress-service/internal/session"
)

type quizEnv struct {
	svc      *QuizService
	learners *fakeLearnerStore
	content  *fakeContentStore
	answers  *fakeAnswerStore
	attempts *fakeAttemptStore
	progress *fakeProgressStore
}

func newQuizEnv(game config.GameConfig) *quizEnv {
	learners := newFakeLearnerStore()
	content := newFakeContentStore()
	answers := &fakeAnswerStore{}
	attempts := &fakeAttemptStore{}
	progStore := newFakeProgressStore()
	sessions := session.NewStore(nil)
	svc := NewQuizService(sessions, content, learners, answers, attempts, progress.NewTracker(progStore), game, nil)
	return &quizEnv{svc: svc, learners: learners, content: content, answers: answers, attempts: attempts, progress: progStore}
}

func seedQuiz(content *fakeContentStore, quizID string, durationSeconds, questions int) *models.Quiz {
	q := &models.Quiz{
		ID:              quizID,
		Title:           "checkpoint",
		DurationSeconds: durationSeconds,
		PassingScore:    70,
	}
	for i := 0; i < questions; i++ {
		id := quizID + "-q" + string(rune('1'+i))
		q.ExerciseIDs = append(q.ExerciseIDs, id)
		content.exercises[id] = choiceExercise(id, quizID, "a")
	}
	content.quizzes[quizID] = q
	return q
}

func TestQuizManualSubmit(t *testing.T) {
	env := newQuizEnv(testGameConfig())
	quiz := seedQuiz(env.content, "qz1", 0, 5)
	ctx := context.Background()

	start, err := env.svc.StartSession(ctx, "lrn", "qz1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.TotalQuestions != 5 || len(start.Questions) != 5 {
		t.Fatalf("start: got %+v", start)
	}
	if start.Deadline != nil {
		t.Fatalf("untimed quiz must not carry a deadline")
	}

	// Three answered during the session, one wrong, one only in the final
	// payload.
	for _, id := range quiz.ExerciseIDs[:3] {
		if err := env.svc.RecordAnswer(start.Token, id, models.Submission{Value: "a"}); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}
	if err := env.svc.RecordAnswer(start.Token, quiz.ExerciseIDs[3], models.Submission{Value: "b"}); err != nil {
		t.Fatalf("record wrong: %v", err)
	}

	score, err := env.svc.SubmitSession(ctx, start.Token, map[string]models.Submission{
		quiz.ExerciseIDs[4]: {Value: "a"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if score.Score != 80 || !score.Passed || score.CorrectCount != 4 {
		t.Fatalf("score: got %+v", score)
	}
	if score.CompletionType != models.CompletionManual {
		t.Errorf("completion type: got %s", score.CompletionType)
	}
	if score.XPGranted != 90 { // 4 correct at 10 each plus the 50 quiz bonus
		t.Errorf("XP: got %d, want 90", score.XPGranted)
	}
	if score.UnitStatus != models.StatusCompleted {
		t.Errorf("unit status: got %s", score.UnitStatus)
	}

	if got := len(env.attempts.all()); got != 1 {
		t.Fatalf("expected 1 attempt, got %d", got)
	}
	if env.answers.count() != 5 {
		t.Errorf("expected 5 answer records, got %d", env.answers.count())
	}

	// A second submit of the same session is rejected.
	if _, err := env.svc.SubmitSession(ctx, start.Token, nil); err == nil {
		t.Errorf("expected error submitting a finished session")
	}
}

func TestQuizRetakeKeepsFirstScore(t *testing.T) {
	env := newQuizEnv(testGameConfig())
	quiz := seedQuiz(env.content, "qz1", 0, 2)
	ctx := context.Background()

	firstStart, err := env.svc.StartSession(ctx, "lrn", "qz1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	first, err := env.svc.SubmitSession(ctx, firstStart.Token, map[string]models.Submission{
		quiz.ExerciseIDs[0]: {Value: "a"},
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Score != 50 || first.Passed {
		t.Fatalf("first attempt: got %+v", first)
	}

	secondStart, err := env.svc.StartSession(ctx, "lrn", "qz1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	second, err := env.svc.SubmitSession(ctx, secondStart.Token, map[string]models.Submission{
		quiz.ExerciseIDs[0]: {Value: "a"},
		quiz.ExerciseIDs[1]: {Value: "a"},
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Score != 100 {
		t.Fatalf("second attempt: got %+v", second)
	}
	if second.XPGranted != 0 {
		t.Errorf("retake must not re-grant XP, got %d", second.XPGranted)
	}

	// The progress record keeps the first attempt's score; the retake lives
	// only in the attempt history.
	p, err := env.progress.Get(ctx, "lrn", "qz1")
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if p.Score != 50 {
		t.Errorf("progress score overwritten: got %v", p.Score)
	}
	attempts, err := env.attempts.FindByUser(ctx, "lrn")
	if err != nil {
		t.Fatalf("find attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(attempts))
	}
}

func TestQuizExpiryScoresPartialAnswersOnce(t *testing.T) {
	env := newQuizEnv(testGameConfig())
	quiz := seedQuiz(env.content, "qz1", 1, 5)
	ctx := context.Background()

	start, err := env.svc.StartSession(ctx, "lrn", "qz1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, id := range quiz.ExerciseIDs[:2] {
		if err := env.svc.RecordAnswer(start.Token, id, models.Submission{Value: "a"}); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	deadline := time.After(3 * time.Second)
	for len(env.attempts.all()) == 0 {
		select {
		case <-deadline:
			t.Fatal("timer never scored the session")
		case <-time.After(50 * time.Millisecond):
		}
	}

	attempts := env.attempts.all()
	if len(attempts) != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", len(attempts))
	}
	a := attempts[0]
	if a.Score != 40 || a.Passed || a.CorrectCount != 2 || a.TotalQuestions != 5 {
		t.Fatalf("expired attempt: got %+v", a)
	}
	if a.CompletionType != models.CompletionExpired {
		t.Errorf("completion type: got %s", a.CompletionType)
	}

	// A late manual submit is a no-op.
	if _, err := env.svc.SubmitSession(ctx, start.Token, nil); err == nil {
		t.Errorf("expected error submitting an expired session")
	}
	if len(env.attempts.all()) != 1 {
		t.Errorf("late submit must not score again")
	}
}

func TestQuizScoringSeesRegeneratedHearts(t *testing.T) {
	game := testGameConfig()
	game.SuppressXPAtZeroHearts = true
	env := newQuizEnv(game)
	quiz := seedQuiz(env.content, "qz1", 0, 1)
	ctx := context.Background()

	// Hearts ran out over an hour ago; two 30-minute cooldowns have elapsed
	// by scoring time, so the suppression check must not see zero.
	env.learners.seed(&models.LearnerState{
		UserID:           "lrn",
		Hearts:           0,
		LastHeartRegenAt: time.Now().Add(-65 * time.Minute),
	})

	start, err := env.svc.StartSession(ctx, "lrn", "qz1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	score, err := env.svc.SubmitSession(ctx, start.Token, map[string]models.Submission{
		quiz.ExerciseIDs[0]: {Value: "a"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if score.XPGranted != 60 { // 10 for the answer plus the 50 quiz bonus
		t.Fatalf("XP: got %d, want 60", score.XPGranted)
	}
}

func TestQuizQuestionViewHidesAnswerKey(t *testing.T) {
	env := newQuizEnv(testGameConfig())
	env.content.quizzes["qz1"] = &models.Quiz{
		ID:          "qz1",
		ExerciseIDs: []string{"w1"},
	}
	env.content.exercises["w1"] = &models.Exercise{
		ID:     "w1",
		Type:   models.TypeWordOrder,
		Prompt: "order the words",
		Tokens: []string{"I", "am", "a", "student"},
	}

	start, err := env.svc.StartSession(context.Background(), "lrn", "qz1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	view := start.Questions[0]
	if len(view.TokenBank) != 4 {
		t.Fatalf("token bank: got %v", view.TokenBank)
	}
	seen := make(map[string]bool)
	for _, tok := range view.TokenBank {
		seen[tok] = true
	}
	for _, tok := range []string{"I", "am", "a", "student"} {
		if !seen[tok] {
			t.Errorf("token bank missing %q", tok)
		}
	}
}
