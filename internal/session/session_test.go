package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"progress-service/internal/models"
)

func fiveQuestionQuiz(durationSeconds int) (*models.Quiz, []*models.Exercise) {
	quiz := &models.Quiz{
		ID:              "quiz-1",
		ExerciseIDs:     []string{"q1", "q2", "q3", "q4", "q5"},
		DurationSeconds: durationSeconds,
	}
	var exs []*models.Exercise
	for _, id := range quiz.ExerciseIDs {
		exs = append(exs, &models.Exercise{ID: id, Type: models.TypeTranslate, Reference: "ja"})
	}
	return quiz, exs
}

func TestRecordAnswerAnyOrder(t *testing.T) {
	store := NewStore(nil)
	quiz, exs := fiveQuestionQuiz(0)
	sess := store.Start("u1", quiz, exs)

	if err := sess.RecordAnswer("q3", models.Submission{Value: "ja"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sess.RecordAnswer("q1", models.Submission{Value: "nein"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Re-answering replaces.
	if err := sess.RecordAnswer("q1", models.Submission{Value: "ja"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.AnsweredCount() != 2 {
		t.Errorf("expected 2 answers, got %d", sess.AnsweredCount())
	}

	if err := sess.RecordAnswer("q9", models.Submission{Value: "x"}); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("expected ErrUnknownQuestion, got %v", err)
	}
}

func TestSubmitFinishesOnce(t *testing.T) {
	store := NewStore(nil)
	quiz, exs := fiveQuestionQuiz(0)
	sess := store.Start("u1", quiz, exs)

	got, err := store.Submit(sess.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CompletionType() != models.CompletionManual {
		t.Errorf("expected manual completion, got %s", got.CompletionType())
	}

	if _, err := store.Submit(sess.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("second submit should not find the session, got %v", err)
	}
	if err := sess.RecordAnswer("q1", models.Submission{Value: "x"}); !errors.Is(err, ErrFinished) {
		t.Errorf("answers after finish must fail, got %v", err)
	}
}

func TestExpiryFiresOnce(t *testing.T) {
	store := NewStore(nil)
	expired := make(chan *Session, 2)
	store.OnExpire(func(s *Session) { expired <- s })

	quiz, exs := fiveQuestionQuiz(1)
	sess := store.Start("u1", quiz, exs)
	_ = sess.RecordAnswer("q1", models.Submission{Value: "ja"})
	_ = sess.RecordAnswer("q2", models.Submission{Value: "nein"})

	select {
	case got := <-expired:
		if got.Token != sess.Token {
			t.Errorf("expired wrong session")
		}
		if got.CompletionType() != models.CompletionExpired {
			t.Errorf("expected expired completion, got %s", got.CompletionType())
		}
		if len(got.Answers()) != 2 {
			t.Errorf("expected the 2 recorded answers at expiry, got %d", len(got.Answers()))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expiry callback never fired")
	}

	select {
	case <-expired:
		t.Fatal("expiry fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManualSubmitBeatsTimer(t *testing.T) {
	store := NewStore(nil)
	expired := make(chan *Session, 1)
	store.OnExpire(func(s *Session) { expired <- s })

	quiz, exs := fiveQuestionQuiz(1)
	sess := store.Start("u1", quiz, exs)

	if _, err := store.Submit(sess.Token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-expired:
		t.Fatal("timer fired after manual submit won")
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestSubmitExpiryRace(t *testing.T) {
	store := NewStore(nil)
	var mu sync.Mutex
	expiries := 0
	store.OnExpire(func(*Session) {
		mu.Lock()
		expiries++
		mu.Unlock()
	})

	// Near-simultaneous manual submits and timer fires across many sessions:
	// each session is scored by exactly one path.
	quiz, exs := fiveQuestionQuiz(1)
	manualWins := 0
	var sessions []*Session
	for i := 0; i < 20; i++ {
		sessions = append(sessions, store.Start("u1", quiz, exs))
	}
	time.Sleep(990 * time.Millisecond)
	for _, sess := range sessions {
		if _, err := store.Submit(sess.Token); err == nil {
			manualWins++
		}
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if manualWins+expiries != len(sessions) {
		t.Errorf("each session must finish exactly once: %d manual + %d expired != %d",
			manualWins, expiries, len(sessions))
	}
}

func TestAbandon(t *testing.T) {
	store := NewStore(nil)
	quiz, exs := fiveQuestionQuiz(0)
	sess := store.Start("u1", quiz, exs)

	if err := store.Abandon(sess.Token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(sess.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("abandoned session should be gone, got %v", err)
	}
}

func TestDeadlineSet(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(func() time.Time { return fixed })
	quiz, exs := fiveQuestionQuiz(600)
	sess := store.Start("u1", quiz, exs)

	want := fixed.Add(10 * time.Minute)
	if !sess.Deadline.Equal(want) {
		t.Errorf("expected deadline %v, got %v", want, sess.Deadline)
	}
	if sess.Status() != StatusRunning {
		t.Errorf("expected running status, got %s", sess.Status())
	}
}
