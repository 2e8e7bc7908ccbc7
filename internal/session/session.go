// Package session holds live quiz attempts. A session is ephemeral: it lives
// in process memory from start until it is submitted, expires, or is
// abandoned, then turns into persisted progress/reward mutations elsewhere.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"progress-service/internal/models"
)

var (
	ErrNotFound        = errors.New("quiz session not found")
	ErrFinished        = errors.New("quiz session already finished")
	ErrUnknownQuestion = errors.New("question is not part of this quiz session")
)

const StatusRunning = "running"

// Session is one timed attempt. Answers may be recorded for any question in
// any order. finish() is the single-fire guard between manual submit and
// timer expiry: whichever happens first wins, the other becomes a no-op.
type Session struct {
	Token     string
	UserID    string
	Quiz      *models.Quiz
	Exercises []*models.Exercise
	StartedAt time.Time
	Deadline  time.Time

	mu             sync.Mutex
	answers        map[string]models.Submission
	finished       bool
	completionType string
	timer          *time.Timer
}

// RecordAnswer stores or replaces the answer for one question. Navigating
// back and re-answering is allowed while the session runs.
func (s *Session) RecordAnswer(exerciseID string, sub models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return ErrFinished
	}
	if !s.hasExercise(exerciseID) {
		return ErrUnknownQuestion
	}
	s.answers[exerciseID] = sub
	return nil
}

func (s *Session) hasExercise(id string) bool {
	for _, ex := range s.Exercises {
		if ex.ID == id {
			return true
		}
	}
	return false
}

// Answers returns a copy of everything recorded so far.
func (s *Session) Answers() map[string]models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Submission, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Status reports "running" until the session finishes, then the completion
// type ("manual" or "expired").
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return StatusRunning
	}
	return s.completionType
}

func (s *Session) CompletionType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completionType
}

// finish flips the session into its terminal state exactly once and reports
// whether this call won the race.
func (s *Session) finish(completionType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	s.finished = true
	s.completionType = completionType
	if s.timer != nil {
		s.timer.Stop()
	}
	return true
}

// Store keeps all live sessions and drives expiry timers.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
	onExpire func(*Session)
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

// OnExpire registers the scoring pipeline invoked when a deadline fires
// before a manual submit. Set once during wiring, before any session starts.
func (st *Store) OnExpire(fn func(*Session)) {
	st.onExpire = fn
}

// Start opens a new attempt. When the quiz defines a duration the deadline
// timer is armed immediately; a zero duration means untimed.
func (st *Store) Start(userID string, quiz *models.Quiz, exercises []*models.Exercise) *Session {
	now := st.now()
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Quiz:      quiz,
		Exercises: exercises,
		StartedAt: now,
		answers:   make(map[string]models.Submission),
	}
	if quiz.DurationSeconds > 0 {
		duration := time.Duration(quiz.DurationSeconds) * time.Second
		sess.Deadline = now.Add(duration)
		sess.timer = time.AfterFunc(duration, func() { st.expire(sess.Token) })
	}

	st.mu.Lock()
	st.sessions[sess.Token] = sess
	st.mu.Unlock()
	return sess
}

func (st *Store) Get(token string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Submit finishes the session manually. Exactly one of Submit and the expiry
// timer takes the session; the loser gets ErrFinished or a no-op.
func (st *Store) Submit(token string) (*Session, error) {
	sess, err := st.Get(token)
	if err != nil {
		return nil, err
	}
	if !sess.finish(models.CompletionManual) {
		return nil, ErrFinished
	}
	st.remove(token)
	return sess, nil
}

// Abandon drops a session without scoring it. The unit's progress record
// stays in_progress, which is the expected resume-later state.
func (st *Store) Abandon(token string) error {
	sess, err := st.Get(token)
	if err != nil {
		return err
	}
	if !sess.finish(models.CompletionManual) {
		return ErrFinished
	}
	st.remove(token)
	return nil
}

func (st *Store) expire(token string) {
	sess, err := st.Get(token)
	if err != nil {
		return
	}
	if !sess.finish(models.CompletionExpired) {
		return
	}
	st.remove(token)
	if st.onExpire != nil {
		st.onExpire(sess)
	}
}

func (st *Store) remove(token string) {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
}
