package service

import (
	"context"
	"log"
	"math/rand"
	"time"

	"progress-service/internal/config"
	"progress-service/internal/evaluator"
	"progress-service/internal/event"
	"progress-service/internal/hearts"
	"progress-service/internal/models"
	"progress-service/internal/progress"
	"progress-service/internal/rewards"
	"progress-service/internal/session"
)

// QuizService orchestrates timed attempts: it opens sessions, relays answer
// recording, and runs the one scoring pass a session gets, whether it ends by
// manual submit or deadline expiry.
type QuizService struct {
	Sessions  *session.Store
	Content   ContentStore
	Learners  LearnerStore
	Answers   AnswerStore
	Attempts  AttemptStore
	Progress  *progress.Tracker
	Hearts    *hearts.Ledger
	Rewards   *rewards.Ledger
	Publisher *event.EventPublisher
	Game      config.GameConfig
	Now       func() time.Time
}

func NewQuizService(
	sessions *session.Store,
	content ContentStore,
	learners LearnerStore,
	answers AnswerStore,
	attempts AttemptStore,
	tracker *progress.Tracker,
	game config.GameConfig,
	publisher *event.EventPublisher,
) *QuizService {
	s := &QuizService{
		Sessions:  sessions,
		Content:   content,
		Learners:  learners,
		Answers:   answers,
		Attempts:  attempts,
		Progress:  tracker,
		Hearts:    hearts.NewLedger(game),
		Rewards:   rewards.NewLedger(game),
		Publisher: publisher,
		Game:      game,
		Now:       time.Now,
	}
	sessions.OnExpire(s.expireSession)
	return s
}

// QuestionView is what the client sees: the prompt and its building blocks,
// never the answer key. Token banks and match columns are shuffled.
type QuestionView struct {
	ID         string              `json:"id"`
	Type       models.ExerciseType `json:"type"`
	Prompt     string              `json:"prompt"`
	Options    []models.Option     `json:"options,omitempty"`
	BlankCount int                 `json:"blank_count,omitempty"`
	TokenBank  []string            `json:"token_bank,omitempty"`
	Lefts      []string            `json:"lefts,omitempty"`
	Rights     []string            `json:"rights,omitempty"`
}

type StartResult struct {
	Token           string         `json:"token"`
	QuizID          string         `json:"quiz_id"`
	Title           string         `json:"title"`
	TotalQuestions  int            `json:"total_questions"`
	DurationSeconds int            `json:"duration_seconds"`
	Deadline        *time.Time     `json:"deadline,omitempty"`
	Questions       []QuestionView `json:"questions"`
}

type QuizScore struct {
	Score          float64 `json:"score"`
	Passed         bool    `json:"passed"`
	CorrectCount   int     `json:"correct_count"`
	TotalQuestions int     `json:"total_questions"`
	XPGranted      int     `json:"xp_granted"`
	CompletionType string  `json:"completion_type"`
	UnitStatus     string  `json:"unit_status"`
}

// StartSession opens a fresh attempt. Re-running a scored quiz is expected:
// every start is a new session and a new attempt record later.
func (s *QuizService) StartSession(ctx context.Context, userID, quizID string) (*StartResult, error) {
	quiz, err := s.Content.FindQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	exercises, err := s.Content.FindExercisesByIDs(ctx, quiz.ExerciseIDs)
	if err != nil {
		return nil, err
	}

	if _, err := s.Progress.EnsureStarted(ctx, userID, quiz.ID, models.UnitQuiz, len(quiz.ExerciseIDs), s.Now()); err != nil {
		return nil, err
	}
	sess := s.Sessions.Start(userID, quiz, exercises)

	res := &StartResult{
		Token:           sess.Token,
		QuizID:          quiz.ID,
		Title:           quiz.Title,
		TotalQuestions:  len(exercises),
		DurationSeconds: quiz.DurationSeconds,
	}
	if !sess.Deadline.IsZero() {
		deadline := sess.Deadline
		res.Deadline = &deadline
	}
	for _, ex := range exercises {
		res.Questions = append(res.Questions, viewOf(ex))
	}
	return res, nil
}

func viewOf(ex *models.Exercise) QuestionView {
	view := QuestionView{
		ID:      ex.ID,
		Type:    ex.Type,
		Prompt:  ex.Prompt,
		Options: ex.Options,
	}
	switch ex.Type {
	case models.TypeFillBlank:
		view.BlankCount = len(ex.Blanks)
	case models.TypeWordOrder:
		view.TokenBank = shuffled(ex.Tokens)
	case models.TypeMatch:
		for _, p := range ex.Pairs {
			view.Lefts = append(view.Lefts, p.Left)
			view.Rights = append(view.Rights, p.Right)
		}
		rand.Shuffle(len(view.Rights), func(i, j int) {
			view.Rights[i], view.Rights[j] = view.Rights[j], view.Rights[i]
		})
	}
	return view
}

func shuffled(tokens []string) []string {
	out := make([]string, len(tokens))
	copy(out, tokens)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// RecordAnswer stores one answer on the running session. Questions may be
// answered and re-answered in any order until the session finishes.
func (s *QuizService) RecordAnswer(token, exerciseID string, sub models.Submission) error {
	sess, err := s.Sessions.Get(token)
	if err != nil {
		return err
	}
	return sess.RecordAnswer(exerciseID, sub)
}

func (s *QuizService) SessionStatus(token string) (map[string]interface{}, error) {
	sess, err := s.Sessions.Get(token)
	if err != nil {
		return nil, err
	}
	status := map[string]interface{}{
		"token":           sess.Token,
		"quiz_id":         sess.Quiz.ID,
		"status":          sess.Status(),
		"answered":        sess.AnsweredCount(),
		"total_questions": len(sess.Exercises),
		"started_at":      sess.StartedAt,
	}
	if !sess.Deadline.IsZero() {
		status["deadline"] = sess.Deadline
		if remaining := sess.Deadline.Sub(s.Now()); remaining > 0 {
			status["seconds_remaining"] = int(remaining.Seconds())
		} else {
			status["seconds_remaining"] = 0
		}
	}
	return status, nil
}

// SubmitSession finishes the attempt manually. Answers carried in the final
// payload top up anything recorded along the way, then the whole attempt is
// scored exactly once.
func (s *QuizService) SubmitSession(ctx context.Context, token string, final map[string]models.Submission) (*QuizScore, error) {
	sess, err := s.Sessions.Submit(token)
	if err != nil {
		return nil, err
	}
	answers := sess.Answers()
	for id, sub := range final {
		answers[id] = sub
	}
	return s.score(ctx, sess, answers, models.CompletionManual)
}

func (s *QuizService) AbandonSession(token string) error {
	return s.Sessions.Abandon(token)
}

// expireSession is the deadline path: same scoring pipeline, whatever answers
// were recorded at the instant the timer fired.
func (s *QuizService) expireSession(sess *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.score(ctx, sess, sess.Answers(), models.CompletionExpired); err != nil {
		log.Printf("failed to score expired session %s: %v", sess.Token, err)
	}
}

func (s *QuizService) score(ctx context.Context, sess *session.Session, answers map[string]models.Submission, completionType string) (*QuizScore, error) {
	now := s.Now()
	quiz := sess.Quiz
	total := len(sess.Exercises)

	correctCount := 0
	correctByID := make(map[string]bool, len(answers))
	records := make([]*models.AnswerRecord, 0, len(answers))
	for _, ex := range sess.Exercises {
		sub, answered := answers[ex.ID]
		correct := false
		if answered {
			// Malformed answers at scoring time just count as incorrect;
			// there is nobody left to re-prompt.
			if c, err := evaluator.Evaluate(ex, sub); err == nil {
				correct = c
			}
			records = append(records, &models.AnswerRecord{
				UserID:       sess.UserID,
				UnitID:       quiz.ID,
				ExerciseID:   ex.ID,
				SessionToken: sess.Token,
				Submitted:    sub,
				IsCorrect:    correct,
				AnsweredAt:   now,
			})
		}
		correctByID[ex.ID] = correct
		if correct {
			correctCount++
		}
	}

	score := 0.0
	if total > 0 {
		score = float64(correctCount) / float64(total) * 100
	}
	passingScore := quiz.PassingScore
	if passingScore == 0 {
		passingScore = s.Game.QuizPassingScore
	}
	passed := score >= passingScore

	progRes, err := s.Progress.CompleteQuiz(ctx, sess.UserID, quiz, score, passed, now)
	if err != nil {
		return nil, err
	}

	st, err := s.Learners.FindOrCreate(ctx, sess.UserID, s.Game.MaxHearts, now)
	if err != nil {
		return nil, err
	}
	// Catch the counter up before it feeds the zero-hearts suppression
	// check; hearts owed since the last write count.
	s.Hearts.Regenerate(st, now)
	xp := 0
	for _, ex := range sess.Exercises {
		if correctByID[ex.ID] {
			xp += s.Rewards.ExerciseXP(ex, true, progRes.AlreadyCompleted, st.Hearts)
		}
	}
	xp += s.Rewards.CompletionBonus(models.UnitQuiz, quiz.BonusXP, progRes.FirstCompletion)
	if xp > 0 {
		if err := s.Learners.AddXP(ctx, sess.UserID, xp, now); err != nil {
			return nil, err
		}
	}

	attempt := &models.QuizAttempt{
		UserID:         sess.UserID,
		QuizID:         quiz.ID,
		SessionToken:   sess.Token,
		Score:          score,
		Passed:         passed,
		CorrectCount:   correctCount,
		TotalQuestions: total,
		XPGranted:      xp,
		CompletionType: completionType,
		StartedAt:      sess.StartedAt,
		FinishedAt:     now,
	}
	if err := s.Attempts.Create(ctx, attempt); err != nil {
		return nil, err
	}
	for _, record := range records {
		_ = s.Answers.Create(ctx, record)
	}

	s.Publisher.Publish(event.AttemptScored, map[string]interface{}{
		"user_id": sess.UserID, "quiz_id": quiz.ID, "score": score,
		"passed": passed, "completion_type": completionType,
	})
	if progRes.FirstCompletion {
		s.Publisher.Publish(event.UnitCompleted, map[string]interface{}{
			"user_id": sess.UserID, "unit_id": quiz.ID, "unit_type": models.UnitQuiz,
		})
	}
	if xp > 0 {
		s.Publisher.Publish(event.XPGranted, map[string]interface{}{
			"user_id": sess.UserID, "amount": xp,
		})
	}

	return &QuizScore{
		Score:          score,
		Passed:         passed,
		CorrectCount:   correctCount,
		TotalQuestions: total,
		XPGranted:      xp,
		CompletionType: completionType,
		UnitStatus:     progRes.Status,
	}, nil
}

func (s *QuizService) AttemptsByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error) {
	return s.Attempts.FindByUser(ctx, userID)
}

func (s *QuizService) AttemptByID(ctx context.Context, id string) (*models.QuizAttempt, error) {
	return s.Attempts.FindByID(ctx, id)
}
