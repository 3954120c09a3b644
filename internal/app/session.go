package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"echo-quiz/internal/domain"
	"github.com/google/uuid"
)

const (
	// DefaultTimeLimit is the number of seconds allowed per question.
	DefaultTimeLimit = 30
	// DefaultPlayerName is used when no player identity is supplied.
	DefaultPlayerName = "Player"
)

// QuizSource is what a session needs from the data service.
type QuizSource interface {
	Questions(ctx context.Context, categoryID string) ([]domain.Question, error)
	RecordScore(ctx context.Context, entry domain.LeaderboardEntry) error
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithPlayerName sets the name written to the leaderboard on completion.
func WithPlayerName(name string) SessionOption {
	return func(s *Session) {
		if name != "" {
			s.playerName = name
		}
	}
}

// WithTimeLimit sets the per-question time limit in seconds.
func WithTimeLimit(seconds int) SessionOption {
	return func(s *Session) {
		if seconds > 0 {
			s.timeLimit = seconds
		}
	}
}

// WithClock overrides the clock used for completion timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

// Session is the state machine for one play-through:
// NotStarted -> InProgress -> Completed. Answers and timer ticks may arrive
// from different goroutines; mu serializes them.
type Session struct {
	source     QuizSource
	playerName string
	timeLimit  int
	now        func() time.Time
	log        *slog.Logger

	mu            sync.Mutex
	id            string
	phase         domain.Phase
	starting      bool
	generation    uint64
	category      domain.Category
	questions     []domain.Question
	current       int
	score         int
	answers       []int
	timeRemaining int
	completion    *domain.SessionCompleted
	recordErr     error
}

func NewSession(source QuizSource, opts ...SessionOption) *Session {
	s := &Session{
		source:     source,
		playerName: DefaultPlayerName,
		timeLimit:  DefaultTimeLimit,
		now:        time.Now,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timeRemaining = s.timeLimit
	return s
}

// Start loads a fresh shuffle of the category's questions and begins play.
// It is only valid from NotStarted.
func (s *Session) Start(ctx context.Context, category domain.Category) error {
	s.mu.Lock()
	if s.phase != domain.PhaseNotStarted || s.starting {
		phase := s.phase
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot start in phase %s", domain.ErrInvalidTransition, phase)
	}
	s.starting = true
	gen := s.generation
	s.mu.Unlock()

	// A registered category without questions comes back empty rather than
	// not found; it is rejected below with ErrEmptyCategory.
	questions, err := s.source.Questions(ctx, category.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return fmt.Errorf("%w: session reset while starting", domain.ErrInvalidTransition)
	}
	s.starting = false
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEmptyCategory, category.ID)
	}

	s.id = uuid.NewString()
	s.phase = domain.PhaseInProgress
	s.category = category
	s.questions = questions
	s.current = 0
	s.score = 0
	s.answers = make([]int, 0, len(questions))
	s.timeRemaining = s.timeLimit
	s.completion = nil
	s.recordErr = nil

	s.log.InfoContext(ctx, "session: started",
		"session", s.id,
		"category", category.ID,
		"questions", len(questions),
	)
	return nil
}

// SubmitAnswer answers the current question. answerIndex -1 records a timeout.
// A second call answers the next question; callers whose input can repeat,
// such as key presses racing the timer, should use SubmitAnswerFor.
func (s *Session) SubmitAnswer(ctx context.Context, answerIndex int) (domain.AnswerResult, error) {
	s.mu.Lock()
	if err := s.requireInProgressLocked("submit answer"); err != nil {
		s.mu.Unlock()
		return domain.AnswerResult{}, err
	}
	result, done := s.answerLocked(answerIndex)
	s.mu.Unlock()

	s.finish(ctx, done)
	return result, nil
}

// SubmitAnswerFor answers the question at questionIndex. A question that
// already has an answer is rejected with domain.ErrAlreadyAnswered and the
// score is left unchanged.
func (s *Session) SubmitAnswerFor(ctx context.Context, questionIndex, answerIndex int) (domain.AnswerResult, error) {
	s.mu.Lock()
	if s.starting || s.phase == domain.PhaseNotStarted {
		s.mu.Unlock()
		return domain.AnswerResult{}, fmt.Errorf("%w: cannot submit answer before start", domain.ErrInvalidTransition)
	}
	if questionIndex >= 0 && questionIndex < len(s.answers) {
		s.mu.Unlock()
		return domain.AnswerResult{}, fmt.Errorf("%w: question %d", domain.ErrAlreadyAnswered, questionIndex+1)
	}
	if err := s.requireInProgressLocked("submit answer"); err != nil {
		s.mu.Unlock()
		return domain.AnswerResult{}, err
	}
	if questionIndex != s.current {
		s.mu.Unlock()
		return domain.AnswerResult{}, fmt.Errorf("%w: question %d is not current", domain.ErrInvalidTransition, questionIndex+1)
	}
	result, done := s.answerLocked(answerIndex)
	s.mu.Unlock()

	s.finish(ctx, done)
	return result, nil
}

// Tick advances the current question's timer by one second. When the timer
// reaches zero the question is auto-answered with -1 and the result returned.
func (s *Session) Tick(ctx context.Context) (*domain.AnswerResult, error) {
	s.mu.Lock()
	if err := s.requireInProgressLocked("tick"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return s.tickLocked(ctx)
}

// TickFor is Tick addressed to a specific question. A tick for a question
// that has already been answered is a no-op.
func (s *Session) TickFor(ctx context.Context, questionIndex int) (*domain.AnswerResult, error) {
	s.mu.Lock()
	if s.starting || s.phase == domain.PhaseNotStarted {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot tick before start", domain.ErrInvalidTransition)
	}
	if questionIndex >= 0 && questionIndex < len(s.answers) {
		s.mu.Unlock()
		return nil, nil
	}
	if err := s.requireInProgressLocked("tick"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if questionIndex != s.current {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: question %d is not current", domain.ErrInvalidTransition, questionIndex+1)
	}
	return s.tickLocked(ctx)
}

// tickLocked must be called with mu held; it releases it.
func (s *Session) tickLocked(ctx context.Context) (*domain.AnswerResult, error) {
	if s.timeRemaining > 0 {
		s.timeRemaining--
	}
	if s.timeRemaining > 0 {
		s.mu.Unlock()
		return nil, nil
	}

	result, done := s.answerLocked(domain.TimedOut)
	s.mu.Unlock()

	s.log.DebugContext(ctx, "session: question timed out", "question", result.QuestionID)
	s.finish(ctx, done)
	return &result, nil
}

// Reset discards all session data and returns to NotStarted. Valid from any phase.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.id = ""
	s.phase = domain.PhaseNotStarted
	s.starting = false
	s.category = domain.Category{}
	s.questions = nil
	s.current = 0
	s.score = 0
	s.answers = nil
	s.timeRemaining = s.timeLimit
	s.completion = nil
	s.recordErr = nil
}

func (s *Session) requireInProgressLocked(op string) error {
	if s.starting {
		return fmt.Errorf("%w: cannot %s while starting", domain.ErrInvalidTransition, op)
	}
	if s.phase != domain.PhaseInProgress {
		return fmt.Errorf("%w: cannot %s in phase %s", domain.ErrInvalidTransition, op, s.phase)
	}
	return nil
}

// answerLocked scores answerIndex against the current question and advances.
// It returns the completion event when the final question was answered.
func (s *Session) answerLocked(answerIndex int) (domain.AnswerResult, *domain.SessionCompleted) {
	q := s.questions[s.current]
	correct := q.IsCorrect(answerIndex)
	if correct {
		s.score++
	}
	s.answers = append(s.answers, answerIndex)

	result := domain.AnswerResult{
		QuestionID:    q.ID,
		Answer:        answerIndex,
		Correct:       correct,
		TimedOut:      answerIndex == domain.TimedOut,
		CorrectAnswer: q.CorrectAnswer,
		CorrectOption: q.CorrectOption(),
		Explanation:   q.Explanation,
		Score:         s.score,
	}

	s.current++
	if s.current < len(s.questions) {
		s.timeRemaining = s.timeLimit
		return result, nil
	}

	s.phase = domain.PhaseCompleted
	result.Completed = true
	done := &domain.SessionCompleted{
		SessionID:      s.id,
		Score:          s.score,
		TotalQuestions: len(s.questions),
		Category:       s.category.Name,
		Timestamp:      s.now(),
	}
	s.completion = done
	return result, done
}

// finish records the leaderboard entry for a completed session. A failed
// write is logged and kept for RecordErr; play is not interrupted.
func (s *Session) finish(ctx context.Context, done *domain.SessionCompleted) {
	if done == nil {
		return
	}
	s.log.InfoContext(ctx, "session: completed",
		"session", done.SessionID,
		"score", done.Score,
		"total", done.TotalQuestions,
		"category", done.Category,
	)

	err := s.source.RecordScore(ctx, done.Entry(s.playerName))
	if err != nil {
		s.log.ErrorContext(ctx, "session: failed to save score", "session", done.SessionID, "error", err)
	}

	s.mu.Lock()
	if s.completion == done {
		s.recordErr = err
	}
	s.mu.Unlock()
}

// SessionView is a read-only snapshot for presentation layers.
type SessionView struct {
	ID             string
	Phase          domain.Phase
	Starting       bool
	Category       domain.Category
	Question       *domain.Question
	QuestionIndex  int
	QuestionNumber int
	TotalQuestions int
	TimeRemaining  int
	TimeLimit      int
	Score          int
	Answers        []int
}

// Progress returns the percentage of the session reached by the current question.
func (v SessionView) Progress() int {
	if v.Phase == domain.PhaseCompleted {
		return 100
	}
	return domain.Percentage(v.QuestionNumber, v.TotalQuestions)
}

// View returns a snapshot of the session.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		ID:             s.id,
		Phase:          s.phase,
		Starting:       s.starting,
		Category:       s.category,
		QuestionIndex:  s.current,
		TotalQuestions: len(s.questions),
		TimeRemaining:  s.timeRemaining,
		TimeLimit:      s.timeLimit,
		Score:          s.score,
		Answers:        append([]int(nil), s.answers...),
	}
	if s.phase == domain.PhaseInProgress && s.current < len(s.questions) {
		q := s.questions[s.current]
		q.Options = append([]string(nil), q.Options...)
		v.Question = &q
		v.QuestionNumber = s.current + 1
	}
	return v
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Summary returns the score breakdown of the session so far.
func (s *Session) Summary() domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Summarize(s.score, len(s.questions))
}

// Completion returns the completion event once the session is completed.
func (s *Session) Completion() (domain.SessionCompleted, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completion == nil {
		return domain.SessionCompleted{}, false
	}
	return *s.completion, true
}

// RecordErr reports whether saving the completed session to the leaderboard failed.
func (s *Session) RecordErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordErr
}
