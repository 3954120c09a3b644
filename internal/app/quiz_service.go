package app

import (
	"context"
	"fmt"
	"log/slog"

	"echo-quiz/internal/domain"
)

// QuestionBank provides categories and shuffled question sets.
type QuestionBank interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	QuestionsFor(ctx context.Context, categoryID string) ([]domain.Question, error)
}

// QuizService combines question bank lookups with the leaderboard.
type QuizService struct {
	bank  QuestionBank
	board *Leaderboard
	log   *slog.Logger
}

func NewQuizService(bank QuestionBank, board *Leaderboard, logger *slog.Logger) *QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizService{bank: bank, board: board, log: logger}
}

// Categories lists the playable categories.
func (s *QuizService) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.bank.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Category looks up a single category by id.
func (s *QuizService) Category(ctx context.Context, categoryID string) (domain.Category, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	for _, c := range categories {
		if c.ID == categoryID {
			return c, nil
		}
	}
	return domain.Category{}, fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, categoryID)
}

// Questions returns the category's questions in a fresh random order.
func (s *QuizService) Questions(ctx context.Context, categoryID string) ([]domain.Question, error) {
	questions, err := s.bank.QuestionsFor(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

// RecordScore stores a finished session's entry on the leaderboard.
func (s *QuizService) RecordScore(ctx context.Context, entry domain.LeaderboardEntry) error {
	return s.board.Record(ctx, entry)
}

// Leaderboard returns the ranked entries.
func (s *QuizService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.board.List(ctx)
}

// ClearLeaderboard removes all entries.
func (s *QuizService) ClearLeaderboard(ctx context.Context) error {
	if err := s.board.Clear(ctx); err != nil {
		s.log.ErrorContext(ctx, "leaderboard: clear failed", "error", err)
		return err
	}
	return nil
}

// NewSession creates a session that draws questions from and records scores to this service.
func (s *QuizService) NewSession(opts ...SessionOption) *Session {
	opts = append([]SessionOption{WithLogger(s.log)}, opts...)
	return NewSession(s, opts...)
}
