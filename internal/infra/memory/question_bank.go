package memory

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
	"time"

	"echo-quiz/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBank []byte

// QuestionBank is an immutable registry of categories and their questions.
// Only the random source used for shuffling is mutable, and it is guarded by mu.
type QuestionBank struct {
	categories []domain.Category
	questions  map[string][]domain.Question

	mu  sync.Mutex
	rnd *rand.Rand
}

// BankOption customizes a QuestionBank.
type BankOption func(*QuestionBank)

// WithRand sets the random source used to shuffle question sets (useful for tests).
func WithRand(rnd *rand.Rand) BankOption {
	return func(b *QuestionBank) {
		b.rnd = rnd
	}
}

// NewQuestionBank builds a bank from already-decoded data. The inputs are copied.
func NewQuestionBank(categories []domain.Category, questions map[string][]domain.Question, opts ...BankOption) *QuestionBank {
	b := &QuestionBank{
		categories: append([]domain.Category(nil), categories...),
		questions:  make(map[string][]domain.Question, len(questions)),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for id, qs := range questions {
		b.questions[id] = cloneQuestions(qs)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type bankFile struct {
	Categories []bankCategory `yaml:"categories"`
}

type bankCategory struct {
	domain.Category `yaml:",inline"`
	Questions       []domain.Question `yaml:"questions"`
}

// DefaultQuestionBank returns the built-in bank.
func DefaultQuestionBank(opts ...BankOption) (*QuestionBank, error) {
	return LoadQuestionBank(bytes.NewReader(defaultBank), opts...)
}

// LoadQuestionBankFile reads and validates a YAML bank from path.
func LoadQuestionBankFile(path string, opts ...BankOption) (*QuestionBank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer f.Close()
	return LoadQuestionBank(f, opts...)
}

// LoadQuestionBank decodes and validates a YAML bank.
func LoadQuestionBank(r io.Reader, opts ...BankOption) (*QuestionBank, error) {
	var file bankFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrInvalidBank, err)
	}

	categories := make([]domain.Category, 0, len(file.Categories))
	questions := make(map[string][]domain.Question, len(file.Categories))
	for _, c := range file.Categories {
		if _, dup := questions[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", domain.ErrInvalidBank, c.ID)
		}
		categories = append(categories, c.Category)
		questions[c.ID] = c.Questions
	}

	bank := NewQuestionBank(categories, questions, opts...)
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return bank, nil
}

// Validate checks the integrity of the bank: unique ids, four options per
// question, an in-range correct answer and declared counts matching the data.
func (b *QuestionBank) Validate() error {
	seen := make(map[int]string)
	for _, c := range b.categories {
		if c.ID == "" {
			return fmt.Errorf("%w: category without id", domain.ErrInvalidBank)
		}
		qs := b.questions[c.ID]
		if c.QuestionCount != len(qs) {
			return fmt.Errorf("%w: category %q declares %d questions, has %d",
				domain.ErrInvalidBank, c.ID, c.QuestionCount, len(qs))
		}
		for _, q := range qs {
			if other, ok := seen[q.ID]; ok {
				return fmt.Errorf("%w: question %d registered under %q and %q", domain.ErrInvalidBank, q.ID, other, c.ID)
			}
			seen[q.ID] = c.ID
			if err := validateQuestion(q); err != nil {
				return fmt.Errorf("%w: category %q: %v", domain.ErrInvalidBank, c.ID, err)
			}
		}
	}
	return nil
}

func validateQuestion(q domain.Question) error {
	if q.Text == "" {
		return fmt.Errorf("question %d has no text", q.ID)
	}
	if len(q.Options) != domain.OptionsPerQuestion {
		return fmt.Errorf("question %d has %d options, want %d", q.ID, len(q.Options), domain.OptionsPerQuestion)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("question %d has correct answer %d out of range", q.ID, q.CorrectAnswer)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("question %d has unknown difficulty %q", q.ID, q.Difficulty)
	}
	return nil
}

// ListCategories returns a copy of the registered categories in declaration order.
func (b *QuestionBank) ListCategories(_ context.Context) ([]domain.Category, error) {
	return append([]domain.Category(nil), b.categories...), nil
}

// QuestionsFor returns the category's full question set in a fresh random order.
// A registered category with no questions yields an empty slice and no error.
func (b *QuestionBank) QuestionsFor(_ context.Context, categoryID string) ([]domain.Question, error) {
	qs, ok := b.questions[categoryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, categoryID)
	}
	shuffled := cloneQuestions(qs)

	// rand.Shuffle is a Fisher-Yates shuffle.
	b.mu.Lock()
	b.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	b.mu.Unlock()
	return shuffled, nil
}

// Registered returns the category's questions in storage order.
func (b *QuestionBank) Registered(categoryID string) []domain.Question {
	return cloneQuestions(b.questions[categoryID])
}

func cloneQuestions(qs []domain.Question) []domain.Question {
	if qs == nil {
		return nil
	}
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
