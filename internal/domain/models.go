package domain

import (
	"math"
	"time"
)

// OptionsPerQuestion is the fixed number of choices every question offers.
const OptionsPerQuestion = 4

// TimedOut is the answer index recorded when the question timer runs out.
const TimedOut = -1

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty grades.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question models a multiple-choice question with exactly one correct option.
type Question struct {
	ID            int        `json:"id" yaml:"id"`
	Text          string     `json:"text" yaml:"text"`
	Options       []string   `json:"options" yaml:"options"`
	CorrectAnswer int        `json:"correctAnswer" yaml:"correctAnswer"`
	Explanation   string     `json:"explanation,omitempty" yaml:"explanation"`
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty"`
}

// IsCorrect reports whether answer selects the correct option.
func (q Question) IsCorrect(answer int) bool {
	return answer != TimedOut && answer == q.CorrectAnswer
}

// CorrectOption returns the text of the correct option, or "" if the index is out of range.
func (q Question) CorrectOption() string {
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectAnswer]
}

// Category is a named topic bucket with a declared question count.
type Category struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Description   string `json:"description" yaml:"description"`
	QuestionCount int    `json:"questionCount" yaml:"questionCount"`
}

// LeaderboardEntry is one immutable record of a completed session.
type LeaderboardEntry struct {
	PlayerName     string    `json:"playerName"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Category       string    `json:"category"`
	Timestamp      time.Time `json:"timestamp"`
}

// Accuracy returns score/totalQuestions, or 0 when the entry has no questions.
func (e LeaderboardEntry) Accuracy() float64 {
	if e.TotalQuestions <= 0 {
		return 0
	}
	return float64(e.Score) / float64(e.TotalQuestions)
}

// Percentage returns the accuracy rounded to a whole percent.
func (e LeaderboardEntry) Percentage() int {
	return Percentage(e.Score, e.TotalQuestions)
}

// Phase is the lifecycle state of a session.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInProgress:
		return "in_progress"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// SessionCompleted is emitted once a session records an answer for its final question.
type SessionCompleted struct {
	SessionID      string
	Score          int
	TotalQuestions int
	Category       string
	Timestamp      time.Time
}

// Entry builds the leaderboard entry for the given player.
func (e SessionCompleted) Entry(playerName string) LeaderboardEntry {
	return LeaderboardEntry{
		PlayerName:     playerName,
		Score:          e.Score,
		TotalQuestions: e.TotalQuestions,
		Category:       e.Category,
		Timestamp:      e.Timestamp,
	}
}

// AnswerResult summarizes the outcome of one answer submission.
type AnswerResult struct {
	QuestionID    int    `json:"questionId"`
	Answer        int    `json:"answer"`
	Correct       bool   `json:"correct"`
	TimedOut      bool   `json:"timedOut"`
	CorrectAnswer int    `json:"correctAnswer"`
	CorrectOption string `json:"correctOption"`
	Explanation   string `json:"explanation,omitempty"`
	Score         int    `json:"score"`
	Completed     bool   `json:"completed"`
}

// Summary is the score breakdown shown at the end of a session.
type Summary struct {
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Wrong      int    `json:"wrong"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

// Summarize builds the results summary for score out of total.
func Summarize(score, total int) Summary {
	pct := Percentage(score, total)
	return Summary{
		Score:      score,
		Total:      total,
		Wrong:      max(total-score, 0),
		Percentage: pct,
		Message:    performanceMessage(pct),
	}
}

// Percentage returns round(score/total*100), or 0 when total is not positive.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

func performanceMessage(pct int) string {
	switch {
	case pct >= 90:
		return "Outstanding!"
	case pct >= 75:
		return "Excellent work!"
	case pct >= 60:
		return "Good job!"
	case pct >= 40:
		return "Not bad!"
	default:
		return "Keep practicing!"
	}
}
