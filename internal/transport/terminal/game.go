package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"echo-quiz/internal/app"
	"echo-quiz/internal/domain"
	"golang.org/x/sync/errgroup"
)

type mode int

const (
	modeMenu mode = iota
	modePlaying
	modeResults
)

// Config wires a Game.
type Config struct {
	Service      *app.QuizService
	In           io.Reader
	Out          io.Writer
	TickInterval time.Duration
	// Category, when set, skips the menu and starts this category immediately.
	Category       string
	SessionOptions []app.SessionOption
	Logger         *slog.Logger
}

// Game is an interactive terminal front-end for a quiz session. Input lines
// and timer ticks are funnelled into a single loop, which is the only writer
// to Out and the only caller into the session.
type Game struct {
	service  *app.QuizService
	session  *app.Session
	in       io.Reader
	out      io.Writer
	interval time.Duration
	category string
	log      *slog.Logger

	mode       mode
	categories []domain.Category
}

func NewGame(c Config) *Game {
	g := &Game{
		service:  c.Service,
		session:  c.Service.NewSession(c.SessionOptions...),
		in:       c.In,
		out:      c.Out,
		interval: c.TickInterval,
		category: c.Category,
		log:      c.Logger,
	}
	if g.interval <= 0 {
		g.interval = time.Second
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	return g
}

var errQuit = errors.New("quit")

// Run plays until the user quits, input ends, or ctx is cancelled.
func (g *Game) Run(ctx context.Context) error {
	categories, err := g.service.Categories(ctx)
	if err != nil {
		fmt.Fprintln(g.out, "Failed to load quiz categories. Please try again.")
		return err
	}
	g.categories = categories

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	readErr := make(chan error, 1)

	// The reader is not part of the group: a read blocked on a terminal only
	// returns on more input, and Close does not wake it.
	go func() {
		readErr <- g.readLines(ctx, lines)
	}()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		defer cancel()
		return g.loop(ctx, lines, readErr)
	})
	grp.Go(func() error {
		<-ctx.Done()
		g.closeInput()
		return nil
	})

	err = grp.Wait()
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (g *Game) readLines(ctx context.Context, lines chan<- string) error {
	defer close(lines)
	scanner := bufio.NewScanner(g.in)
	for scanner.Scan() {
		select {
		case lines <- strings.TrimSpace(scanner.Text()):
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (g *Game) closeInput() {
	if c, ok := g.in.(io.Closer); ok {
		_ = c.Close()
	}
}

func (g *Game) loop(ctx context.Context, lines <-chan string, readErr <-chan error) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	if g.category != "" {
		if err := g.startCategory(ctx, g.category, ticker); err != nil {
			return err
		}
	} else {
		g.showMenu()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return err
				}
				return errQuit
			}
			if err := g.handleLine(ctx, line, ticker); err != nil {
				return err
			}
		case <-ticker.C:
			if g.mode != modePlaying {
				continue
			}
			if err := g.handleTick(ctx, ticker); err != nil {
				return err
			}
		}
	}
}

func (g *Game) handleLine(ctx context.Context, line string, ticker *time.Ticker) error {
	switch strings.ToLower(line) {
	case "q", "quit":
		return errQuit
	case "l", "leaderboard":
		g.showLeaderboard(ctx)
		return nil
	case "r", "reset", "p", "play":
		g.session.Reset()
		g.showMenu()
		return nil
	case "":
		return nil
	}

	switch g.mode {
	case modeMenu:
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(g.categories) {
			fmt.Fprintf(g.out, "Choose a category between 1 and %d.\n", len(g.categories))
			return nil
		}
		return g.startCategory(ctx, g.categories[n-1].ID, ticker)
	case modePlaying:
		answer, ok := parseOption(line)
		if !ok {
			fmt.Fprintf(g.out, "Choose an option between 1 and %d.\n", domain.OptionsPerQuestion)
			return nil
		}
		view := g.session.View()
		result, err := g.session.SubmitAnswerFor(ctx, view.QuestionIndex, answer)
		if err != nil {
			return fmt.Errorf("submit answer: %w", err)
		}
		g.afterAnswer(result, ticker)
	default:
		fmt.Fprintln(g.out, "Enter p to play again, l for the leaderboard or q to quit.")
	}
	return nil
}

func (g *Game) handleTick(ctx context.Context, ticker *time.Ticker) error {
	view := g.session.View()
	result, err := g.session.TickFor(ctx, view.QuestionIndex)
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	if result != nil {
		g.afterAnswer(*result, ticker)
		return nil
	}

	remaining := g.session.View().TimeRemaining
	if remaining == 10 || remaining == 5 {
		fmt.Fprintf(g.out, "! %ds left\n", remaining)
	}
	return nil
}

func (g *Game) startCategory(ctx context.Context, categoryID string, ticker *time.Ticker) error {
	category, err := g.service.Category(ctx, categoryID)
	if err == nil {
		err = g.session.Start(ctx, category)
	}
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound), errors.Is(err, domain.ErrEmptyCategory):
		fmt.Fprintln(g.out, "Failed to load questions. Please try again.")
		g.log.WarnContext(ctx, "game: start failed", "category", categoryID, "error", err)
		g.showMenu()
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintf(g.out, "Game started! Good luck with %s questions!\n", category.Name)
	g.mode = modePlaying
	ticker.Reset(g.interval)
	g.showQuestion()
	return nil
}

func (g *Game) afterAnswer(result domain.AnswerResult, ticker *time.Ticker) {
	switch {
	case result.Correct:
		fmt.Fprintln(g.out, "Correct! Well done!")
	case result.TimedOut:
		fmt.Fprintf(g.out, "Time's up! The correct answer was: %s\n", result.CorrectOption)
	default:
		fmt.Fprintf(g.out, "Wrong answer. The correct answer was: %s\n", result.CorrectOption)
	}
	if result.Explanation != "" {
		fmt.Fprintf(g.out, "  %s\n", result.Explanation)
	}

	if result.Completed {
		g.mode = modeResults
		g.showResults()
		return
	}
	ticker.Reset(g.interval)
	g.showQuestion()
}

func (g *Game) showMenu() {
	g.mode = modeMenu
	fmt.Fprintln(g.out, "\nEcho Quiz Master - choose a category:")
	for i, c := range g.categories {
		fmt.Fprintf(g.out, "  %d) %s (%d questions) - %s\n", i+1, c.Name, c.QuestionCount, c.Description)
	}
	fmt.Fprintln(g.out, "  l) Leaderboard   q) Quit")
}

func (g *Game) showQuestion() {
	v := g.session.View()
	if v.Question == nil {
		return
	}
	fmt.Fprintf(g.out, "\nQuestion %d of %d | %s | %d%% complete | Score %d/%d\n",
		v.QuestionNumber, v.TotalQuestions, v.Category.Name, v.Progress(), v.Score, v.TotalQuestions)
	fmt.Fprintf(g.out, "[%s] %s\n", v.Question.Difficulty, v.Question.Text)
	for i, opt := range v.Question.Options {
		fmt.Fprintf(g.out, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprintf(g.out, "(%ds) answer 1-%d, r = reset: ", v.TimeRemaining, len(v.Question.Options))
}

func (g *Game) showResults() {
	v := g.session.View()
	s := g.session.Summary()
	fmt.Fprintf(g.out, "\nQuiz Complete! %s\n", s.Message)
	fmt.Fprintf(g.out, "%s\n", v.Category.Name)
	fmt.Fprintf(g.out, "Score: %d/%d (%d%%)  Correct: %d  Wrong: %d\n", s.Score, s.Total, s.Percentage, s.Score, s.Wrong)
	if s.Percentage >= 75 {
		fmt.Fprintln(g.out, "Great job! You really know your stuff!")
	} else {
		fmt.Fprintln(g.out, "Practice makes perfect! Try again to improve your score.")
	}
	if err := g.session.RecordErr(); err != nil {
		fmt.Fprintln(g.out, "Your score could not be saved to the leaderboard.")
	}
	fmt.Fprintln(g.out, "p) Play again   l) Leaderboard   q) Quit")
}

func (g *Game) showLeaderboard(ctx context.Context) {
	entries, err := g.service.Leaderboard(ctx)
	if err != nil {
		fmt.Fprintln(g.out, "Failed to load the leaderboard. Please try again.")
	}
	RenderLeaderboard(g.out, entries)
	if g.mode == modePlaying {
		g.showQuestion()
	}
}

// RenderLeaderboard writes ranked entries as a table.
func RenderLeaderboard(w io.Writer, entries []domain.LeaderboardEntry) {
	fmt.Fprintln(w, "\nLeaderboard")
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scores yet. Be the first to play!")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "#%-2d %-16s %3d/%-3d %3d%%  %-22s %s\n",
			i+1, e.PlayerName, e.Score, e.TotalQuestions, e.Percentage(), e.Category,
			e.Timestamp.Local().Format("2006-01-02 15:04"))
	}
}

func parseOption(line string) (int, bool) {
	if n, err := strconv.Atoi(line); err == nil {
		if n >= 1 && n <= domain.OptionsPerQuestion {
			return n - 1, true
		}
		return 0, false
	}
	if len(line) == 1 {
		c := strings.ToLower(line)[0]
		if c >= 'a' && c < 'a'+domain.OptionsPerQuestion {
			return int(c - 'a'), true
		}
	}
	return 0, false
}
