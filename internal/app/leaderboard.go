package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"echo-quiz/internal/domain"
)

const (
	// DefaultLeaderboardKey is the storage key holding the ranked entries.
	DefaultLeaderboardKey = "quizLeaderboard"
	// DefaultLeaderboardSize is how many entries survive each Record.
	DefaultLeaderboardSize = 10
)

// KVStore abstracts the durable key-value backend (file, Redis, SQLite, in-memory).
// Get returns domain.ErrKeyNotFound for absent keys. Set must replace the value atomically.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LeaderboardConfig configures a Leaderboard.
type LeaderboardConfig struct {
	Store  KVStore
	Key    string
	Size   int
	Logger *slog.Logger
}

// Leaderboard keeps the top entries, ranked, as one JSON array under a single key.
//
// Record is a read-modify-write without cross-process locking: two processes
// recording at the same time may lose one of the entries.
type Leaderboard struct {
	store KVStore
	key   string
	size  int
	log   *slog.Logger
}

func NewLeaderboard(c LeaderboardConfig) *Leaderboard {
	l := &Leaderboard{
		store: c.Store,
		key:   c.Key,
		size:  c.Size,
		log:   c.Logger,
	}
	if l.key == "" {
		l.key = DefaultLeaderboardKey
	}
	if l.size <= 0 {
		l.size = DefaultLeaderboardSize
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	return l
}

// Record appends entry, re-ranks, keeps the top entries and persists them.
// On failure the previously persisted list is left untouched.
func (l *Leaderboard) Record(ctx context.Context, entry domain.LeaderboardEntry) error {
	if entry.TotalQuestions <= 0 {
		return fmt.Errorf("record score: total questions must be positive, got %d", entry.TotalQuestions)
	}

	entries, err := l.load(ctx)
	if err != nil {
		l.log.ErrorContext(ctx, "leaderboard: read before record failed", "key", l.key, "error", err)
		return err
	}

	entries = append(entries, entry)
	RankEntries(entries)
	if len(entries) > l.size {
		entries = entries[:l.size]
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return errors.Join(domain.ErrPersistenceWrite, fmt.Errorf("encode leaderboard: %w", err))
	}
	if err := l.store.Set(ctx, l.key, data); err != nil {
		l.log.ErrorContext(ctx, "leaderboard: save failed", "key", l.key, "error", err)
		return errors.Join(domain.ErrPersistenceWrite, err)
	}

	l.log.DebugContext(ctx, "leaderboard: score saved",
		"player", entry.PlayerName,
		"score", entry.Score,
		"total", entry.TotalQuestions,
		"category", entry.Category,
	)
	return nil
}

// List returns the persisted entries in ranked order. Corrupt data reads as an
// empty leaderboard; an unreachable backend returns an empty list and an error.
func (l *Leaderboard) List(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := l.load(ctx)
	if err != nil {
		l.log.ErrorContext(ctx, "leaderboard: load failed", "key", l.key, "error", err)
		return []domain.LeaderboardEntry{}, err
	}
	return entries, nil
}

// Clear removes every persisted entry.
func (l *Leaderboard) Clear(ctx context.Context) error {
	if err := l.store.Delete(ctx, l.key); err != nil {
		return errors.Join(domain.ErrPersistenceWrite, err)
	}
	return nil
}

func (l *Leaderboard) load(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	raw, err := l.store.Get(ctx, l.key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return []domain.LeaderboardEntry{}, nil
	}
	if err != nil {
		return nil, errors.Join(domain.ErrPersistenceRead, err)
	}

	var stored []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &stored); err != nil {
		l.log.WarnContext(ctx, "leaderboard: stored data is corrupt, treating as empty", "key", l.key, "error", err)
		return []domain.LeaderboardEntry{}, nil
	}

	entries := make([]domain.LeaderboardEntry, 0, len(stored))
	for _, e := range stored {
		if e.TotalQuestions <= 0 {
			l.log.WarnContext(ctx, "leaderboard: dropping entry without questions", "player", e.PlayerName)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// RankEntries sorts entries by accuracy descending, then raw score descending.
// Entries equal on both keep their relative order.
func RankEntries(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return ranksBefore(entries[i], entries[j])
	})
}

func ranksBefore(a, b domain.LeaderboardEntry) bool {
	// Compare a.Score/a.Total with b.Score/b.Total without floating point.
	lhs := a.Score * b.TotalQuestions
	rhs := b.Score * a.TotalQuestions
	if lhs != rhs {
		return lhs > rhs
	}
	return a.Score > b.Score
}
