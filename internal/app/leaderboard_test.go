package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"echo-quiz/internal/app"
	"echo-quiz/internal/domain"
	"echo-quiz/internal/infra/memory"
	"github.com/stretchr/testify/require"
)

func TestRankEntries(t *testing.T) {
	tests := map[string]struct {
		in   []domain.LeaderboardEntry
		want []string
	}{
		"higher accuracy ranks first regardless of insertion order": {
			in: []domain.LeaderboardEntry{
				entry("eighty", 8, 10),
				entry("ninety", 9, 10),
			},
			want: []string{"ninety", "eighty"},
		},
		"equal accuracy ranks higher raw score first": {
			in: []domain.LeaderboardEntry{
				entry("nine", 9, 10),
				entry("eighteen", 18, 20),
			},
			want: []string{"eighteen", "nine"},
		},
		"full ties keep insertion order": {
			in: []domain.LeaderboardEntry{
				entry("first", 5, 10),
				entry("second", 5, 10),
				entry("third", 5, 10),
			},
			want: []string{"first", "second", "third"},
		},
		"accuracy beats raw score": {
			in: []domain.LeaderboardEntry{
				entry("many", 15, 20),
				entry("few", 4, 4),
			},
			want: []string{"few", "many"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			entries := append([]domain.LeaderboardEntry(nil), tt.in...)
			app.RankEntries(entries)
			require.Equal(t, tt.want, names(entries))
		})
	}
}

func TestLeaderboard_RecordAndList(t *testing.T) {
	ctx := context.Background()
	board := newLeaderboard(memory.NewKVStore())

	require.NoError(t, board.Record(ctx, entry("eighty", 8, 10)))
	require.NoError(t, board.Record(ctx, entry("ninety", 9, 10)))

	got, err := board.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"ninety", "eighty"}, names(got))
}

func TestLeaderboard_TruncatesToTopTen(t *testing.T) {
	ctx := context.Background()
	board := newLeaderboard(memory.NewKVStore())

	for i := 1; i <= 10; i++ {
		require.NoError(t, board.Record(ctx, entry(fmt.Sprintf("p%d", i), i+5, 20)))
	}
	got, err := board.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 10)
	require.Equal(t, "p1", got[9].PlayerName)

	require.NoError(t, board.Record(ctx, entry("p11", 19, 20)))

	got, err = board.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 10)
	require.Equal(t, "p11", got[0].PlayerName)
	require.NotContains(t, names(got), "p1", "lowest ranked entry should be dropped")
}

func TestLeaderboard_NewEntryBelowCutoffIsDropped(t *testing.T) {
	ctx := context.Background()
	board := newLeaderboard(memory.NewKVStore())

	for i := 0; i < 10; i++ {
		require.NoError(t, board.Record(ctx, entry(fmt.Sprintf("p%d", i), 10, 10)))
	}
	require.NoError(t, board.Record(ctx, entry("late", 1, 10)))

	got, err := board.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 10)
	require.NotContains(t, names(got), "late")
}

func TestLeaderboard_CorruptDataReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	require.NoError(t, store.Set(ctx, app.DefaultLeaderboardKey, []byte(`{not json`)))
	board := newLeaderboard(store)

	got, err := board.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	require.NoError(t, board.Record(ctx, entry("fresh", 3, 10)))
	got, err = board.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"fresh"}, names(got))
}

func TestLeaderboard_PersistedLayout(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	board := newLeaderboard(store)

	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	e := entry("Player", 7, 10)
	e.Category = "Science & Nature"
	e.Timestamp = ts
	require.NoError(t, board.Record(ctx, e))

	raw, err := store.Get(ctx, app.DefaultLeaderboardKey)
	require.NoError(t, err)
	require.JSONEq(t, `[{"playerName":"Player","score":7,"totalQuestions":10,"category":"Science & Nature","timestamp":"2024-05-01T12:30:00Z"}]`, string(raw))

	// Entries written by other clients carry millisecond timestamps.
	require.NoError(t, store.Set(ctx, app.DefaultLeaderboardKey, []byte(
		`[{"playerName":"Player","score":7,"totalQuestions":10,"category":"History","timestamp":"2024-05-01T12:30:00.000Z"}]`)))
	got, err := board.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Timestamp.Equal(ts))
}

func TestLeaderboard_DropsEntriesWithoutQuestions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	require.NoError(t, store.Set(ctx, app.DefaultLeaderboardKey, []byte(
		`[{"playerName":"a","score":1,"totalQuestions":0,"category":"x","timestamp":"2024-05-01T12:30:00Z"},
		  {"playerName":"b","score":1,"totalQuestions":2,"category":"x","timestamp":"2024-05-01T12:30:00Z"}]`)))

	got, err := newLeaderboard(store).List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, names(got))

	require.Error(t, newLeaderboard(store).Record(ctx, entry("zero", 0, 0)))
}

func TestLeaderboard_WriteFailureKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{KVStore: memory.NewKVStore()}
	board := newLeaderboard(store)

	require.NoError(t, board.Record(ctx, entry("kept", 5, 10)))

	store.failSet = true
	err := board.Record(ctx, entry("lost", 9, 10))
	require.ErrorIs(t, err, domain.ErrPersistenceWrite)

	store.failSet = false
	got, err := board.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"kept"}, names(got))
}

func TestLeaderboard_ReadFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{KVStore: memory.NewKVStore()}
	board := newLeaderboard(store)
	require.NoError(t, board.Record(ctx, entry("kept", 5, 10)))

	store.failGet = true
	got, err := board.List(ctx)
	require.ErrorIs(t, err, domain.ErrPersistenceRead)
	require.Empty(t, got)

	err = board.Record(ctx, entry("new", 9, 10))
	require.ErrorIs(t, err, domain.ErrPersistenceRead)

	store.failGet = false
	got, err = board.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"kept"}, names(got), "a failed read must not overwrite stored entries")
}

func TestLeaderboard_Clear(t *testing.T) {
	ctx := context.Background()
	board := newLeaderboard(memory.NewKVStore())
	require.NoError(t, board.Record(ctx, entry("gone", 5, 10)))

	require.NoError(t, board.Clear(ctx))

	got, err := board.List(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestLeaderboard_CustomSize(t *testing.T) {
	ctx := context.Background()
	board := app.NewLeaderboard(app.LeaderboardConfig{Store: memory.NewKVStore(), Size: 2})

	require.NoError(t, board.Record(ctx, entry("a", 1, 10)))
	require.NoError(t, board.Record(ctx, entry("b", 2, 10)))
	require.NoError(t, board.Record(ctx, entry("c", 3, 10)))

	got, err := board.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, names(got))
}

type flakyStore struct {
	app.KVStore
	failGet bool
	failSet bool
}

var errBackend = errors.New("backend unavailable")

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failGet {
		return nil, errBackend
	}
	return s.KVStore.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet {
		return errBackend
	}
	return s.KVStore.Set(ctx, key, value)
}

func newLeaderboard(store app.KVStore) *app.Leaderboard {
	return app.NewLeaderboard(app.LeaderboardConfig{Store: store})
}

func entry(name string, score, total int) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		PlayerName:     name,
		Score:          score,
		TotalQuestions: total,
		Category:       "Science & Nature",
		Timestamp:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func names(entries []domain.LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.PlayerName
	}
	return out
}
