package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"echo-quiz/internal/app"
	"echo-quiz/internal/domain"
)

func TestKVStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	store, err := NewKVStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Get(ctx, "quizLeaderboard"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key not found, got %v", err)
	}

	if err := store.Set(ctx, "quizLeaderboard", []byte(`[1]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "quizLeaderboard", []byte(`[2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "quizLeaderboard")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[2]` {
		t.Fatalf("expected [2], got %q", got)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(files) != 1 || files[0].Name() != "quizLeaderboard.json" {
		t.Fatalf("expected only the value file to remain, got %v", files)
	}

	if err := store.Delete(ctx, "quizLeaderboard"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "quizLeaderboard"); err != nil {
		t.Fatalf("delete missing key: %v", err)
	}
	if _, err := store.Get(ctx, "quizLeaderboard"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key removed, got %v", err)
	}
}

func TestKVStoreRejectsPathKeys(t *testing.T) {
	store, err := NewKVStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		if err := store.Set(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestKVStoreCorruptFileReadsAsEmptyLeaderboard(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, app.DefaultLeaderboardKey+".json"), []byte("{{{"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	store, err := NewKVStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	board := app.NewLeaderboard(app.LeaderboardConfig{Store: store})
	entries, err := board.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", entries)
	}
}
