package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"echo-quiz/internal/app"
	"echo-quiz/internal/config"
	"echo-quiz/internal/infra/file"
	"echo-quiz/internal/infra/memory"
	infraredis "echo-quiz/internal/infra/redis"
	"echo-quiz/internal/infra/sqlite"
	"github.com/redis/go-redis/v9"
)

// buildService assembles the quiz service from config. The returned cleanup
// releases backend connections.
func buildService(ctx context.Context, cfg config.Config) (*app.QuizService, func(), error) {
	logger := slog.Default()

	var (
		bank *memory.QuestionBank
		err  error
	)
	if cfg.Quiz.BankPath != "" {
		bank, err = memory.LoadQuestionBankFile(cfg.Quiz.BankPath)
	} else {
		bank, err = memory.DefaultQuestionBank()
	}
	if err != nil {
		return nil, nil, err
	}

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	board := app.NewLeaderboard(app.LeaderboardConfig{
		Store:  store,
		Key:    cfg.Leaderboard.Key,
		Size:   cfg.Leaderboard.Size,
		Logger: logger,
	})
	return app.NewQuizService(bank, board, logger), cleanup, nil
}

func openStore(ctx context.Context, cfg config.Config) (app.KVStore, func(), error) {
	noop := func() {}
	switch cfg.Leaderboard.Backend {
	case config.BackendMemory:
		return memory.NewKVStore(), noop, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return infraredis.NewKVStore(client, cfg.Redis.Prefix), func() { _ = client.Close() }, nil
	case config.BackendSQLite:
		path := cfg.DataPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.BackendFile, "":
		store, err := file.NewKVStore(cfg.DataPath())
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown leaderboard backend %q", cfg.Leaderboard.Backend)
	}
}

func loadService(ctx context.Context, configPath string) (*app.QuizService, config.Config, func(), error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, cfg, nil, err
	}
	service, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return nil, cfg, nil, err
	}
	return service, cfg, cleanup, nil
}
