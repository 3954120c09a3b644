package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"echo-quiz/internal/app"
	"echo-quiz/internal/domain"
	"echo-quiz/internal/infra/memory"
	infraredis "echo-quiz/internal/infra/redis"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestLeaderboardOnRedisEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	service := newService(t, client)

	playCategory(t, ctx, service, "Ada", "science", 9)
	playCategory(t, ctx, service, "Grace", "technology", 10)
	playCategory(t, ctx, service, "Linus", "sports", 4)

	raw, err := client.Get(ctx, "echo-quiz:"+app.DefaultLeaderboardKey).Bytes()
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	var stored []map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("stored value is not a JSON array: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored entries, got %d", len(stored))
	}
	for _, field := range []string{"playerName", "score", "totalQuestions", "category", "timestamp"} {
		if _, ok := stored[0][field]; !ok {
			t.Fatalf("stored entry missing %q: %v", field, stored[0])
		}
	}

	// A second process sharing the backend sees the same ranking.
	other := newService(t, client)
	entries, err := other.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.PlayerName
	}
	if strings.Join(got, ",") != "Grace,Ada,Linus" {
		t.Fatalf("unexpected ranking: %v", got)
	}
	if entries[0].Category != "Technology" {
		t.Fatalf("expected category display name, got %q", entries[0].Category)
	}

	if err := other.ClearLeaderboard(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err = service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard after clear: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty leaderboard after clear, got %d", len(entries))
	}
}

func TestCorruptLeaderboardOnRedisIsReplaced(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	if err := client.Set(ctx, "echo-quiz:"+app.DefaultLeaderboardKey, "not json", 0).Err(); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	service := newService(t, client)
	entries, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("corrupt data should read as empty, got %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}

	playCategory(t, ctx, service, "Ada", "history", 5)
	entries, err = service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].Score != 5 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func newService(t *testing.T, client *goredis.Client) *app.QuizService {
	t.Helper()
	bank, err := memory.DefaultQuestionBank()
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	board := app.NewLeaderboard(app.LeaderboardConfig{
		Store: infraredis.NewKVStore(client, "echo-quiz:"),
	})
	return app.NewQuizService(bank, board, nil)
}

// playCategory answers the first `correct` questions right and the rest wrong.
func playCategory(t *testing.T, ctx context.Context, service *app.QuizService, player, categoryID string, correct int) {
	t.Helper()
	category, err := service.Category(ctx, categoryID)
	if err != nil {
		t.Fatalf("category %s: %v", categoryID, err)
	}
	session := service.NewSession(app.WithPlayerName(player))
	if err := session.Start(ctx, category); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; session.Phase() == domain.PhaseInProgress; i++ {
		q := session.View().Question
		answer := q.CorrectAnswer
		if i >= correct {
			answer = (answer + 1) % domain.OptionsPerQuestion
		}
		if _, err := session.SubmitAnswer(ctx, answer); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if err := session.RecordErr(); err != nil {
		t.Fatalf("record score: %v", err)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
