package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"echo-quiz/internal/app"
	"echo-quiz/internal/transport/terminal"
	"github.com/spf13/cobra"
)

// NewPlayCmd builds the CLI subcommand that runs an interactive quiz.
func NewPlayCmd(configPath, player *string) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a timed quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, *player, category)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category id to start immediately (science, history, technology, sports)")
	return cmd
}

func runPlay(ctx context.Context, configPath, playerFlag, category string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, cfg, cleanup, err := loadService(ctx, configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	player := playerFlag
	if player == "" {
		player = cfg.Player.Name
	}

	slog.Debug("starting quiz", "backend", cfg.Leaderboard.Backend, "player", player, "category", category)
	game := terminal.NewGame(terminal.Config{
		Service:      service,
		In:           os.Stdin,
		Out:          os.Stdout,
		TickInterval: cfg.TickInterval(),
		Category:     category,
		SessionOptions: []app.SessionOption{
			app.WithPlayerName(player),
			app.WithTimeLimit(cfg.TimeLimitSeconds()),
		},
	})
	return game.Run(ctx)
}
