package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	playerName string
	verbose    bool
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	// A missing .env is fine; it only seeds the environment lookups below.
	_ = godotenv.Load()

	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "echo-quiz",
		Short:         "Timed multiple-choice trivia with a local leaderboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&playerName, "player", os.Getenv("QUIZ_PLAYER"), "player name recorded on the leaderboard")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.AddCommand(NewPlayCmd(&configPath, &playerName))
	cmd.AddCommand(NewCategoriesCmd(&configPath))
	cmd.AddCommand(NewLeaderboardCmd(&configPath))
	return cmd
}
