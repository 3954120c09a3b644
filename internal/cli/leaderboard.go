package cli

import (
	"fmt"

	"echo-quiz/internal/transport/terminal"
	"github.com/spf13/cobra"
)

// NewLeaderboardCmd prints the stored leaderboard.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _, cleanup, err := loadService(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := service.Leaderboard(cmd.Context())
			if err != nil {
				return err
			}
			terminal.RenderLeaderboard(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all leaderboard entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _, cleanup, err := loadService(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := service.ClearLeaderboard(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Leaderboard cleared.")
			return nil
		},
	})
	return cmd
}
