package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCategoriesCmd lists the available quiz categories.
func NewCategoriesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List quiz categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _, cleanup, err := loadService(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			categories, err := service.Categories(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range categories {
				fmt.Fprintf(out, "%-12s %-22s %2d questions  %s\n", c.ID, c.Name, c.QuestionCount, c.Description)
			}
			return nil
		},
	}
}
