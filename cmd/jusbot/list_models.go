// cmd/jusbot/list_models.go
package jusbot

import (
	"fmt"
	"io"

	"github.com/mwiater/jusbot/internal/config"
	"github.com/spf13/cobra"
)

// listModelsCmd implements 'list models', which prints the two models the
// 'model' command switches between and marks the starting one.
var listModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the selectable models",
	Long:  `The 'models' subcommand lists the fast and capable models for the configured provider and marks the default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		listModels(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	listCmd.AddCommand(listModelsCmd)
}

func listModels(w io.Writer, cfg *config.Config) {
	start := cfg.StartModel()
	fmt.Fprintf(w, "Models for %s:\n", cfg.Provider)
	for _, e := range cfg.Catalog.Entries() {
		marker := ""
		if e.Model == start {
			marker = " [default]"
		}
		fmt.Fprintf(w, "  %s. %s (%s)%s\n", e.Choice, e.Model, e.Description, marker)
	}
}
