// cmd/jusbot/list_config.go
package jusbot

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

// listConfigCmd implements 'list config', which pretty-prints the resolved
// configuration with the API key masked.
var listConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long:  `The 'config' subcommand prints the configuration after flags, environment variables and the config file are merged. The API key is masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = pp.Fprintln(cmd.OutOrStdout(), cfg.Redacted())
		return err
	},
}

func init() {
	listCmd.AddCommand(listConfigCmd)
}
