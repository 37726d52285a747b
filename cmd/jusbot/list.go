// cmd/jusbot/list.go
package jusbot

import (
	"github.com/spf13/cobra"
)

// listCmd represents the 'list' command group and acts as a namespace
// for subcommands that list information (for example, commands or models).
// Words that do not name a subcommand are answered as a question.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Group commands for listing resources",
	Long:  `The 'list' command groups related subcommands that list resources or information. Any other words after 'list' are sent to JUSBOT as a question, e.g. "jusbot list my rights".`,
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runPrompt(cmd, append([]string{cmd.Name()}, args...))
	},
}

func init() {
	listCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(listCmd)
}
