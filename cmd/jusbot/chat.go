// cmd/jusbot/chat.go
package jusbot

import (
	"github.com/mwiater/jusbot/internal/tui"
	"github.com/spf13/cobra"
)

var runTUI = tui.Run

// chatCmd represents the 'chat' command.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a full-screen chat session",
	Long:  `The 'chat' command starts a full-screen chat session with JUSBOT. The same reserved words apply: 'model', 'help' and 'quit'. Words after 'chat' are sent as a single question instead, e.g. "jusbot chat about my lease".`,
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return runPrompt(cmd, append([]string{cmd.Name()}, args...))
		}
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return runTUI(cmd.Context(), a.session, tui.Options{
			Model:             a.cfg.StartModel(),
			SystemInstruction: a.cfg.SystemInstruction,
			Debug:             a.cfg.Debug,
		})
	},
}

func init() {
	chatCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(chatCmd)
}
