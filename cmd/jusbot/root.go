// cmd/jusbot/root.go
package jusbot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mwiater/jusbot/internal/repl"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cfgFile holds the --config flag.
var cfgFile string

// rootCmd is the base Cobra command. Without arguments it starts the
// interactive loop; with arguments it answers them as a single query.
var rootCmd = &cobra.Command{
	Use:   "jusbot [prompt words...]",
	Short: "Chat with JUSBOT, a sarcastic legal advisor",
	Long: `jusbot forwards your messages to a hosted language model and prints the reply.

Run it without arguments for an interactive session, or pass a question to
get a single answer: jusbot what is law. Flags go before the question;
everything from the first word on is sent as typed. Use "jusbot -- <words>"
to send words that would otherwise name a subcommand.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return runPrompt(cmd, args)
		}
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return a.loop(cmd).Run(cmd.Context())
	},
}

// helpCmd replaces cobra's help command. "jusbot help <command>" shows that
// command's help; any other words after "help" are answered as a question.
var helpCmd = &cobra.Command{
	Use:    "help [command]",
	Short:  "Help about any command",
	Long:   `Help provides help for any command in the application. Words that do not name a command are sent to JUSBOT as a question.`,
	Hidden: true,
	Args:   cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		target, rest, err := root.Find(args)
		if len(args) > 0 && (err != nil || target == root || len(rest) > 0) {
			return runPrompt(cmd, append([]string{cmd.Name()}, args...))
		}
		target.InitDefaultHelpFlag()
		return target.Help()
	},
}

// runPrompt answers words as one single query.
func runPrompt(cmd *cobra.Command, words []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return ask(cmd, a.loop(cmd), words)
}

// ask runs single-query mode. The response content never changes the exit
// status.
func ask(cmd *cobra.Command, loop *repl.Loop, args []string) error {
	loop.Ask(cmd.Context(), args)
	if cmd.Context().Err() != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\n\n%s\n", "Application interrupted. Goodbye!")
	}
	return nil
}

// Execute runs the root command with SIGINT/SIGTERM wired to cancellation.
// It prints any returned error and exits the process with a non-zero
// status code on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := runRoot(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runRoot executes the command tree and turns a panic that escaped it into
// an error.
func runRoot(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fatal error: %v", r)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Flags().SetInterspersed(false)
	helpCmd.Flags().SetInterspersed(false)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./jusbot.yaml or ~/.config/jusbot/jusbot.yaml)")
	flags.String("provider", "", "backend to use: gemini, openai or ollama")
	flags.String("model", "", "starting model: fast, capable or a model identifier")
	flags.String("base-url", "", "override the provider endpoint")
	flags.Duration("timeout", 0, "per-request timeout (default 60s)")
	flags.Bool("debug", false, "log diagnostics to the log file and show response metadata")

	viper.BindPFlag("provider", flags.Lookup("provider"))
	viper.BindPFlag("model", flags.Lookup("model"))
	viper.BindPFlag("base_url", flags.Lookup("base-url"))
	viper.BindPFlag("timeout", flags.Lookup("timeout"))
	viper.BindPFlag("debug", flags.Lookup("debug"))
}
