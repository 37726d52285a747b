package repl

import "strings"

// Command is what one line of operator input asks for.
type Command int

const (
	// CommandPrompt forwards the line to the model.
	CommandPrompt Command = iota
	// CommandQuit ends the session.
	CommandQuit
	// CommandHelp prints the command summary.
	CommandHelp
	// CommandModel switches between the fast and capable models.
	CommandModel
	// CommandEmpty is blank input.
	CommandEmpty
)

func (c Command) String() string {
	switch c {
	case CommandQuit:
		return "quit"
	case CommandHelp:
		return "help"
	case CommandModel:
		return "model"
	case CommandEmpty:
		return "empty"
	default:
		return "prompt"
	}
}

// Parse classifies a line. Reserved words are matched after trimming and
// case folding; anything else that is not blank is a prompt.
func Parse(line string) Command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit", "q":
		return CommandQuit
	case "help":
		return CommandHelp
	case "model":
		return CommandModel
	case "":
		return CommandEmpty
	default:
		return CommandPrompt
	}
}

// HelpText is the command summary shown by "help".
const HelpText = `Available commands:
  - Type any message to chat with JUSBOT
  - 'quit', 'exit' or 'q' to end the session
  - 'help' to show this help message
  - 'model' to switch between models`
