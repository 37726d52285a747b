// Package repl runs the line-oriented chat loop and single-query mode.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mwiater/jusbot/internal/models"
	"github.com/mwiater/jusbot/internal/session"
)

// Operator-facing messages.
const (
	FarewellQuit      = "Thanks for using JUSBOT AI Chat! Goodbye!"
	FarewellInterrupt = "Chat interrupted. Goodbye!"
	FarewellEOF       = "Chat ended. Goodbye!"
	EmptyReminder     = "Please enter a message or type 'help' for commands."
	InvalidChoice     = "Invalid choice. Keeping current model."
)

// Options configures a Loop.
type Options struct {
	// In supplies operator lines.
	In io.Reader
	// Out receives prompts and replies.
	Out io.Writer
	// Model is the starting model. Empty means the session catalog's fast model.
	Model models.Model
	// SystemInstruction is the persona sent with every prompt.
	SystemInstruction string
}

type lineResult struct {
	line string
	err  error
}

// Loop is the interactive chat loop. Its only mutable state is the current
// model.
type Loop struct {
	session *session.Session
	in      io.Reader
	out     io.Writer
	lines   <-chan lineResult
	model   models.Model
	persona string

	youStyle  lipgloss.Style
	botStyle  lipgloss.Style
	noteStyle lipgloss.Style
	errStyle  lipgloss.Style
}

// New returns a Loop bound to sess.
func New(sess *session.Session, opts Options) *Loop {
	model := opts.Model
	if model == "" && sess != nil {
		model = sess.Catalog().Fast
	}
	r := lipgloss.NewRenderer(opts.Out)
	return &Loop{
		session:   sess,
		in:        opts.In,
		out:       opts.Out,
		model:     model,
		persona:   opts.SystemInstruction,
		youStyle:  r.NewStyle().Bold(true),
		botStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		noteStyle: r.NewStyle().Faint(true),
		errStyle:  r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Model returns the model used for the next prompt.
func (l *Loop) Model() models.Model { return l.model }

// Run reads and handles lines until the operator quits, input ends or ctx is
// cancelled. All three are normal terminations and return nil; only a failed
// read of the input stream is returned as an error.
func (l *Loop) Run(ctx context.Context) error {
	// Cancelling on return releases the line reader.
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		l.lines = nil
	}()

	l.banner()
	for {
		line, err := l.readLine(ctx, "\n"+l.youStyle.Render("You:")+" ")
		if err != nil {
			return l.stop(err)
		}
		done, err := l.turn(ctx, line)
		if err != nil {
			return l.stop(err)
		}
		if done {
			return nil
		}
	}
}

// Ask runs single-query mode: words are joined into one prompt, sent once
// with the loop's model, and the outcome is printed and returned.
func (l *Loop) Ask(ctx context.Context, words []string) session.Response {
	prompt := strings.Join(words, " ")
	fmt.Fprintf(l.out, "Query: %s\n", prompt)
	resp := l.send(ctx, prompt)
	fmt.Fprintf(l.out, "\nResponse: %s\n", resp)
	return resp
}

func (l *Loop) banner() {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(l.out, rule)
	fmt.Fprintln(l.out, "Welcome to JUSBOT AI Chat!")
	fmt.Fprintln(l.out, rule)
	fmt.Fprintln(l.out, "Type your message and press Enter to chat with JUSBOT.")
	fmt.Fprintln(l.out, HelpText)
	fmt.Fprintln(l.out, rule)
	fmt.Fprintf(l.out, "Current model: %s\n", l.model)
}

// turn handles one line. A panic inside the turn is reported and swallowed
// so the loop keeps going; a returned error means the input was interrupted
// or closed mid-turn.
func (l *Loop) turn(ctx context.Context, line string) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("repl: recovered from panic: %v", r)
			fmt.Fprintf(l.out, "\n%s\n", l.errStyle.Render(fmt.Sprintf("Unexpected error: %v", r)))
			fmt.Fprintln(l.out, "Please try again or type 'quit' to exit.")
			done, err = false, nil
		}
	}()

	switch Parse(line) {
	case CommandQuit:
		fmt.Fprintf(l.out, "\n%s\n", FarewellQuit)
		return true, nil
	case CommandHelp:
		fmt.Fprintf(l.out, "\n%s\n", HelpText)
	case CommandModel:
		return false, l.chooseModel(ctx)
	case CommandEmpty:
		fmt.Fprintln(l.out, EmptyReminder)
	default:
		resp := l.send(ctx, strings.TrimSpace(line))
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		fmt.Fprintf(l.out, "\n%s %s\n", l.botStyle.Render("JUSBOT:"), resp)
	}
	return false, nil
}

func (l *Loop) send(ctx context.Context, prompt string) session.Response {
	fmt.Fprintln(l.out, l.noteStyle.Render(fmt.Sprintf("Generating response using %s...", l.model)))
	return l.session.Request(ctx, prompt, l.model, l.persona)
}

func (l *Loop) chooseModel(ctx context.Context) error {
	fmt.Fprintln(l.out, "\nAvailable models:")
	for _, e := range l.session.Catalog().Entries() {
		fmt.Fprintf(l.out, "  %s. %s (%s)\n", e.Choice, e.Model, e.Description)
	}
	choice, err := l.readLine(ctx, "Select model (1 or 2): ")
	if err != nil {
		return err
	}
	m, ok := l.session.Catalog().Choose(choice)
	if !ok {
		fmt.Fprintln(l.out, InvalidChoice)
		return nil
	}
	l.model = m
	fmt.Fprintf(l.out, "Switched to %s\n", m)
	return nil
}

// stop maps the error that ended the loop to a farewell.
func (l *Loop) stop(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(l.out, "\n\n%s\n", FarewellInterrupt)
		return nil
	case errors.Is(err, io.EOF):
		fmt.Fprintf(l.out, "\n\n%s\n", FarewellEOF)
		return nil
	default:
		return fmt.Errorf("reading input: %w", err)
	}
}

// readLine prints prompt and waits for the next line or for ctx to end.
// Lines come from a single reader goroutine so a blocked read can be
// abandoned on interrupt.
func (l *Loop) readLine(ctx context.Context, prompt string) (string, error) {
	if l.lines == nil {
		l.lines = scanLines(ctx, l.in)
	}
	fmt.Fprint(l.out, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-l.lines:
		if !ok {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return r.line, r.err
	}
}

// scanLines feeds lines from in until input ends or ctx is done.
func scanLines(ctx context.Context, in io.Reader) <-chan lineResult {
	ch := make(chan lineResult)
	go func() {
		defer close(ch)
		send := func(r lineResult) bool {
			select {
			case ch <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			if !send(lineResult{line: sc.Text()}) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			send(lineResult{err: err})
		}
	}()
	return ch
}
