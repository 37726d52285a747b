// Package tui renders the full-screen chat view used by "jusbot chat".
package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mwiater/jusbot/internal/models"
	"github.com/mwiater/jusbot/internal/repl"
	"github.com/mwiater/jusbot/internal/session"
)

// Options configures the chat view.
type Options struct {
	// Model is the starting model.
	Model models.Model
	// SystemInstruction is the persona sent with every prompt.
	SystemInstruction string
	// Debug shows timing and token estimates under each reply.
	Debug bool
}

// viewState represents the current state of the application's view.
type viewState int

const (
	// viewChat is the conversation view.
	viewChat viewState = iota
	// viewModelSelector is the list of models opened by "model".
	viewModelSelector
)

// Greeting opens every chat view.
const Greeting = "Hello! I'm JusBot, your AI legal assistant. How can I help you today? Please remember, I am an AI and cannot provide legal advice."

const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleNote      = "note"
)

// chatMessage is one rendered line of the conversation.
type chatMessage struct {
	Role    string
	Content string
}

// responseMeta describes the last reply when debug mode is on.
type responseMeta struct {
	Model        models.Model
	Elapsed      time.Duration
	PromptTokens int
	ReplyTokens  int
	OK           bool
	Done         bool
}

// model is the Bubble Tea model for the chat view.
type model struct {
	ctx     context.Context
	session *session.Session
	persona string
	debug   bool

	state     viewState
	isLoading bool

	modelList list.Model
	textArea  textarea.Model
	viewport  viewport.Model
	spinner   spinner.Model

	chatHistory  []chatMessage
	conversation []session.Turn
	currentModel models.Model
	responseMeta responseMeta

	width, height    int
	requestStartTime time.Time
	quitting         bool
}

// item is a selectable model in the list.
type item struct {
	title   string
	desc    string
	current bool
}

func (i item) Title() string { return i.title }

// Description marks the model in use.
func (i item) Description() string {
	if i.current {
		return i.desc + " (current)"
	}
	return i.desc
}

func (i item) FilterValue() string { return i.title }

// responseMsg carries a finished request back to Update.
type responseMsg struct {
	prompt  string
	model   models.Model
	resp    session.Response
	elapsed time.Duration
}

// tickMsg refreshes the elapsed timer while a request is in flight.
type tickMsg time.Time

func initialModel(ctx context.Context, sess *session.Session, opts Options) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "Ask JUSBOT anything..."
	ta.Focus()
	ta.Prompt = "You: "
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	current := opts.Model
	if current == "" {
		current = sess.Catalog().Fast
	}

	ml := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	ml.Title = "Select a Model"

	return &model{
		ctx:          ctx,
		session:      sess,
		persona:      opts.SystemInstruction,
		debug:        opts.Debug,
		state:        viewChat,
		spinner:      s,
		textArea:     ta,
		modelList:    ml,
		viewport:     viewport.New(100, 5),
		currentModel: current,
		chatHistory:  []chatMessage{{Role: roleAssistant, Content: Greeting}},
	}
}

// modelItems lists the catalog with the current model marked.
func (m *model) modelItems() []list.Item {
	entries := m.session.Catalog().Entries()
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = item{title: e.Model.String(), desc: e.Description, current: e.Model == m.currentModel}
	}
	return items
}

// requestCmd sends one prompt, with the earlier turns, through the session.
// The session never fails with an error, so the message always carries a
// printable Response.
func requestCmd(ctx context.Context, sess *session.Session, history []session.Turn, prompt string, mdl models.Model, persona string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		resp := sess.Converse(ctx, history, prompt, mdl, persona)
		return responseMsg{prompt: prompt, model: mdl, resp: resp, elapsed: time.Since(start)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the spinner animation.
func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update handles key presses, window changes and finished requests.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			if m.state == viewModelSelector {
				m.state = viewChat
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.modelList.SetSize(msg.Width-2, msg.Height-4)
		m.textArea.SetWidth(msg.Width - 3)
		headerHeight := 3
		footerHeight := 3
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - footerHeight
		m.refreshViewport()

	case responseMsg:
		m.isLoading = false
		m.chatHistory = append(m.chatHistory, chatMessage{Role: roleAssistant, Content: msg.resp.String()})
		if msg.resp.OK() {
			m.conversation = append(m.conversation,
				session.Turn{Role: session.RoleUser, Text: msg.prompt},
				session.Turn{Role: session.RoleModel, Text: msg.resp.Text()},
			)
		}
		m.responseMeta = m.measure(msg)
		m.textArea.Focus()
		m.refreshViewport()
		return m, nil

	case tickMsg:
		if m.isLoading {
			return m, tickCmd()
		}
		return m, nil
	}

	switch m.state {
	case viewModelSelector:
		m.modelList, cmd = m.modelList.Update(msg)
		cmds = append(cmds, cmd)
		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
			if selected, ok := m.modelList.SelectedItem().(item); ok {
				m.currentModel = models.Model(selected.title)
				m.chatHistory = append(m.chatHistory, chatMessage{Role: roleNote, Content: "Switched to " + selected.title})
				log.Printf("tui: switched to %s", selected.title)
			}
			m.state = viewChat
			m.refreshViewport()
		}

	case viewChat:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

		m.textArea, cmd = m.textArea.Update(msg)
		cmds = append(cmds, cmd)

		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" && !m.isLoading {
			cmds = append(cmds, m.submit(m.textArea.Value()))
		}
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit applies the same reserved words as the line-oriented loop.
func (m *model) submit(input string) tea.Cmd {
	input = strings.TrimSpace(input)
	switch repl.Parse(input) {
	case repl.CommandQuit:
		m.quitting = true
		return tea.Quit
	case repl.CommandHelp:
		m.textArea.Reset()
		m.chatHistory = append(m.chatHistory, chatMessage{Role: roleNote, Content: repl.HelpText})
		m.refreshViewport()
		return nil
	case repl.CommandModel:
		m.textArea.Reset()
		m.modelList.SetItems(m.modelItems())
		for i, it := range m.modelList.Items() {
			if it.(item).current {
				m.modelList.Select(i)
			}
		}
		m.state = viewModelSelector
		return nil
	case repl.CommandEmpty:
		return nil
	}

	m.responseMeta = responseMeta{}
	m.requestStartTime = time.Now()
	m.chatHistory = append(m.chatHistory, chatMessage{Role: roleUser, Content: input})
	m.textArea.Reset()
	m.isLoading = true
	m.refreshViewport()
	return tea.Batch(m.spinner.Tick, requestCmd(m.ctx, m.session, m.conversation, input, m.currentModel, m.persona), tickCmd())
}

// measure builds the debug metadata for a finished request.
func (m *model) measure(msg responseMsg) responseMeta {
	meta := responseMeta{Model: msg.model, Elapsed: msg.elapsed, OK: msg.resp.OK(), Done: true}
	if !m.debug {
		return meta
	}
	if n, err := models.EstimateTokens(msg.prompt); err == nil {
		meta.PromptTokens = n
	}
	if n, err := models.EstimateTokens(msg.resp.Text()); err == nil {
		meta.ReplyTokens = n
	}
	return meta
}

// View renders the application's UI based on its current state.
func (m *model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.state {
	case viewModelSelector:
		return lipgloss.NewStyle().Margin(1, 2).Render(m.modelList.View())
	case viewChat:
		return m.chatView()
	default:
		return "Unknown state"
	}
}

func (m *model) historyView() string {
	var b strings.Builder
	userStyle := lipgloss.NewStyle().Bold(true)
	assistantStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	noteStyle := lipgloss.NewStyle().Faint(true)

	width := m.width
	if width <= 0 {
		width = 100
	}
	for _, msg := range m.chatHistory {
		var role string
		switch msg.Role {
		case roleAssistant:
			role = assistantStyle.Render("JUSBOT: ")
		case roleUser:
			role = userStyle.Render("You: ")
		default:
			b.WriteString(noteStyle.Width(width-2).Render(msg.Content) + "\n")
			continue
		}
		content := msg.Content
		if msg.Role == roleAssistant {
			content = renderEmphasis(content)
		}
		wrapped := lipgloss.NewStyle().Width(width - lipgloss.Width(role) - 2).Render(content)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, role, wrapped) + "\n")
	}
	return b.String()
}

var (
	emphasisPattern = regexp.MustCompile(`\*\*.*?\*\*|\*.*?\*`)
	boldStyle       = lipgloss.NewStyle().Bold(true)
	italicStyle     = lipgloss.NewStyle().Italic(true)
)

// renderEmphasis turns **bold** and *italic* spans into styled text. Spans do
// not cross line breaks.
func renderEmphasis(text string) string {
	return emphasisPattern.ReplaceAllStringFunc(text, func(span string) string {
		if len(span) >= 4 && strings.HasPrefix(span, "**") && strings.HasSuffix(span, "**") {
			return boldStyle.Render(span[2 : len(span)-2])
		}
		return italicStyle.Render(span[1 : len(span)-1])
	})
}

func (m *model) refreshViewport() {
	m.viewport.SetContent(m.historyView())
	m.viewport.GotoBottom()
}

// chatView renders the header, the conversation and the input line.
func (m *model) chatView() string {
	var builder strings.Builder

	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	title := headerStyle.Render("JUSBOT AI Chat")
	modelInfo := headerStyle.MarginLeft(1).Render(fmt.Sprintf("Model: %s", m.currentModel))
	help := lipgloss.NewStyle().Faint(true).Render(" ('model' to switch, 'help', 'quit' to exit)")
	builder.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, title, modelInfo) + help + "\n\n")

	builder.WriteString(m.viewport.View())

	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		builder.WriteString("\n" + m.spinner.View() + fmt.Sprintf(" JUSBOT is thinking... %ss", timer))
	} else {
		builder.WriteString("\n" + m.textArea.View())
	}

	if m.debug && m.responseMeta.Done {
		builder.WriteString("\n" + formatMeta(m.responseMeta))
	}

	return builder.String()
}

// formatMeta renders the debug line shown under the input.
func formatMeta(meta responseMeta) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	status := "ok"
	if !meta.OK {
		status = "failed"
	}
	return style.Render(fmt.Sprintf(
		"  >>> [Model: %s] [Status: %s] [Elapsed: %.1fs] [Prompt: ~%d Tokens] [Reply: ~%d Tokens]",
		meta.Model,
		status,
		meta.Elapsed.Seconds(),
		meta.PromptTokens,
		meta.ReplyTokens,
	))
}

// Run starts the chat view and blocks until the operator quits or ctx is
// cancelled. Cancellation counts as a normal exit.
func Run(ctx context.Context, sess *session.Session, opts Options) error {
	m := initialModel(ctx, sess, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error running chat view: %w", err)
	}
	return nil
}
