package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"askme/internal/chat"
)

const (
	headerHeight = 3
	footerHeight = 4 // loading line, recent questions, input, help
)

// replyMsg is delivered when a submitted question has resolved
type replyMsg struct {
	result chat.Result
}

// Model is the bubbletea model for the full-screen chat
type Model struct {
	ctx      context.Context
	manager  *chat.Manager
	markdown *Markdown

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	pending   *chat.Pending
	rendered  []string // rendered messages, index-aligned with the log
	recentIdx int
	ready     bool
	width     int
	height    int
}

// NewModel creates the TUI model. markdown may be nil for plain output.
func NewModel(ctx context.Context, manager *chat.Manager, markdown *Markdown) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your question..."
	ti.Prompt = "❯ "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.KeyMap = scrollKeys()

	return Model{
		ctx:      ctx,
		manager:  manager,
		markdown: markdown,
		input:    ti,
		viewport: vp,
		spinner:  sp,
	}
}

// scrollKeys keeps letters for typing; only paging keys scroll.
func scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		Up:       key.NewBinding(key.WithKeys("up")),
		Down:     key.NewBinding(key.WithKeys("down")),
	}
}

// Run starts the full-screen program and blocks until the user quits
func Run(ctx context.Context, manager *chat.Manager, markdown *Markdown) error {
	p := tea.NewProgram(
		NewModel(ctx, manager, markdown),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.pending != nil {
				m.pending.Cancel()
			}
			return m, tea.Quit

		case tea.KeyEsc:
			// Esc cancels an outstanding question, otherwise quits.
			if m.pending != nil {
				m.pending.Cancel()
				return m, nil
			}
			return m, tea.Quit

		case tea.KeyEnter:
			return m.submit()

		case tea.KeyTab:
			m.fillRecent()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.ready = true
		m.refresh()

	case replyMsg:
		m.pending = nil
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.pending == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.manager.SetInput(m.input.Value())

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit hands the input to the manager and waits for the reply off the
// event loop.
func (m Model) submit() (tea.Model, tea.Cmd) {
	p, ok := m.manager.Submit(m.ctx, m.input.Value())
	if !ok {
		return m, nil
	}
	m.pending = p
	m.recentIdx = 0
	m.input.Reset()
	m.refresh()

	return m, tea.Batch(waitForReply(p), m.spinner.Tick)
}

func waitForReply(p *chat.Pending) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{result: p.Wait()}
	}
}

// fillRecent cycles the input through the recent questions
func (m *Model) fillRecent() {
	recent := m.manager.State().Recent
	if len(recent) == 0 {
		return
	}
	q := recent[m.recentIdx%len(recent)]
	m.recentIdx++
	m.input.SetValue(q)
	m.input.CursorEnd()
	m.manager.SetInput(q)
}

// refresh re-renders the transcript and scrolls to the newest message
func (m *Model) refresh() {
	state := m.manager.State()
	// Messages never change once appended, so only new ones are rendered.
	for i := len(m.rendered); i < len(state.Messages); i++ {
		m.rendered = append(m.rendered, m.renderMessage(state.Messages[i]))
	}
	m.viewport.SetContent(strings.Join(m.rendered, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderMessage(msg chat.Message) string {
	if msg.Sender == chat.SenderUser {
		return colorGreen + colorBold + "You" + colorReset + "\n" + msg.Text
	}
	body := msg.Text
	if msg.Failed {
		body = colorRed + body + colorReset
	} else {
		body = m.markdown.Render(body)
	}
	return colorBlue + colorBold + "AskMe" + colorReset + "\n" + body
}

func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	var sb strings.Builder

	sb.WriteString(colorBold + colorCyan + "AskMe Bot" + colorReset + "\n")
	sb.WriteString(colorGray + "Your helpful AI assistant" + colorReset + "\n")
	sb.WriteString(colorDim + strings.Repeat("─", max(m.width, 1)) + colorReset + "\n")

	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	state := m.manager.State()
	if state.Loading() {
		sb.WriteString(m.spinner.View() + " " + colorGray + "thinking..." + colorReset)
	}
	sb.WriteString("\n")

	if len(state.Recent) > 0 {
		sb.WriteString(colorGray + "Recent: " + colorReset + strings.Join(quoteAll(state.Recent), "  "))
	}
	sb.WriteString("\n")

	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(colorGray + "enter send · tab recent · esc cancel/quit · pgup/pgdown scroll" + colorReset)

	return sb.String()
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
