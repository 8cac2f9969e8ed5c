package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/theapemachine/ukg/pkg/types"
)

const gap = "\n\n"

const welcome = `Universal Knowledge Graph console.
Ask a question and press Enter. Short questions are answered directly,
longer or regulatory ones go through the expert panel.
Press Esc or Ctrl+C to quit.`

/*
Querier answers one query. The router satisfies it.
*/
type Querier interface {
	ProcessQuery(ctx context.Context, text string, qctx map[string]any) types.QueryResult
}

type model struct {
	ctx      context.Context
	querier  Querier
	qctx     map[string]any
	viewport viewport.Model
	textarea textarea.Model
	messages []string
	pending  int
	asked    int
}

/*
New builds the console model. Every query is sent with qctx, which usually
carries a session id and a domain.
*/
func New(ctx context.Context, querier Querier, qctx map[string]any) tea.Model {
	ta := textarea.New()
	ta.Placeholder = "Ask the knowledge graph..."
	ta.Focus()

	ta.Prompt = "┃ "
	ta.CharLimit = 4096

	ta.SetWidth(80)
	ta.SetHeight(3)

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(80, 20)
	vp.SetContent(welcome)

	return model{
		ctx:      ctx,
		querier:  querier,
		qctx:     qctx,
		textarea: ta,
		viewport: vp,
		messages: []string{},
	}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.textarea.SetWidth(msg.Width)
		m.viewport.Height = msg.Height - m.textarea.Height() - lipgloss.Height(gap) - 2
		m.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, defaultKeymap.quit):
			return m, tea.Quit
		case key.Matches(msg, defaultKeymap.clear):
			m.messages = m.messages[:0]
			m.viewport.SetContent(welcome)
		case key.Matches(msg, defaultKeymap.send):
			query := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()

			if query != "" {
				m.pending++
				m.asked++
				return m, tea.Batch(tiCmd, vpCmd, m.ask(query))
			}
		}

	case resultMsg:
		m.pending--
		m.messages = append(m.messages, RenderResult(msg.query, msg.result, m.viewport.Width))
		m.refresh()
	}

	return m, tea.Batch(tiCmd, vpCmd)
}

/*
ask runs the query off the update loop; the answer comes back as a
resultMsg.
*/
func (m model) ask(query string) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{
			query:  query,
			result: m.querier.ProcessQuery(m.ctx, query, m.qctx),
		}
	}
}

func (m *model) refresh() {
	if len(m.messages) == 0 {
		return
	}

	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(strings.Join(m.messages, "\n")))
	m.viewport.GotoBottom()
}

func (m model) status() string {
	state := "ready"
	if m.pending > 0 {
		state = fmt.Sprintf("thinking (%d pending)", m.pending)
	}

	return statusBarStyle.Render(fmt.Sprintf("%s • %d asked • %s", state, m.asked, defaultKeymap.help()))
}

func (m model) View() string {
	return fmt.Sprintf(
		"%s\n%s%s%s",
		headerStyle.Render("ukg"),
		m.viewport.View(),
		gap,
		m.textarea.View()+"\n"+m.status(),
	)
}
