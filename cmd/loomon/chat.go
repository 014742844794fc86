// Interactive chat interface built on bubbletea.
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/loomonai/loomon/internal/api"
	"github.com/loomonai/loomon/internal/flow"
	"github.com/loomonai/loomon/internal/render"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session.

Enter sends a message. When the assistant asks clarifying questions, pick
an option with ↑/↓ (or type a free-form answer) and confirm with Enter;
Esc skips the question. Ctrl+N starts a fresh conversation, Ctrl+G / Ctrl+B
rate the last response, Ctrl+C exits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newAssistantSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		p := tea.NewProgram(
			newChatModel(sess),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		)
		_, err = p.Run()
		return err
	},
}

const turnTimeout = 2 * time.Minute

type chatMessage struct {
	role    string // "user" or "assistant"
	content string
	refs    string
	time    time.Time
}

type (
	turnMsg  *flow.Turn
	errorMsg error
)

type chatModel struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	history   []chatMessage
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	// Clarification state. pendingTurn holds the question being answered.
	pendingTurn    *flow.Turn
	selectedOption int

	feedbackSent bool
	sess         *assistantSession
}

var (
	chatUserStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).MarginTop(1)
	chatAssistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).MarginTop(1)
	chatSpinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	chatErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	chatFooterStyle    = lipgloss.NewStyle().Faint(true)
	chatInputStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func newChatModel(sess *assistantSession) chatModel {
	ti := textinput.New()
	ti.Placeholder = "무엇이든 물어보세요... (Enter 전송, Ctrl+C 종료)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = chatSpinnerStyle

	vp := viewport.New(80, 20)
	vp.SetContent("")

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return chatModel{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		renderer:  renderer,
		history:   []chatMessage{},
		sess:      sess,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyCtrlN:
			m.sess.controller.Reset()
			m.history = nil
			m.pendingTurn = nil
			m.selectedOption = 0
			m.err = nil
			m.isLoading = false
			m.textinput.Reset()
			m.viewport.SetContent("")
			return m, nil

		case tea.KeyCtrlG, tea.KeyCtrlB:
			return m.handleFeedback(msg.Type == tea.KeyCtrlG)

		case tea.KeyEnter:
			if !m.isLoading {
				if m.pendingTurn != nil {
					return m.handleAnswer(false)
				}
				return m.handleSubmit()
			}

		case tea.KeyEsc:
			// Esc skips the current question.
			if m.pendingTurn != nil && !m.isLoading {
				return m.handleAnswer(true)
			}

		case tea.KeyUp:
			if q := m.pendingQuestion(); q != nil && len(q.Options) > 0 {
				if m.selectedOption > 0 {
					m.selectedOption--
				}
				return m, nil
			}

		case tea.KeyDown:
			if q := m.pendingQuestion(); q != nil && len(q.Options) > 0 {
				if m.selectedOption < len(q.Options)-1 {
					m.selectedOption++
				}
				return m, nil
			}

		case tea.KeyTab:
			if q := m.pendingQuestion(); q != nil && len(q.Options) > 0 {
				m.selectedOption = (m.selectedOption + 1) % len(q.Options)
				return m, nil
			}
		}

		if !m.isLoading {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		inputHeight := 3

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footerHeight - inputHeight
		}

		m.textinput.Width = msg.Width - 4

		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-8),
		)
		m.viewport.SetContent(m.renderHistory())

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case turnMsg:
		m.isLoading = false
		switch msg.Kind {
		case flow.TurnQuestions:
			m.pendingTurn = (*flow.Turn)(msg)
			m.selectedOption = 0
			m.textinput.Placeholder = "답변을 입력하거나 ↑/↓로 선택 후 Enter, Esc 건너뛰기"
			m.history = append(m.history, chatMessage{
				role:    "assistant",
				content: m.formatQuestion((*flow.Turn)(msg)),
				time:    time.Now(),
			})
		case flow.TurnGenerated:
			m.pendingTurn = nil
			m.feedbackSent = false
			m.textinput.Placeholder = "무엇이든 물어보세요... (Enter 전송, Ctrl+C 종료)"
			m.history = append(m.history, chatMessage{
				role:    "assistant",
				content: msg.Result.Response,
				refs:    render.References(msg.Result.References),
				time:    time.Now(),
			})
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case errorMsg:
		m.isLoading = false
		// A turn cancelled by Ctrl+N is an abandoned turn, not an error.
		if !errors.Is(msg, flow.ErrStale) {
			m.err = msg
		}
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m chatModel) pendingQuestion() *api.Question {
	if m.pendingTurn != nil {
		return m.pendingTurn.Question
	}
	return nil
}

func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}

	m.history = append(m.history, chatMessage{role: "user", content: input, time: time.Now()})
	m.textinput.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	m.isLoading = true
	m.err = nil

	return m, tea.Batch(
		m.spinner.Tick,
		m.sendMessage(input),
	)
}

// handleAnswer resolves the current clarification. skip forces the default
// (or an outright skip when there is none).
func (m chatModel) handleAnswer(skip bool) (tea.Model, tea.Cmd) {
	turn := m.pendingTurn
	if turn == nil || turn.Question == nil {
		return m, nil
	}

	answer := ""
	if !skip {
		answer = strings.TrimSpace(m.textinput.Value())
		if answer == "" && len(turn.Question.Options) > 0 {
			answer = turn.Question.Options[m.selectedOption]
		}
	}

	display := answer
	if display == "" {
		display = "건너뛰기"
	}
	m.history = append(m.history, chatMessage{role: "user", content: display, time: time.Now()})

	m.pendingTurn = nil
	m.selectedOption = 0
	m.textinput.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	m.isLoading = true
	m.err = nil

	return m, tea.Batch(
		m.spinner.Tick,
		m.sendAnswer(answer),
	)
}

func (m chatModel) handleFeedback(positive bool) (tea.Model, tea.Cmd) {
	if m.feedbackSent || m.isLoading || len(m.history) == 0 {
		return m, nil
	}
	last := m.history[len(m.history)-1]
	if last.role != "assistant" {
		return m, nil
	}
	m.feedbackSent = true

	sentiment := "negative"
	note := "👎 피드백 전송됨"
	if positive {
		sentiment = "positive"
		note = "👍 피드백 전송됨"
	}
	m.history = append(m.history, chatMessage{role: "system", content: note, time: time.Now()})
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()

	controller := m.sess.controller
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		if err := controller.Feedback(ctx, "", sentiment); err != nil {
			return errorMsg(err)
		}
		return nil
	}
}

func (m chatModel) sendMessage(input string) tea.Cmd {
	controller := m.sess.controller
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		turn, err := controller.Send(ctx, input)
		if err != nil {
			return errorMsg(err)
		}
		return turnMsg(turn)
	}
}

func (m chatModel) sendAnswer(answer string) tea.Cmd {
	controller := m.sess.controller
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		turn, err := controller.Answer(ctx, answer)
		if err != nil {
			return errorMsg(err)
		}
		return turnMsg(turn)
	}
}

// formatQuestion renders a clarification turn as markdown for the history.
func (m chatModel) formatQuestion(turn *flow.Turn) string {
	q := turn.Question
	var sb strings.Builder

	fmt.Fprintf(&sb, "🤔 **질문 %d/%d:** %s\n", turn.Index+1, turn.Total, q.Text)
	if q.Rationale != "" {
		fmt.Fprintf(&sb, "\n💡 %s\n", q.Rationale)
	}
	if len(q.Options) > 0 {
		sb.WriteString("\n")
		for i, opt := range q.Options {
			if i == m.selectedOption {
				fmt.Fprintf(&sb, "  → **%d. %s**\n", i+1, opt)
			} else {
				fmt.Fprintf(&sb, "    %d. %s\n", i+1, opt)
			}
		}
	}
	if q.Default != "" {
		fmt.Fprintf(&sb, "\n_(기본값: %s, Esc로 적용)_\n", q.Default)
	} else {
		sb.WriteString("\n_(Esc로 건너뛰기)_\n")
	}
	return sb.String()
}

func (m chatModel) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.history {
		switch msg.role {
		case "user":
			sb.WriteString(chatUserStyle.Render("사용자") + "\n")
			sb.WriteString(msg.content)
			sb.WriteString("\n\n")
		case "system":
			sb.WriteString(chatFooterStyle.Render(msg.content))
			sb.WriteString("\n")
		default:
			sb.WriteString(chatAssistantStyle.Render("Loomon") + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.content))
			if msg.refs != "" {
				sb.WriteString(msg.refs)
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery.
func (m chatModel) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m chatModel) View() string {
	if !m.ready {
		return "초기화 중..."
	}

	header := chatAssistantStyle.Render("Loomon AI")
	if m.sess.user != nil {
		header += chatFooterStyle.Render("  " + m.sess.user.Username)
	}

	chatView := m.viewport.View()

	if m.isLoading {
		chatView += "\n" + chatSpinnerStyle.Render(m.spinner.View()) + " 생각 중..."
	}
	if m.err != nil {
		chatView += "\n" + chatErrorStyle.Render("오류: "+m.err.Error())
	}

	inputArea := chatInputStyle.Render(m.textinput.View())

	footer := chatFooterStyle.Render("Enter 전송 · Ctrl+N 새 대화 · Ctrl+G 👍 · Ctrl+B 👎 · Ctrl+C 종료")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		inputArea,
		footer,
	)
}
