// Package tui provides the Bubble Tea interactive chat interface.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sagehq/sage/internal/api"
	"github.com/sagehq/sage/internal/chat"
	"github.com/sagehq/sage/internal/credential"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	tutorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	inputBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	focusedInputStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205")).
				Padding(0, 1)
)

const sidebarWidth = 28

// focus identifies which pane receives keys.
type focus int

const (
	focusComposer focus = iota
	focusSidebar
	focusPrompt
	focusLogin
)

// promptKind distinguishes the one-line prompt overlays.
type promptKind int

const (
	promptNone promptKind = iota
	promptNewSession
	promptRename
	promptDelete
)

// Model is the main TUI model for the chat screen.
type Model struct {
	svc    *chat.Service
	client *api.Client
	creds  *credential.Store

	ready    bool
	quitting bool
	err      error
	status   string

	focus    focus
	prompt   promptKind
	cursor   int
	sending  bool
	loading  bool
	loggedIn bool

	viewport viewport.Model
	input    textarea.Model
	line     textinput.Model
	spinner  spinner.Model
	width    int
	height   int
}

// Messages.
type (
	sessionsLoadedMsg struct {
		next api.SessionID
		err  error
	}
	historyLoadedMsg struct {
		id  api.SessionID
		err error
	}
	sendDoneMsg struct{ err error }
	sessionMadeMsg struct {
		sess *api.Session
		err  error
	}
	sessionGoneMsg struct {
		next api.SessionID
		err  error
	}
	renamedMsg   struct{ err error }
	loginDoneMsg struct{ err error }
)

// New creates the chat TUI model.
func New(svc *chat.Service, client *api.Client, creds *credential.Store) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textarea.New()
	ti.Placeholder = "Ask the tutor... (Enter to send)"
	ti.CharLimit = 4000
	ti.SetWidth(80)
	ti.SetHeight(3)
	ti.Focus()

	li := textinput.New()
	li.CharLimit = 512

	m := Model{
		svc:      svc,
		client:   client,
		creds:    creds,
		spinner:  s,
		input:    ti,
		line:     li,
		loggedIn: creds.Authenticated(),
	}
	if !m.loggedIn {
		m.focus = focusLogin
		m.line.Placeholder = "Paste your Google token"
		m.line.EchoMode = textinput.EchoPassword
		m.line.Focus()
		m.input.Blur()
	}
	return m
}

// Init starts the spinner and the initial session fetch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.loggedIn {
		cmds = append(cmds, loadSessions(m.svc))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.clampCursor()
		m.refreshViewport()
		if msg.next != "" {
			m.loading = true
			return m, loadHistory(m.svc, msg.next)
		}
		return m, nil

	case historyLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case sendDoneMsg:
		m.sending = false
		if msg.err != nil && api.IsSessionExpired(msg.err) {
			return m.expire()
		}
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case sessionMadeMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.cursor = 0
		m.refreshViewport()
		m.focus = focusComposer
		m.input.Focus()
		return m, nil

	case sessionGoneMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.clampCursor()
		m.refreshViewport()
		if msg.next != "" {
			m.loading = true
			return m, loadHistory(m.svc, msg.next)
		}
		return m, nil

	case renamedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		return m, nil

	case loginDoneMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("Login failed: " + msg.err.Error())
			m.line.SetValue("")
			return m, nil
		}
		m.loggedIn = true
		m.status = ""
		m.line.SetValue("")
		m.line.Blur()
		m.focus = focusComposer
		m.input.Focus()
		m.loading = true
		return m, loadSessions(m.svc)
	}

	return m.updateFocused(msg, cmds)
}

func (m Model) updateFocused(msg tea.Msg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusComposer:
		if !m.sending {
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	case focusPrompt, focusLogin:
		m.line, cmd = m.line.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	switch m.focus {
	case focusLogin:
		return m.handleLoginKey(msg)
	case focusPrompt:
		return m.handlePromptKey(msg)
	case focusSidebar:
		return m.handleSidebarKey(msg)
	default:
		return m.handleComposerKey(msg)
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		token := strings.TrimSpace(m.line.Value())
		if token == "" {
			return m, nil
		}
		m.status = dimStyle.Render("Signing in...")
		return m, doLogin(m.client, token)
	}
	return m.updateFocused(msg, nil)
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closePrompt(), nil
	case "enter":
		return m.submitPrompt()
	}
	return m.updateFocused(msg, nil)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab":
		m.focus = focusComposer
		m.input.Focus()
		return m, nil
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "j", "down":
		if m.cursor < m.svc.SessionCount()-1 {
			m.cursor++
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "enter":
		sessions := m.svc.Sessions()
		if m.cursor < len(sessions) {
			id := sessions[m.cursor].ID
			if m.svc.SwitchTo(id) {
				m.loading = true
				m.refreshViewport()
				return m, loadHistory(m.svc, id)
			}
		}
		return m, nil
	case "n":
		return m.openPrompt(promptNewSession, "Session title (empty for New Chat)"), nil
	case "r":
		if _, ok := m.cursorSession(); ok {
			model := m.openPrompt(promptRename, "New title")
			return model, nil
		}
		return m, nil
	case "d":
		if _, ok := m.cursorSession(); ok {
			return m.openPrompt(promptDelete, "Type y to delete"), nil
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusSidebar
		m.input.Blur()
		return m, nil
	case "enter":
		if m.sending {
			return m, nil
		}
		m.svc.SetDraft(m.input.Value())
		if m.svc.DraftEmpty() {
			return m, nil
		}
		m.input.SetValue("")
		m.sending = true
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, doSend(m.svc), refreshAfterAppend())
	case "alt+enter", "ctrl+j":
		m.input.SetValue(m.input.Value() + "\n")
		return m, nil
	}
	return m.updateFocused(msg, nil)
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	statusHeight := 1
	inputHeight := 5
	vpWidth := msg.Width - sidebarWidth - 3
	vpHeight := msg.Height - headerHeight - statusHeight - inputHeight

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}
	m.refreshViewport()

	m.input.SetWidth(msg.Width - sidebarWidth - 8)
	m.line.Width = msg.Width - 8
	return m, nil
}

func (m *Model) openPrompt(kind promptKind, placeholder string) Model {
	m.prompt = kind
	m.focus = focusPrompt
	m.line.Placeholder = placeholder
	m.line.EchoMode = textinput.EchoNormal
	m.line.SetValue("")
	m.line.Focus()
	m.input.Blur()
	return *m
}

func (m Model) closePrompt() Model {
	m.prompt = promptNone
	m.focus = focusSidebar
	m.line.Blur()
	m.line.SetValue("")
	return m
}

func (m Model) submitPrompt() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.line.Value())
	kind := m.prompt
	model := m.closePrompt()

	switch kind {
	case promptNewSession:
		if value == "" {
			value = "New Chat"
		}
		return model, createSession(model.svc, value)
	case promptRename:
		sess, ok := model.cursorSession()
		if !ok || value == "" {
			return model, nil
		}
		return model, renameSession(model.svc, sess.ID, value)
	case promptDelete:
		sess, ok := model.cursorSession()
		if !ok || value != "y" {
			return model, nil
		}
		return model, deleteSession(model.svc, sess.ID)
	}
	return model, nil
}

func (m Model) cursorSession() (api.Session, bool) {
	sessions := m.svc.Sessions()
	if m.cursor < 0 || m.cursor >= len(sessions) {
		return api.Session{}, false
	}
	return sessions[m.cursor], true
}

func (m *Model) clampCursor() {
	if n := m.svc.SessionCount(); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	if api.IsSessionExpired(err) {
		return m.expire()
	}
	m.err = err
	m.status = errorStyle.Render(err.Error())
	return m, nil
}

// expire drops back to the login view after the credential dies.
func (m Model) expire() (tea.Model, tea.Cmd) {
	m.loggedIn = false
	m.sending = false
	m.loading = false
	m.focus = focusLogin
	m.status = errorStyle.Render("Session expired, sign in again")
	m.line.Placeholder = "Paste your Google token"
	m.line.EchoMode = textinput.EchoPassword
	m.line.SetValue("")
	m.line.Focus()
	m.input.Blur()
	return m, nil
}

// refreshAfterAppend repaints shortly after a send so the optimistic
// user message shows before the reply lands.
func refreshAfterAppend() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return historyLoadedMsg{}
	})
}

// Program wires the model into a running Bubble Tea program.
func Program(svc *chat.Service, client *api.Client, creds *credential.Store) *tea.Program {
	return tea.NewProgram(New(svc, client, creds), tea.WithAltScreen())
}
