package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sagehq/sage/internal/api"
	"github.com/sagehq/sage/internal/markup"
	"github.com/sagehq/sage/internal/render"
)

// View renders the whole screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	if m.focus == focusLogin {
		return m.loginView()
	}

	header := titleStyle.Render("sage") + dimStyle.Render("  AI study helper")
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), m.viewport.View())

	return strings.Join([]string{
		header,
		"",
		body,
		m.composerView(),
		m.statusView(),
	}, "\n")
}

func (m Model) loginView() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("sage") + "\n\n")
	sb.WriteString("  Sign in with your Google token.\n")
	sb.WriteString("  Run `sage login --browser` for the assisted flow.\n\n")
	sb.WriteString("  " + inputBorderStyle.Render(m.line.View()) + "\n")
	if m.status != "" {
		sb.WriteString("\n  " + m.status + "\n")
	}
	sb.WriteString("\n" + dimStyle.Render("  enter: sign in • esc: quit"))
	return sb.String()
}

func (m Model) sidebarView() string {
	sessions := m.svc.Sessions()
	selected := m.svc.SelectedID()

	var sb strings.Builder
	sb.WriteString(dimStyle.Render("sessions") + "\n")

	if len(sessions) == 0 {
		sb.WriteString(dimStyle.Render("(none)") + "\n")
	}
	for i, s := range sessions {
		title := render.Truncate(s.Title, sidebarWidth-4)
		line := "  " + title
		if s.ID == selected {
			line = "• " + title
		}
		if m.focus == focusSidebar && i == m.cursor {
			line = selectedStyle.Render("> " + title)
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n" + dimStyle.Render("n new  r rename\nd delete  tab chat"))

	return sidebarStyle.
		Width(sidebarWidth).
		Height(m.viewport.Height).
		Render(sb.String())
}

// threadView renders the bound conversation for the viewport.
func (m Model) threadView() string {
	if m.svc.HistoryLoading() || m.loading {
		return dimStyle.Render("loading history...")
	}

	msgs := m.svc.Messages()
	if len(msgs) == 0 {
		return dimStyle.Render("No messages yet. Say hello.")
	}

	var sb strings.Builder
	for _, msg := range msgs {
		sb.WriteString(m.renderMessage(msg))
	}
	if m.sending {
		sb.WriteString(m.spinner.View() + dimStyle.Render(" thinking...") + "\n")
	}
	return sb.String()
}

func (m Model) renderMessage(msg api.Message) string {
	label := userStyle.Render("you")
	text := msg.Text
	if msg.Sender == api.SenderAI {
		label = tutorStyle.Render("tutor")
		text = markup.Render(text)
	}
	if msg.Type == "quiz_lock" {
		label += errorStyle.Render(" [quiz]")
	}

	var sb strings.Builder
	sb.WriteString(label + "\n")
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString("  " + line + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.threadView())
}

func (m Model) composerView() string {
	if m.focus == focusPrompt {
		return inputBorderStyle.Render(m.line.View())
	}
	style := inputBorderStyle
	if m.focus == focusComposer {
		style = focusedInputStyle
	}
	return style.Render(m.input.View())
}

func (m Model) statusView() string {
	if m.status != "" {
		return statusStyle.Render(m.status)
	}

	parts := []string{"esc: sessions", "enter: send", "ctrl+c: quit"}
	if m.sending {
		parts = append([]string{m.spinner.View() + " sending"}, parts...)
	}
	if sess, ok := m.svc.Selected(); ok {
		parts = append(parts, fmt.Sprintf("session: %s", render.Truncate(sess.Title, 24)))
	}
	return statusStyle.Render(strings.Join(parts, " • "))
}
