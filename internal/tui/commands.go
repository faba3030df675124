package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sagehq/sage/internal/api"
	"github.com/sagehq/sage/internal/chat"
)

const requestTimeout = 60 * time.Second

func loadSessions(svc *chat.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		next, err := svc.RefreshSessions(ctx)
		return sessionsLoadedMsg{next: next, err: err}
	}
}

func loadHistory(svc *chat.Service, id api.SessionID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := svc.LoadHistory(ctx, id)
		return historyLoadedMsg{id: id, err: err}
	}
}

func doSend(svc *chat.Service) tea.Cmd {
	return func() tea.Msg {
		// Tutor replies can take a while.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		return sendDoneMsg{err: svc.Send(ctx)}
	}
}

func createSession(svc *chat.Service, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sess, err := svc.Create(ctx, title)
		return sessionMadeMsg{sess: sess, err: err}
	}
}

func renameSession(svc *chat.Service, id api.SessionID, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return renamedMsg{err: svc.Rename(ctx, id, title)}
	}
}

func deleteSession(svc *chat.Service, id api.SessionID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		next, err := svc.Delete(ctx, id)
		return sessionGoneMsg{next: next, err: err}
	}
}

func doLogin(client *api.Client, token string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return loginDoneMsg{err: client.LoginGoogle(ctx, token)}
	}
}
