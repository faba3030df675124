package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/sagehq/sage/internal/api"
	"github.com/sagehq/sage/internal/logging"
	"github.com/sagehq/sage/internal/storage"
)

// fallbackReply is shown when the assistant answers without a usable
// response body, or when the request fails for a reason other than an
// expired session.
const fallbackReply = "Something went wrong. Please try again."

// API is the slice of the HTTP client the chat service needs.
type API interface {
	ListSessions(ctx context.Context) ([]api.Session, error)
	CreateSession(ctx context.Context, title string) (*api.Session, error)
	RenameSession(ctx context.Context, id api.SessionID, title string) (*api.Session, error)
	DeleteSession(ctx context.Context, id api.SessionID) error
	History(ctx context.Context, id api.SessionID) ([]api.Message, error)
	Ask(ctx context.Context, req api.AskRequest) (*api.AskResult, error)
}

// Service coordinates the directory, the conversation log, and the
// composer against the API, and mirrors server state into the local
// cache when one is attached. Safe for use from concurrent UI commands.
type Service struct {
	mu       sync.Mutex
	api      API
	cache    *storage.Storage
	log      *logging.Logger
	dir      Directory
	conv     Conversation
	composer Composer
	sending  bool
}

// NewService builds a chat service. cache may be nil.
func NewService(client API, cache *storage.Storage) *Service {
	return &Service{
		api:   client,
		cache: cache,
		log:   logging.New("chat"),
	}
}

// Sessions returns a copy of the directory in server order. UI code
// reads state through these snapshot methods while commands mutate it
// on their own goroutines.
func (s *Service) Sessions() []api.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Session(nil), s.dir.Sessions()...)
}

// SessionCount returns the number of sessions.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Len()
}

// SelectedID returns the selected session id, or "" if none.
func (s *Service) SelectedID() api.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.SelectedID()
}

// Selected returns the selected session, if any.
func (s *Service) Selected() (api.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Selected()
}

// Bound returns the session the conversation currently belongs to.
func (s *Service) Bound() api.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Bound()
}

// HistoryLoading reports whether a history fetch is outstanding.
func (s *Service) HistoryLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Loading()
}

// Messages returns a copy of the bound conversation log.
func (s *Service) Messages() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Message(nil), s.conv.Messages()...)
}

// MessageCount returns the number of messages in the log.
func (s *Service) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Len()
}

// SetDraft replaces the composer text.
func (s *Service) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.composer.SetText(text)
}

// Draft returns the composer text.
func (s *Service) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composer.Text()
}

// AttachDraft stages a file for the next send.
func (s *Service) AttachDraft(a *api.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.composer.Attach(a)
}

// DraftAttachment returns the staged attachment, or nil.
func (s *Service) DraftAttachment() *api.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composer.Attachment()
}

// DraftEmpty reports whether there is nothing to send.
func (s *Service) DraftEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composer.Empty()
}

// Sending reports whether a send is in flight.
func (s *Service) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// SeedFromCache fills the directory and conversation from the local
// cache so the UI has content before the first network round trip. The
// seeded conversation stays authoritative only until RefreshSessions
// and LoadHistory replace it with server state.
func (s *Service) SeedFromCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	rows, err := s.cache.ListSessions(ctx)
	if err != nil || len(rows) == 0 {
		return err
	}

	sessions := make([]api.Session, len(rows))
	for i, row := range rows {
		sessions[i] = api.Session{ID: api.SessionID(row.ID), Title: row.Title}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dir.Replace(sessions)
	selected := s.dir.SelectedID()
	if selected == "" {
		return nil
	}

	msgs, err := s.cache.GetHistory(ctx, string(selected))
	if err != nil {
		return err
	}
	history := make([]api.Message, len(msgs))
	for i, row := range msgs {
		history[i] = api.Message{Sender: row.Sender, Text: row.Text, Type: row.Type}
	}
	s.conv.BindTo(selected)
	s.conv.Adopt(selected, history)
	return nil
}

// RefreshSessions fetches the session list, replaces the directory
// wholesale, and binds the conversation to the selected session if the
// selection changed. Returns the id whose history should be loaded
// next, or "" if none.
func (s *Service) RefreshSessions(ctx context.Context) (api.SessionID, error) {
	sessions, err := s.api.ListSessions(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dir.Replace(sessions)
	if s.cache != nil {
		if cerr := s.cache.ReplaceSessions(ctx, cacheSessions(sessions)); cerr != nil {
			s.log.Warn("cache sessions", nil, cerr)
		}
	}

	selected := s.dir.SelectedID()
	if selected != s.conv.Bound() {
		s.conv.BindTo(selected)
		return selected, nil
	}
	return "", nil
}

// Create makes a new session, prepends it to the directory, selects
// it, and binds an empty conversation to it. A new session has no
// history, so no fetch follows.
func (s *Service) Create(ctx context.Context, title string) (*api.Session, error) {
	sess, err := s.api.CreateSession(ctx, title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dir.Prepend(*sess)
	s.conv.BindTo(sess.ID)
	s.conv.Adopt(sess.ID, nil)
	return sess, nil
}

// Rename updates a session title on the server and in place locally.
func (s *Service) Rename(ctx context.Context, id api.SessionID, title string) error {
	sess, err := s.api.RenameSession(ctx, id, title)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dir.Rename(id, sess.Title)
	if s.cache != nil {
		if cerr := s.cache.RenameSession(ctx, string(id), sess.Title); cerr != nil {
			s.log.Warn("cache rename", nil, cerr)
		}
	}
	return nil
}

// Delete removes a session on the server and locally. If the deleted
// session was selected, selection falls back to the first remaining
// session and the conversation rebinds; the returned id is the session
// whose history should be loaded next, or "" if none.
func (s *Service) Delete(ctx context.Context, id api.SessionID) (api.SessionID, error) {
	if err := s.api.DeleteSession(ctx, id); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wasSelected := s.dir.SelectedID() == id
	s.dir.Remove(id)
	if s.cache != nil {
		if cerr := s.cache.DeleteSession(ctx, string(id)); cerr != nil {
			s.log.Warn("cache delete", nil, cerr)
		}
	}

	if !wasSelected {
		return "", nil
	}
	next := s.dir.SelectedID()
	s.conv.BindTo(next)
	return next, nil
}

// SwitchTo selects a session and rebinds the conversation to it.
// Returns false if the session is not in the directory.
func (s *Service) SwitchTo(id api.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dir.Select(id) {
		return false
	}
	if s.conv.Bound() != id {
		s.conv.BindTo(id)
	}
	return true
}

// LoadHistory fetches the message log for a session and adopts it if
// that session is still the bound one. A stale result is dropped.
func (s *Service) LoadHistory(ctx context.Context, id api.SessionID) error {
	msgs, err := s.api.History(ctx, id)
	if err != nil {
		s.mu.Lock()
		s.conv.Fail(id)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.conv.Adopt(id, msgs) {
		s.log.Debug("stale history dropped", map[string]interface{}{"session": string(id)})
		return nil
	}
	if s.cache != nil {
		if cerr := s.cache.ReplaceHistory(ctx, string(id), cacheMessages(msgs)); cerr != nil {
			s.log.Warn("cache history", nil, cerr)
		}
	}
	return nil
}

// Send submits the composer content to the bound session. With nothing
// to send it is a no-op. Otherwise the user message is appended
// optimistically, the request goes out, and the assistant reply (or a
// fallback) is appended. On an expired session nothing is appended and
// the error is returned for the caller to surface. The composer is
// cleared and sending reset on every path that issues a request.
func (s *Service) Send(ctx context.Context) error {
	s.mu.Lock()
	if s.sending || s.composer.Empty() {
		s.mu.Unlock()
		return nil
	}
	s.sending = true

	sessionID := s.conv.Bound()
	text := s.composer.displayText()
	req := api.AskRequest{
		SessionID: sessionID,
		Message:   strings.TrimSpace(s.composer.Text()),
		File:      s.composer.Attachment(),
	}
	s.conv.Append(userMessage(text))
	s.mu.Unlock()

	result, err := s.api.Ask(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		s.composer.Clear()
		s.sending = false
	}()

	if err != nil {
		if api.IsSessionExpired(err) {
			return err
		}
		s.log.Warn("ask failed", nil, err)
		s.conv.Append(aiMessage(fallbackReply, ""))
		return err
	}

	reply := result.Response
	if reply == "" {
		reply = result.Error
	}
	if reply == "" {
		reply = fallbackReply
	}
	s.conv.Append(aiMessage(reply, result.MessageType))

	if s.cache != nil && sessionID != "" {
		msgs := s.conv.Messages()
		if n := len(msgs); n >= 2 {
			if cerr := s.cache.AppendMessages(ctx, string(sessionID), cacheMessages(msgs[n-2:])); cerr != nil {
				s.log.Warn("cache append", nil, cerr)
			}
		}
	}
	return nil
}

func cacheSessions(sessions []api.Session) []storage.Session {
	rows := make([]storage.Session, len(sessions))
	for i, sess := range sessions {
		rows[i] = storage.Session{ID: string(sess.ID), Title: sess.Title, Position: i}
	}
	return rows
}

func cacheMessages(msgs []api.Message) []storage.Message {
	rows := make([]storage.Message, len(msgs))
	for i, m := range msgs {
		rows[i] = storage.Message{Sender: m.Sender, Text: m.Text, Type: m.Type, Position: i}
	}
	return rows
}
