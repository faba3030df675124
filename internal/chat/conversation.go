package chat

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sagehq/sage/internal/api"
)

// Conversation is the message log bound to one session. Switching
// sessions rebinds the log; history fetched for a session that is no
// longer bound is discarded so a slow response cannot overwrite the
// log of the session the user switched to.
type Conversation struct {
	bound    api.SessionID
	messages []api.Message
	loading  bool
}

// BindTo clears the log and marks it as belonging to the given session.
// A history fetch should follow, with Adopt delivering the result.
func (c *Conversation) BindTo(id api.SessionID) {
	c.bound = id
	c.messages = nil
	c.loading = id != ""
}

// Bound returns the session the log currently belongs to.
func (c *Conversation) Bound() api.SessionID {
	return c.bound
}

// Loading reports whether a history fetch is outstanding.
func (c *Conversation) Loading() bool {
	return c.loading
}

// Adopt replaces the log with fetched history, but only if the fetch
// was for the currently bound session. Returns false when the result
// was stale and dropped.
func (c *Conversation) Adopt(id api.SessionID, msgs []api.Message) bool {
	if id != c.bound {
		return false
	}
	c.messages = msgs
	c.loading = false
	return true
}

// Fail marks an outstanding fetch as finished without messages. Stale
// failures are ignored the same way stale results are.
func (c *Conversation) Fail(id api.SessionID) bool {
	if id != c.bound {
		return false
	}
	c.loading = false
	return true
}

// Append adds a message to the log.
func (c *Conversation) Append(msg api.Message) {
	c.messages = append(c.messages, msg)
}

// Messages returns the log in order.
func (c *Conversation) Messages() []api.Message {
	return c.messages
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

func userMessage(text string) api.Message {
	return api.Message{LocalID: ulid.Make().String(), Sender: api.SenderUser, Text: text, Timestamp: now()}
}

func aiMessage(text, msgType string) api.Message {
	return api.Message{LocalID: ulid.Make().String(), Sender: api.SenderAI, Text: text, Type: msgType, Timestamp: now()}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
