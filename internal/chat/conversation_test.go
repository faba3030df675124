package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagehq/sage/internal/api"
)

func TestConversationBindClearsLog(t *testing.T) {
	var c Conversation
	c.BindTo("1")
	c.Append(userMessage("hello"))

	c.BindTo("2")
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Loading())
	assert.Equal(t, api.SessionID("2"), c.Bound())
}

func TestConversationAdoptMatchingSession(t *testing.T) {
	var c Conversation
	c.BindTo("1")

	msgs := []api.Message{
		{Sender: api.SenderUser, Text: "what is entropy?"},
		{Sender: api.SenderAI, Text: "A measure of disorder."},
	}
	assert.True(t, c.Adopt("1", msgs))
	assert.Equal(t, msgs, c.Messages())
	assert.False(t, c.Loading())
}

func TestConversationDropsStaleHistory(t *testing.T) {
	var c Conversation
	c.BindTo("1")
	c.BindTo("2")

	adopted := c.Adopt("1", []api.Message{{Sender: api.SenderAI, Text: "stale"}})
	assert.False(t, adopted)
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Loading(), "fetch for session 2 still outstanding")
}

func TestConversationAdoptEmptyHistory(t *testing.T) {
	var c Conversation
	c.BindTo("1")

	assert.True(t, c.Adopt("1", nil))
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Loading())
}

func TestConversationFail(t *testing.T) {
	var c Conversation
	c.BindTo("1")

	assert.False(t, c.Fail("9"), "stale failure ignored")
	assert.True(t, c.Loading())

	assert.True(t, c.Fail("1"))
	assert.False(t, c.Loading())
}
