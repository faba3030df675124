package chat

import (
	"fmt"
	"strings"

	"github.com/sagehq/sage/internal/api"
)

// Composer holds the pending input for the next send: draft text and
// at most one staged attachment.
type Composer struct {
	text       string
	attachment *api.Attachment
}

// SetText replaces the draft text.
func (c *Composer) SetText(text string) {
	c.text = text
}

// Text returns the raw draft text.
func (c *Composer) Text() string {
	return c.text
}

// Attach stages a file for the next send, replacing any previous one.
func (c *Composer) Attach(a *api.Attachment) {
	c.attachment = a
}

// Attachment returns the staged attachment, or nil.
func (c *Composer) Attachment() *api.Attachment {
	return c.attachment
}

// Empty reports whether there is nothing to send: no attachment and
// text that is blank after trimming.
func (c *Composer) Empty() bool {
	return c.attachment == nil && strings.TrimSpace(c.text) == ""
}

// Clear resets the draft text and staged attachment.
func (c *Composer) Clear() {
	c.text = ""
	c.attachment = nil
}

// displayText is what the user message shows in the log: the trimmed
// text, the upload placeholder, or both joined by a newline.
func (c *Composer) displayText() string {
	text := strings.TrimSpace(c.text)
	if c.attachment == nil {
		return text
	}
	placeholder := fmt.Sprintf("[Image uploaded: %s]", c.attachment.Filename)
	if text == "" {
		return placeholder
	}
	return text + "\n" + placeholder
}
