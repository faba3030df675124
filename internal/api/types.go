package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SessionID is an opaque server-issued identifier. The backend encodes
// it as a JSON number today; the client never interprets it beyond
// equality, so it is carried as a string either way.
type SessionID string

// UnmarshalJSON accepts both string and numeric encodings.
func (id *SessionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty session id")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = SessionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	*id = SessionID(n.String())
	return nil
}

// MarshalJSON always emits the raw string form.
func (id SessionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Session is a named conversation thread.
type Session struct {
	ID        SessionID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt string    `json:"created_at,omitempty"`
}

// Message senders.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Message is one turn in a conversation. LocalID identifies messages
// synthesized on this client before the server has seen them; it never
// goes over the wire.
type Message struct {
	LocalID   string `json:"-"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Type      string `json:"type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Token is the auth response body.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// Attachment is a staged image upload.
type Attachment struct {
	Filename string
	MIME     string
	Data     []byte
}

// AskRequest is one send to the tutor.
type AskRequest struct {
	SessionID SessionID
	Message   string
	Action    string
	File      *Attachment
}

// AskResult is the tutor's reply. Exactly one of Response or Error is
// normally present; MessageType flags special replies like quiz locks.
type AskResult struct {
	Response    string `json:"response"`
	Error       string `json:"error"`
	MessageType string `json:"message_type"`
}

// Concept is one tracked concept cluster under a subject.
type Concept struct {
	Name            string  `json:"name"`
	Confidence      string  `json:"confidence"`
	ConfidenceScore float64 `json:"confidence_score"`
	ConfidenceDelta float64 `json:"confidence_delta"`
	LastSeen        string  `json:"last_seen"`
	DeltaSince      string  `json:"delta_since"`
}

// Subject is a subject-level progress view with nested concepts.
type Subject struct {
	Subject       string    `json:"subject"`
	LearningSkill float64   `json:"learning_skill"`
	LearningDelta float64   `json:"learning_delta"`
	LastUpdated   string    `json:"last_updated"`
	DeltaSince    string    `json:"delta_since"`
	Concepts      []Concept `json:"concepts"`
}

// Progress is the /progress payload.
type Progress struct {
	Subjects []Subject `json:"subjects"`
	Concepts []Concept `json:"concepts"`
}

// Signal is one reflection entry.
type Signal struct {
	Subject string `json:"subject"`
	Concept string `json:"concept"`
	Kind    string `json:"kind"`
	Note    string `json:"note"`
	Date    string `json:"date"`
}

// Reflection is the /progress/reflection payload.
type Reflection struct {
	Signals []Signal `json:"signals"`
}
