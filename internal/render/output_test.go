package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagehq/sage/internal/api"
)

func TestSessionsEmpty(t *testing.T) {
	r := New(false)
	assert.Contains(t, r.Sessions(nil, ""), "No sessions")
}

func TestSessionsMarksSelected(t *testing.T) {
	r := New(false)
	out := r.Sessions([]api.Session{
		{ID: "2", Title: "Thermo"},
		{ID: "1", Title: "Algebra"},
	}, "1")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], " "))
	assert.True(t, strings.HasPrefix(lines[1], "*"))
	assert.Contains(t, lines[1], "Algebra")
}

func TestThreadRendersMathInReplies(t *testing.T) {
	r := New(false)
	out := r.Thread([]api.Message{
		{Sender: api.SenderUser, Text: "what is $x^2$?"},
		{Sender: api.SenderAI, Text: "It is $x^2$, x squared."},
	})

	// User text passes through raw, tutor text is converted.
	assert.Contains(t, out, "[you] what is $x^2$?")
	assert.Contains(t, out, "x²")
}

func TestThreadEmpty(t *testing.T) {
	r := New(false)
	assert.Contains(t, r.Thread(nil), "No messages")
}

func TestProgressPlain(t *testing.T) {
	r := New(false)
	out := r.Progress(&api.Progress{Subjects: []api.Subject{
		{
			Subject:       "physics",
			LearningSkill: 0.62,
			LearningDelta: 0.05,
			Concepts: []api.Concept{
				{Name: "entropy", Confidence: "medium", ConfidenceDelta: -0.1},
			},
		},
	}})

	assert.Contains(t, out, "physics\t0.62\t+0.05")
	assert.Contains(t, out, "entropy\tmedium\t-0.10")
}

func TestProgressEmpty(t *testing.T) {
	r := New(false)
	assert.Contains(t, r.Progress(&api.Progress{}), "No progress")
}

func TestReflectionPlain(t *testing.T) {
	r := New(false)
	out := r.Reflection(&api.Reflection{Signals: []api.Signal{
		{Subject: "physics", Concept: "entropy", Kind: "slipped", Note: "revisit", Date: "2026-08-30"},
	}})

	assert.Contains(t, out, "[2026-08-30] slipped physics/entropy revisit")
}

func TestStatusPlain(t *testing.T) {
	r := New(false)
	assert.Equal(t, "authenticated=true api=https://api.example install=abc\n", r.Status(true, "https://api.example", "abc"))
}

func TestBarBounds(t *testing.T) {
	assert.Equal(t, "[░░░░]", bar(-1, 4))
	assert.Equal(t, "[████]", bar(2, 4))
	assert.Equal(t, "[██░░]", bar(0.5, 4))
}
