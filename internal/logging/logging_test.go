package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(true)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetEnabled(false)
	})
	return &buf
}

func TestInfoEvent(t *testing.T) {
	buf := capture(t)

	log := New("gateway")
	log.Info("request", map[string]interface{}{"method": "GET", "path": "/chat/sessions"})

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, LevelInfo, e.Level)
	assert.Equal(t, "gateway", e.Component)
	assert.Equal(t, "request", e.Event)
	assert.Equal(t, "GET", e.Extra["method"])
}

func TestErrorEvent(t *testing.T) {
	buf := capture(t)

	log := New("client")
	log.Error("send_failed", nil, errors.New("boom"))

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, LevelError, e.Level)
	assert.Equal(t, "boom", e.Error)
}

func TestTimedEvent(t *testing.T) {
	buf := capture(t)

	log := New("client")
	log.TimedEvent("history_load", time.Now().Add(-10*time.Millisecond), nil)

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.GreaterOrEqual(t, e.Duration, int64(10))
}

func TestDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)
	defer SetOutput(os.Stderr)

	New("gateway").Info("request", nil)

	assert.Empty(t, strings.TrimSpace(buf.String()))
}
