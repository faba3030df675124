package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterFormatting(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Header("progress")
	w.Println("sage %s", "0.1.0")
	w.Print("%s", "partial")
	w.Empty("No sessions yet")

	out := buf.String()
	assert.Contains(t, out, "PROGRESS\n\n")
	assert.Contains(t, out, "sage 0.1.0\n")
	assert.Contains(t, out, "partialNo sessions yet\n")
}

func TestWriterHeaderArgs(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Header("reflection (last %d days)", 7)
	assert.Equal(t, "REFLECTION (LAST 7 DAYS)\n\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "long ti...", Truncate("long title here", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
