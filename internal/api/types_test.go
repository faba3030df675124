package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIDDecodesNumberAndString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want SessionID
	}{
		{"number", `{"id":42,"title":"t"}`, "42"},
		{"string", `{"id":"abc","title":"t"}`, "abc"},
		{"large number", `{"id":9007199254740993,"title":"t"}`, "9007199254740993"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Session
			require.NoError(t, json.Unmarshal([]byte(tt.in), &s))
			assert.Equal(t, tt.want, s.ID)
		})
	}
}

func TestSessionIDMarshalsAsString(t *testing.T) {
	data, err := json.Marshal(Session{ID: "42", Title: "Calculus"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","title":"Calculus"}`, string(data))
}

func TestSessionIDRejectsEmpty(t *testing.T) {
	var id SessionID
	assert.Error(t, id.UnmarshalJSON([]byte("")))
}
