package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagehq/sage/internal/credential"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *credential.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	creds := credential.NewMemoryStore("tok")
	return NewClient(srv.URL, srv.Client(), creds, nil), creds
}

func TestLoginGoogle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/google", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "google-id-token", body["token"])
		fmt.Fprint(w, `{"access_token":"issued","token_type":"bearer"}`)
	})

	c, creds := newTestClient(t, mux)
	require.NoError(t, creds.Set(context.Background(), ""))

	err := c.LoginGoogle(context.Background(), "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, "issued", creds.Token())
}

func TestLoginGoogleRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/google", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"Invalid Google token"}`)
	})

	c, creds := newTestClient(t, mux)
	require.NoError(t, creds.Set(context.Background(), ""))

	err := c.LoginGoogle(context.Background(), "bad")

	// Login failure is a RequestError, never SessionExpired
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Invalid Google token", re.Message)
	assert.False(t, IsSessionExpired(err))
	assert.Empty(t, creds.Token())
}

func TestListSessionsNumericIDs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"id":7,"title":"Calculus","created_at":"2026-01-02T00:00:00"},{"id":3,"title":"Physics"}]`)
	})

	c, _ := newTestClient(t, mux)

	sessions, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, SessionID("7"), sessions[0].ID)
	assert.Equal(t, "Calculus", sessions[0].Title)
	assert.Equal(t, SessionID("3"), sessions[1].ID)
}

func TestCreateRenameDeleteSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		title := body["title"]
		if title == "" {
			title = "New Chat"
		}
		fmt.Fprintf(w, `{"id":12,"title":%q}`, title)
	})
	mux.HandleFunc("/chat/sessions/12", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			fmt.Fprintf(w, `{"id":12,"title":%q}`, body["title"])
		case http.MethodDelete:
			fmt.Fprint(w, `{"success":true}`)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	created, err := c.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, SessionID("12"), created.ID)
	assert.Equal(t, "New Chat", created.Title)

	renamed, err := c.RenameSession(ctx, created.ID, "Limits")
	require.NoError(t, err)
	assert.Equal(t, "Limits", renamed.Title)

	require.NoError(t, c.DeleteSession(ctx, created.ID))
}

func TestHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("session_id"))
		fmt.Fprint(w, `[{"sender":"user","text":"2+2?"},{"sender":"ai","text":"$2+2=4$"}]`)
	})

	c, _ := newTestClient(t, mux)

	msgs, err := c.History(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, SenderUser, msgs[0].Sender)
	assert.Equal(t, "$2+2=4$", msgs[1].Text)
}

func TestAskMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/ask", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "what is a derivative?", r.FormValue("message"))
		assert.Equal(t, "9", r.FormValue("session_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "graph.png", header.Filename)
		// The backend reads the vision MIME type off the part header.
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		fmt.Fprint(w, `{"response":"A derivative measures rate of change."}`)
	})

	c, _ := newTestClient(t, mux)

	result, err := c.Ask(context.Background(), AskRequest{
		SessionID: "9",
		Message:   "what is a derivative?",
		File:      &Attachment{Filename: "graph.png", MIME: "image/png", Data: []byte{0x89, 0x50}},
	})
	require.NoError(t, err)
	assert.Equal(t, "A derivative measures rate of change.", result.Response)
	assert.Empty(t, result.Error)
}

func TestAskWithoutSession(t *testing.T) {
	c, _ := newTestClient(t, http.NewServeMux())

	_, err := c.Ask(context.Background(), AskRequest{Message: "hello"})
	require.ErrorIs(t, err, ErrNoSession)
}

func TestAskWithoutContent(t *testing.T) {
	c, _ := newTestClient(t, http.NewServeMux())

	_, err := c.Ask(context.Background(), AskRequest{SessionID: "1"})
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAskRetriesMultipartAfterRefresh(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"fresh"}`)
	})
	mux.HandleFunc("/chat/ask", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		// The replayed body must still parse as full multipart
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "hello", r.FormValue("message"))
		fmt.Fprint(w, `{"response":"hi"}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	creds := credential.NewMemoryStore("stale")
	c := NewClient(srv.URL, srv.Client(), creds, nil)

	result, err := c.Ask(context.Background(), AskRequest{SessionID: "1", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Response)
	assert.Equal(t, 2, calls)
}

func TestAskQuizLock(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/ask", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message_type":"quiz_lock","response":"Finish the quiz first."}`)
	})

	c, _ := newTestClient(t, mux)

	result, err := c.Ask(context.Background(), AskRequest{SessionID: "1", Message: "hint?"})
	require.NoError(t, err)
	assert.Equal(t, "quiz_lock", result.MessageType)
	assert.Equal(t, "Finish the quiz first.", result.Response)
}

func TestProgressAndReflection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/progress", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"subjects":[{"subject":"math","learning_skill":0.7,"concepts":[{"name":"limits","confidence":"medium","confidence_score":0.55}]}]}`)
	})
	mux.HandleFunc("/progress/reflection", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "14", r.URL.Query().Get("days"))
		fmt.Fprint(w, `{"signals":[{"subject":"math","concept":"limits","kind":"improved"}]}`)
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	p, err := c.Progress(ctx)
	require.NoError(t, err)
	require.Len(t, p.Subjects, 1)
	assert.Equal(t, "math", p.Subjects[0].Subject)
	require.Len(t, p.Subjects[0].Concepts, 1)
	assert.Equal(t, "limits", p.Subjects[0].Concepts[0].Name)

	r, err := c.Reflection(ctx, 14)
	require.NoError(t, err)
	require.Len(t, r.Signals, 1)
	assert.Equal(t, "improved", r.Signals[0].Kind)
}
