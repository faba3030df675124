package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sagehq/sage/internal/credential"
	"github.com/sagehq/sage/internal/logging"
)

// Client is the typed surface over the Study Helper API.
type Client struct {
	gw    *Gateway
	http  *http.Client
	base  string
	creds *credential.Store
	log   *logging.Logger
}

// NewClient creates a client sharing the gateway's HTTP client (and
// therefore its cookie jar, which carries the refresh cookie).
func NewClient(base string, httpClient *http.Client, creds *credential.Store, onLogout func()) *Client {
	base = strings.TrimRight(base, "/")
	return &Client{
		gw:    NewGateway(base, httpClient, creds, onLogout),
		http:  httpClient,
		base:  base,
		creds: creds,
		log:   logging.New("client"),
	}
}

// Gateway exposes the underlying gateway (for raw calls).
func (c *Client) Gateway() *Gateway {
	return c.gw
}

// LoginGoogle exchanges a Google ID token for an access token and
// persists it. This is the one call that bypasses the gateway: a 401
// here means the Google token was bad, not that our session expired.
func (c *Client) LoginGoogle(ctx context.Context, googleToken string) error {
	payload, err := json.Marshal(map[string]string{"token": googleToken})
	if err != nil {
		return fmt.Errorf("marshal login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/auth/google", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("login response missing access_token")
	}

	if err := c.creds.Set(ctx, tok.AccessToken); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	c.log.Info("login", nil)
	return nil
}

// ListSessions returns the user's sessions in server order (newest
// first).
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.getJSON(ctx, "/chat/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a session. An empty title becomes "New Chat"
// server-side.
func (c *Client) CreateSession(ctx context.Context, title string) (*Session, error) {
	var created Session
	if err := c.sendJSON(ctx, http.MethodPost, "/chat/sessions", map[string]string{"title": title}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// RenameSession updates a session title by id.
func (c *Client) RenameSession(ctx context.Context, id SessionID, title string) (*Session, error) {
	var updated Session
	path := "/chat/sessions/" + url.PathEscape(string(id))
	if err := c.sendJSON(ctx, http.MethodPatch, path, map[string]string{"title": title}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSession removes a session and all its messages.
func (c *Client) DeleteSession(ctx context.Context, id SessionID) error {
	path := "/chat/sessions/" + url.PathEscape(string(id))
	resp, err := c.gw.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// History returns a session's ordered message log.
func (c *Client) History(ctx context.Context, id SessionID) ([]Message, error) {
	q := url.Values{"session_id": {string(id)}}
	var msgs []Message
	if err := c.getJSON(ctx, "/chat/history", q, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Ask sends one message (and optional image) to the tutor as a
// multipart request and returns its reply. The backend rejects asks
// without a session, so that is caught before anything goes out.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	if req.SessionID == "" {
		return nil, ErrNoSession
	}
	if req.Message == "" && req.File == nil {
		return nil, ErrEmptyMessage
	}

	body, contentType, err := buildAskBody(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.gw.Do(ctx, &Request{
		Method:      http.MethodPost,
		Path:        "/chat/ask",
		ContentType: contentType,
		Body: func() (io.Reader, error) {
			return bytes.NewReader(body), nil
		},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result AskResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ask response: %w", err)
	}
	c.log.TimedEvent("ask", start, map[string]interface{}{"session": string(req.SessionID)})
	return &result, nil
}

// Progress returns learning progress across subjects and concepts.
func (c *Client) Progress(ctx context.Context) (*Progress, error) {
	var p Progress
	if err := c.getJSON(ctx, "/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Reflection returns recent learning signals over the last days.
func (c *Client) Reflection(ctx context.Context, days int) (*Reflection, error) {
	q := url.Values{"days": {strconv.Itoa(days)}}
	var r Reflection
	if err := c.getJSON(ctx, "/progress/reflection", q, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// getJSON issues a GET through the gateway and decodes the body.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.gw.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// sendJSON issues a JSON-bodied request through the gateway and
// decodes the response into out when non-nil.
func (c *Client) sendJSON(ctx context.Context, method, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := c.gw.Do(ctx, &Request{
		Method:      method,
		Path:        path,
		ContentType: "application/json",
		Body: func() (io.Reader, error) {
			return bytes.NewReader(data), nil
		},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, `\"`)

// buildAskBody encodes the multipart payload once so the gateway can
// replay it on a refresh retry.
func buildAskBody(req AskRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if req.Message != "" {
		if err := w.WriteField("message", req.Message); err != nil {
			return nil, "", fmt.Errorf("write message field: %w", err)
		}
	}
	if req.SessionID != "" {
		if err := w.WriteField("session_id", string(req.SessionID)); err != nil {
			return nil, "", fmt.Errorf("write session_id field: %w", err)
		}
	}
	if req.Action != "" {
		if err := w.WriteField("action", req.Action); err != nil {
			return nil, "", fmt.Errorf("write action field: %w", err)
		}
	}
	if req.File != nil {
		// The backend builds the vision payload from the part's
		// Content-Type, so the detected MIME type must go on the wire.
		ct := req.File.MIME
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(req.File.Filename)))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(req.File.Data); err != nil {
			return nil, "", fmt.Errorf("write file part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
