package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/sagehq/sage/internal/credential"
	"github.com/sagehq/sage/internal/logging"
)

const refreshPath = "/auth/refresh"

// Request describes one outbound call. Body is a constructor rather
// than a reader so the gateway can reissue the request after a token
// refresh without consuming state.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	ContentType string
	Body        func() (io.Reader, error)
}

// Gateway wraps outbound calls to the Study Helper API. It attaches
// the bearer token, performs at most one silent refresh-and-retry when
// a call comes back unauthorized, and classifies terminal failures.
type Gateway struct {
	base   string
	http   *http.Client
	creds  *credential.Store
	log    *logging.Logger
	logout func()

	// Concurrent 401s share one in-flight refresh.
	refreshMu sync.Mutex
	refresh   *refreshCall
}

type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// NewGateway creates a gateway for the given base URL. A terminal auth
// failure clears the stored credential and then invokes onLogout; the
// gateway never decides navigation itself, only reports failure kind.
func NewGateway(base string, client *http.Client, creds *credential.Store, onLogout func()) *Gateway {
	return &Gateway{
		base:   strings.TrimRight(base, "/"),
		http:   client,
		creds:  creds,
		log:    logging.New("gateway"),
		logout: onLogout,
	}
}

// Do issues the request with the current credential attached. On a 401
// it refreshes once and reissues once; a second 401, or a failed
// refresh, triggers the logout side effect and fails with
// ErrSessionExpired. Any other non-2xx response fails with a
// RequestError carrying a best-effort message from the body.
//
// On success the response is returned unread for the caller to
// interpret; the caller owns closing the body.
func (g *Gateway) Do(ctx context.Context, r *Request) (*http.Response, error) {
	resp, err := g.issue(ctx, r, g.creds.Token())
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		token, err := g.refreshToken(ctx)
		if err != nil {
			g.log.Warn("refresh_failed", map[string]interface{}{"path": r.Path}, err)
			g.fireLogout(ctx)
			return nil, ErrSessionExpired
		}

		resp, err = g.issue(ctx, r, token)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			g.fireLogout(ctx)
			return nil, ErrSessionExpired
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp)
		status := resp.StatusCode
		drain(resp)
		return nil, &RequestError{Status: status, Message: msg}
	}

	return resp, nil
}

// issue builds and sends the request once with the given token.
func (g *Gateway) issue(ctx context.Context, r *Request, token string) (*http.Response, error) {
	u := g.base + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		b, err := r.Body()
		if err != nil {
			return nil, fmt.Errorf("build body: %w", err)
		}
		body = b
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Caller headers are preserved; only Authorization is owned here.
	for k, vs := range r.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return g.http.Do(req)
}

// refreshToken performs the single-flight refresh. The first caller
// hits the refresh endpoint; concurrent callers wait for its result.
// The new token is persisted before anyone retries with it.
func (g *Gateway) refreshToken(ctx context.Context) (string, error) {
	g.refreshMu.Lock()
	if call := g.refresh; call != nil {
		g.refreshMu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	g.refresh = call
	g.refreshMu.Unlock()

	call.token, call.err = g.doRefresh(ctx)
	close(call.done)

	g.refreshMu.Lock()
	g.refresh = nil
	g.refreshMu.Unlock()

	return call.token, call.err
}

// doRefresh calls the refresh endpoint. Credentials here are the
// httponly cookie on the client's jar, never the bearer token.
func (g *Gateway) doRefresh(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+refreshPath, nil)
	if err != nil {
		return "", fmt.Errorf("create refresh request: %w", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("refresh rejected (%d)", resp.StatusCode)
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("refresh response missing access_token")
	}

	if err := g.creds.Set(ctx, tok.AccessToken); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}

	g.log.Info("token_refreshed", nil)
	return tok.AccessToken, nil
}

// fireLogout clears the dead credential so later calls prompt for a
// fresh sign-in instead of re-running the doomed refresh, then runs the
// caller's side effect.
func (g *Gateway) fireLogout(ctx context.Context) {
	if err := g.creds.Clear(ctx); err != nil {
		g.log.Warn("clear_credential", nil, err)
	}
	if g.logout != nil {
		g.logout()
	}
}

// errorMessage extracts a human-readable message from an error body.
// The backend uses {"detail": ...}; older handlers used "error" or
// "message".
func errorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return ""
	}

	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	if len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		return string(body.Detail)
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

// drain discards and closes a response body so the connection can be
// reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
