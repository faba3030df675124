// Package auth implements the browser-assisted login flow. A visible
// browser drives the hosted login page; once Google hands the page its
// credential the token is lifted out and the browser goes away.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/sagehq/sage/internal/logging"
)

// tokenKeys are the web storage keys the hosted page is known to use
// for the Google credential, checked in order.
var tokenKeys = []string{"google_credential", "credential", "id_token"}

// pollInterval is how often the page is checked for a captured token.
const pollInterval = 500 * time.Millisecond

// BrowserLogin opens the hosted login page in a visible browser and
// waits for the user to complete the Google flow. Returns the captured
// Google token. The context bounds the whole interaction.
func BrowserLogin(ctx context.Context, loginURL string) (string, error) {
	log := logging.New("auth")

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(false)
	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: loginURL})
	if err != nil {
		return "", fmt.Errorf("open login page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("load login page: %w", err)
	}
	log.Info("login page open", map[string]interface{}{"url": loginURL})

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("login not completed: %w", ctx.Err())
		case <-ticker.C:
		}

		token, err := readToken(page)
		if err != nil {
			// The page navigates during the Google flow; eval errors
			// between documents are expected.
			log.Debug("token poll", map[string]interface{}{"error": err.Error()})
			continue
		}
		if token != "" {
			log.Info("credential captured", nil)
			return token, nil
		}
	}
}

// readToken checks the page's web storage for a captured credential.
func readToken(page *rod.Page) (string, error) {
	for _, key := range tokenKeys {
		res, err := page.Eval(fmt.Sprintf(
			`() => localStorage.getItem(%q) || sessionStorage.getItem(%q) || ""`, key, key))
		if err != nil {
			return "", err
		}
		if token := res.Value.Str(); token != "" {
			return token, nil
		}
	}
	return "", nil
}
