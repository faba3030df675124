// Package main auth commands: login, logout, whoami.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sagehq/sage/internal/auth"
	"github.com/sagehq/sage/internal/config"
	"github.com/sagehq/sage/internal/render"
)

func loginCmd() *cobra.Command {
	var token string
	var browser bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a Google token",
		Long: `Exchange a Google ID token for a Study Helper session.

The token comes from, in order: --token, $SAGE_GOOGLE_TOKEN, the
--browser assisted flow, or an interactive hidden prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			googleToken, err := resolveGoogleToken(ctx, token, browser)
			if err != nil {
				return err
			}
			if googleToken == "" {
				return fmt.Errorf("no token provided")
			}

			if err := client.LoginGoogle(ctx, googleToken); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			render.Stdout().Empty("Signed in")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Google ID token")
	cmd.Flags().BoolVar(&browser, "browser", false, "Capture the token via the hosted login page")
	return cmd
}

func resolveGoogleToken(ctx context.Context, flag string, browser bool) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := config.Env().GoogleToken; env != "" {
		return env, nil
	}
	if browser {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		render.Stderr().Empty("Complete the Google sign-in in the browser window...")
		return auth.BrowserLogin(ctx, config.Env().LoginURL)
	}
	return promptHidden("Google token: ")
}

// promptHidden reads a secret without echo when stdin is a terminal.
func promptHidden(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; pass --token or set SAGE_GOOGLE_TOKEN")
	}

	fmt.Fprint(os.Stderr, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := creds.Clear(context.Background()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			render.Stdout().Empty("Signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show credential state",
		Run: func(cmd *cobra.Command, args []string) {
			clientID, _ := creds.ClientID(context.Background())
			r := render.New(pretty)
			render.Stdout().Print("%s", r.Status(creds.Authenticated(), config.Env().APIURL, clientID))
		},
	}
}
