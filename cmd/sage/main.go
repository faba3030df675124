// Package main provides the sage CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sagehq/sage/internal/api"
	"github.com/sagehq/sage/internal/chat"
	"github.com/sagehq/sage/internal/config"
	"github.com/sagehq/sage/internal/credential"
	"github.com/sagehq/sage/internal/httpx"
	"github.com/sagehq/sage/internal/logging"
	"github.com/sagehq/sage/internal/render"
	"github.com/sagehq/sage/internal/storage"
	"github.com/sagehq/sage/internal/tui"
)

var (
	version = "0.1.0"
	pretty  = true

	store  *storage.Storage
	creds  *credential.Store
	client *api.Client
	svc    *chat.Service
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sage",
		Short: "AI Study Helper - terminal tutor client",
		Long: `sage: terminal client for the AI Study Helper.

Usage modes:
  sage             Start the interactive chat TUI
  sage <command>   Run a specific command (see below)

Sign in once with 'sage login'; the credential is stored locally
and refreshed automatically until the backend ends the session.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return openApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if store != nil {
				store.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Paint cached sessions before the first network round trip.
			if err := svc.SeedFromCache(cmd.Context()); err != nil {
				logging.New("main").Warn("cache seed", nil, err)
			}
			if _, err := tui.Program(svc, client, creds).Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		sessionCmd(),
		askCmd(),
		historyCmd(),
		progressCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		render.Stderr().Println("Error: %v", err)
		os.Exit(1)
	}
}

// openApp wires storage, credentials, and the API client. Called once
// from the root PersistentPreRun so every command sees the same state.
func openApp() error {
	env := config.Env()
	if env.NoColor {
		color.NoColor = true
		pretty = false
	}
	logging.SetEnabled(env.Debug)

	p := config.GetPaths()
	var err error
	store, err = storage.New(p.Data)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}

	creds, err = credential.NewStore(context.Background(), store)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	log := logging.New("main")
	creds.Subscribe(func(token string) {
		log.Debug("credential changed", map[string]interface{}{"present": token != ""})
	})

	client = api.NewClient(env.APIURL, httpx.New(), creds, func() {
		render.Stderr().Empty("Session expired, run 'sage login' to sign in again")
	})
	svc = chat.NewService(client, store)
	return nil
}

// requireAuth guards commands that need a credential.
func requireAuth() error {
	if !creds.Authenticated() {
		return fmt.Errorf("not signed in (run 'sage login')")
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			render.Stdout().Println("sage %s", version)
		},
	}
}
