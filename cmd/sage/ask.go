// Package main one-shot ask and history commands.
package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/sagehq/sage/internal/api"
	"github.com/sagehq/sage/internal/markup"
	"github.com/sagehq/sage/internal/render"
)

func askCmd() *cobra.Command {
	var file string
	var session string
	var action string

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message to the tutor",
		Long: `Send a message (and optionally an image) without entering the TUI.

The --file flag accepts a doublestar glob; it must resolve to exactly
one file. Without --session the message goes to the most recent
session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}

			message := ""
			if len(args) > 0 {
				message = args[0]
			}
			if message == "" && file == "" {
				return fmt.Errorf("nothing to send")
			}

			attachment, err := resolveAttachment(file)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			id := api.SessionID(session)
			if id == "" {
				sessions, err := client.ListSessions(ctx)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					return fmt.Errorf("no sessions yet (run 'sage session new' first)")
				}
				id = sessions[0].ID
			}

			result, err := client.Ask(ctx, api.AskRequest{
				SessionID: id,
				Message:   message,
				Action:    action,
				File:      attachment,
			})
			if err != nil {
				return err
			}

			reply := result.Response
			if reply == "" {
				reply = result.Error
			}
			out := render.Stdout()
			if pretty {
				out.Println("%s", markup.Render(reply))
			} else {
				out.Println("%s", markup.RenderPlain(reply))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Attach an image (doublestar glob, one match)")
	cmd.Flags().StringVarP(&session, "session", "s", "", "Session id (default: most recent)")
	cmd.Flags().StringVarP(&action, "action", "a", "", "Structured action (e.g. quiz answer)")
	return cmd
}

// resolveAttachment expands the glob and loads the single matching
// file. An empty pattern means no attachment.
func resolveAttachment(pattern string) (*api.Attachment, error) {
	if pattern == "" {
		return nil, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no file matches %q", pattern)
	case 1:
	default:
		return nil, fmt.Errorf("%q matches %d files, narrow the pattern", pattern, len(matches))
	}

	path := matches[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return &api.Attachment{
		Filename: filepath.Base(path),
		MIME:     mimeType,
		Data:     data,
	}, nil
}

func historyCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a session's conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			ctx := context.Background()
			r := render.New(pretty)
			out := render.Stdout()

			id := session
			if id == "" {
				sessions, err := client.ListSessions(ctx)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					out.Empty("No sessions yet")
					return nil
				}
				id = string(sessions[0].ID)
			}

			msgs, err := client.History(ctx, api.SessionID(id))
			if err != nil {
				if api.IsNetwork(err) {
					if cached := cachedHistory(ctx, id); cached != nil {
						out.Println("(offline, showing cached history)")
						out.Print("%s", r.Thread(cached))
						return nil
					}
				}
				return err
			}

			out.Print("%s", r.Thread(msgs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Session id (default: most recent)")
	return cmd
}
