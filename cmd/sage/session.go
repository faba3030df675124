// Package main session directory commands.
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sagehq/sage/internal/api"
	"github.com/sagehq/sage/internal/render"
	"github.com/sagehq/sage/internal/storage"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Short:   "Manage chat sessions",
		Aliases: []string{"sessions"},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			ctx := context.Background()
			r := render.New(pretty)

			out := render.Stdout()
			sessions, err := client.ListSessions(ctx)
			if err != nil {
				// Fall back to the local cache when offline.
				if api.IsNetwork(err) {
					if cached := cachedSessions(ctx); cached != nil {
						out.Println("(offline, showing cached sessions)")
						out.Print("%s", r.Sessions(cached, ""))
						return nil
					}
				}
				return err
			}

			if len(sessions) == 0 {
				out.Empty("No sessions yet")
				return nil
			}
			out.Print("%s", r.Sessions(sessions, ""))
			return nil
		},
	}

	newCmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			title := "New Chat"
			if len(args) > 0 && args[0] != "" {
				title = args[0]
			}

			sess, err := client.CreateSession(context.Background(), title)
			if err != nil {
				return err
			}
			render.Stdout().Println("Created session %s: %s", sess.ID, sess.Title)
			return nil
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			sess, err := client.RenameSession(context.Background(), api.SessionID(args[0]), args[1])
			if err != nil {
				return err
			}
			render.Stdout().Println("Renamed session %s to %q", sess.ID, sess.Title)
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:     "rm <id>",
		Short:   "Delete a session",
		Aliases: []string{"delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			ctx := context.Background()
			id := api.SessionID(args[0])
			if err := client.DeleteSession(ctx, id); err != nil {
				return err
			}
			store.DeleteSession(ctx, args[0])
			render.Stdout().Println("Deleted session %s", id)
			return nil
		},
	}

	cmd.AddCommand(listCmd, newCmd, renameCmd, rmCmd)
	return cmd
}

// cachedSessions reads the local copy of the directory, if any.
func cachedSessions(ctx context.Context) []api.Session {
	rows, err := store.ListSessions(ctx)
	if err != nil || len(rows) == 0 {
		return nil
	}
	sessions := make([]api.Session, len(rows))
	for i, row := range rows {
		sessions[i] = api.Session{ID: api.SessionID(row.ID), Title: row.Title}
	}
	return sessions
}

// cachedHistory reads the local copy of a session thread, if any.
func cachedHistory(ctx context.Context, id string) []api.Message {
	rows, err := store.GetHistory(ctx, id)
	if err != nil || len(rows) == 0 {
		return nil
	}
	return messagesFromCache(rows)
}

func messagesFromCache(rows []storage.Message) []api.Message {
	msgs := make([]api.Message, len(rows))
	for i, row := range rows {
		msgs[i] = api.Message{Sender: row.Sender, Text: row.Text, Type: row.Type}
	}
	return msgs
}
