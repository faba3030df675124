// Package main learning progress commands.
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sagehq/sage/internal/render"
)

func progressCmd() *cobra.Command {
	var reflection bool
	var days int

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show learning progress",
		Long:  "Show tracked subjects and concepts, or recent reflection signals with --reflection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			ctx := context.Background()
			r := render.New(pretty)
			out := render.Stdout()

			if reflection {
				ref, err := client.Reflection(ctx, days)
				if err != nil {
					return err
				}
				if pretty {
					out.Header("Reflection (last %d days)", days)
				}
				out.Print("%s", r.Reflection(ref))
				return nil
			}

			p, err := client.Progress(ctx)
			if err != nil {
				return err
			}
			if pretty {
				out.Header("Progress")
			}
			out.Print("%s", r.Progress(p))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reflection, "reflection", false, "Show reflection signals instead")
	cmd.Flags().IntVar(&days, "days", 7, "Reflection window in days")
	return cmd
}
