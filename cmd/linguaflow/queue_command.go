package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the AI translation queue",
	}
	cmd.AddCommand(newQueueHealthCommand(ctx))
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue status counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.QueueHealth(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, health)
			}

			renderCounters(cmd.OutOrStdout(), "Status", [][]string{
				{"pending", fmt.Sprintf("%d", health.Pending)},
				{"processing", fmt.Sprintf("%d", health.Processing)},
				{"completed", fmt.Sprintf("%d", health.Completed)},
				{"failed", fmt.Sprintf("%d", health.Failed)},
				{"total", fmt.Sprintf("%d", health.Total)},
			})
			return nil
		},
	}
}
