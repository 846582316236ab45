package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and catalog counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "LinguaFlow daemon %s\n", status.Version)
			renderCounters(out, "Resource", [][]string{
				{"Projects", fmt.Sprintf("%d", status.Projects)},
				{"Languages", fmt.Sprintf("%d", status.Languages)},
				{"Translations", fmt.Sprintf("%d", status.Translations)},
				{"Queue pending", fmt.Sprintf("%d", status.Queue.Pending)},
				{"Queue processing", fmt.Sprintf("%d", status.Queue.Processing)},
				{"Queue failed", fmt.Sprintf("%d", status.Queue.Failed)},
			})
			return nil
		},
	}
}
